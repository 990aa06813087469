// Package database opens the GORM connections behind the SQL journals.
package database

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/OCAP2/gcs/internal/config"
)

// ErrNoDumpPath is returned by Dump when no target file is given.
var ErrNoDumpPath = errors.New("sqlite dump path not set")

// memoryDSN is a shared in-memory database, so every pooled connection sees
// the same tables.
const memoryDSN = "file::memory:?cache=shared"

// sqlitePragmas trade durability for write speed. The file on disk is only
// ever written by Dump.
var sqlitePragmas = []string{
	"PRAGMA user_version = 1;",
	"PRAGMA journal_mode = MEMORY;",
	"PRAGMA synchronous = OFF;",
	"PRAGMA temp_store = MEMORY;",
}

// Manager opens journal databases and logs what it connected to.
type Manager struct {
	Logger zerolog.Logger
}

// NewManager creates a new database manager.
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{Logger: log.With().Str("component", "database").Logger()}
}

// zerologWriter routes GORM's logger output to zerolog at warn level.
type zerologWriter struct {
	log zerolog.Logger
}

func (w zerologWriter) Printf(format string, args ...any) {
	w.log.Warn().Msgf(format, args...)
}

// gormLogger reports slow queries and errors. A zero threshold keeps GORM
// silent.
func (m *Manager) gormLogger(slowQuery time.Duration) logger.Interface {
	if slowQuery <= 0 {
		return logger.Default.LogMode(logger.Silent)
	}
	return logger.New(zerologWriter{log: m.Logger}, logger.Config{
		SlowThreshold:             slowQuery,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

// OpenPostgres connects to Postgres and validates the connection.
func (m *Manager) OpenPostgres(cfg config.DBConfig) (*gorm.DB, error) {
	m.Logger.Debug().
		Str("host", cfg.Host).
		Str("database", cfg.Database).
		Msg("Connecting to Postgres DB")

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        1000,
		Logger:                 m.gormLogger(cfg.SlowQuery),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to validate connection: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	m.Logger.Info().Str("host", cfg.Host).Msg("Connected to database")
	return db, nil
}

// OpenSqlite opens the SQLite database at path, or a shared in-memory
// database when path is empty.
func (m *Manager) OpenSqlite(path string) (*gorm.DB, error) {
	dsn := path
	if dsn == "" {
		dsn = memoryDSN
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        500,
		Logger:                 m.gormLogger(0),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	for _, pragma := range sqlitePragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	event := m.Logger.Info()
	if path == "" {
		event.Bool("memory", true)
	} else {
		event.Str("path", path)
	}
	event.Msg("Opened SQLite DB")
	return db, nil
}

// Dump copies db to path with VACUUM INTO, replacing any existing file.
func (m *Manager) Dump(db *gorm.DB, path string) error {
	if path == "" {
		return ErrNoDumpPath
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove previous dump: %w", err)
	}

	start := time.Now()
	target := "file:" + strings.ReplaceAll(path, "'", "''")
	if err := db.Exec("VACUUM INTO '" + target + "';").Error; err != nil {
		return fmt.Errorf("failed to dump to %s: %w", path, err)
	}

	m.Logger.Debug().Dur("duration", time.Since(start)).Str("path", path).Msg("Dumped SQLite DB")
	return nil
}

// Close releases the connection pool behind db.
func (m *Manager) Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
