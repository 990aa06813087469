// Package sqlitestorage keeps the journal in a shared in-memory SQLite
// database and copies it to disk on a timer and at Close.
package sqlitestorage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/OCAP2/gcs/internal/config"
	"github.com/OCAP2/gcs/internal/database"
	gormstorage "github.com/OCAP2/gcs/internal/storage/gorm"
)

// Backend is the GORM journal on an in-memory SQLite database.
type Backend struct {
	*gormstorage.Backend
	db     *gorm.DB
	dbm    *database.Manager
	cfg    config.SQLiteConfig
	logger *slog.Logger

	dumpMu   sync.Mutex
	lastDump time.Time

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// New opens the in-memory database. Nothing is written until Init.
func New(cfg config.SQLiteConfig, dbm *database.Manager, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := dbm.OpenSqlite("")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
	}

	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{DB: db, Logger: logger}),
		db:      db,
		dbm:     dbm,
		cfg:     cfg,
		logger:  logger.With("component", "sqlite"),
	}, nil
}

// Init migrates the schema and, when a path and interval are configured,
// starts the periodic dump.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}
	if b.cfg.Path == "" || b.cfg.DumpInterval <= 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.done = make(chan struct{})
	go b.dumpEvery(ctx, b.cfg.DumpInterval)
	return nil
}

// Close stops the dump timer, flushes queued rows, writes a final dump and
// releases the database. Later calls return the first result.
func (b *Backend) Close() error {
	b.closeOnce.Do(func() {
		if b.cancel != nil {
			b.cancel()
			<-b.done
		}
		if err := b.Backend.Close(); err != nil {
			b.closeErr = err
			return
		}
		if b.cfg.Path != "" {
			b.closeErr = b.Dump()
		}
		if err := b.dbm.Close(b.db); err != nil && b.closeErr == nil {
			b.closeErr = err
		}
	})
	return b.closeErr
}

// Dump writes a point-in-time copy of the journal to the configured path.
func (b *Backend) Dump() error {
	b.dumpMu.Lock()
	defer b.dumpMu.Unlock()

	if err := b.dbm.Dump(b.db, b.cfg.Path); err != nil {
		return err
	}
	b.lastDump = time.Now()
	return nil
}

// LastDump returns when Dump last succeeded, or the zero time.
func (b *Backend) LastDump() time.Time {
	b.dumpMu.Lock()
	defer b.dumpMu.Unlock()
	return b.lastDump
}

func (b *Backend) dumpEvery(ctx context.Context, interval time.Duration) {
	defer close(b.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := b.Flush(); err != nil {
				b.logger.Warn("flush before dump failed", "error", err)
			}
			if err := b.Dump(); err != nil {
				b.logger.Error("dump failed", "error", err, "path", b.cfg.Path)
			}
		}
	}
}
