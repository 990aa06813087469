// Package postgres implements the storage.Backend interface on PostgreSQL by
// wrapping the GORM backend.
package postgres

import (
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/OCAP2/gcs/internal/config"
	"github.com/OCAP2/gcs/internal/database"
	gormstorage "github.com/OCAP2/gcs/internal/storage/gorm"
)

// ErrNoConnection is returned by Init when neither DB nor Manager is set.
var ErrNoConnection = errors.New("postgres backend needs a database or a manager")

// Dependencies holds all dependencies for the Postgres backend.
type Dependencies struct {
	// DB is used as is when set. Otherwise Init connects through Manager
	// with Config.
	DB      *gorm.DB
	Manager *database.Manager
	Config  config.DBConfig
	Logger  *slog.Logger
}

// Backend is the GORM backend on a Postgres connection.
type Backend struct {
	*gormstorage.Backend
	deps Dependencies
}

// New creates a new Postgres storage backend. No connection is made until
// Init.
func New(deps Dependencies) *Backend {
	return &Backend{deps: deps}
}

// Init connects if needed, then migrates and starts the writer.
func (b *Backend) Init() error {
	db := b.deps.DB
	if db == nil {
		if b.deps.Manager == nil {
			return ErrNoConnection
		}
		var err error
		db, err = b.deps.Manager.OpenPostgres(b.deps.Config)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
	}

	b.Backend = gormstorage.New(gormstorage.Dependencies{DB: db, Logger: b.deps.Logger})
	return b.Backend.Init()
}

// Close stops the writer and flushes. Closing a backend that never
// connected is a no-op.
func (b *Backend) Close() error {
	if b.Backend == nil {
		return nil
	}
	return b.Backend.Close()
}
