package main

import (
	"fmt"

	"github.com/OCAP2/gcs/internal/config"
	"github.com/OCAP2/gcs/internal/database"
	"github.com/OCAP2/gcs/internal/influx"
	"github.com/OCAP2/gcs/internal/storage"
	influxstorage "github.com/OCAP2/gcs/internal/storage/influx"
	"github.com/OCAP2/gcs/internal/storage/memory"
	pgstorage "github.com/OCAP2/gcs/internal/storage/postgres"
	sqlitestorage "github.com/OCAP2/gcs/internal/storage/sqlite"
)

func createStorageBackend(storageCfg config.StorageConfig, dbm *database.Manager) (storage.Backend, error) {
	switch storageCfg.Type {
	case "postgres":
		Logger.Info("Postgres storage backend initialized", "host", storageCfg.Postgres.Host)
		return pgstorage.New(pgstorage.Dependencies{
			Manager: dbm,
			Config:  storageCfg.Postgres,
			Logger:  Logger,
		}), nil

	case "sqlite":
		backend, err := sqlitestorage.New(storageCfg.SQLite, dbm, Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		Logger.Info("SQLite storage backend initialized", "path", storageCfg.SQLite.Path)
		return backend, nil

	case "influx":
		Logger.Info("InfluxDB storage backend initialized")
		return influxstorage.New(influx.NewManager(ZLogger, storageCfg.Influx)), nil

	case "memory", "":
		Logger.Info("Memory storage backend initialized")
		return memory.New(storageCfg.Memory), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", storageCfg.Type)
	}
}
