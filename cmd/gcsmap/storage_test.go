package main

import (
	"log/slog"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/gcs/internal/config"
	"github.com/OCAP2/gcs/internal/database"
	"github.com/OCAP2/gcs/internal/spatial"
	influxstorage "github.com/OCAP2/gcs/internal/storage/influx"
	"github.com/OCAP2/gcs/internal/storage/memory"
	pgstorage "github.com/OCAP2/gcs/internal/storage/postgres"
	sqlitestorage "github.com/OCAP2/gcs/internal/storage/sqlite"
)

func TestMain(m *testing.M) {
	Logger = slog.Default()
	ZLogger = zerolog.Nop()
	os.Exit(m.Run())
}

func TestCreateStorageBackend(t *testing.T) {
	dbm := database.NewManager(zerolog.Nop())

	b, err := createStorageBackend(config.StorageConfig{}, dbm)
	require.NoError(t, err)
	assert.IsType(t, &memory.Backend{}, b)

	b, err = createStorageBackend(config.StorageConfig{Type: "postgres"}, dbm)
	require.NoError(t, err)
	assert.IsType(t, &pgstorage.Backend{}, b)

	b, err = createStorageBackend(config.StorageConfig{Type: "influx"}, dbm)
	require.NoError(t, err)
	assert.IsType(t, &influxstorage.Backend{}, b)

	b, err = createStorageBackend(config.StorageConfig{Type: "sqlite"}, dbm)
	require.NoError(t, err)
	assert.IsType(t, &sqlitestorage.Backend{}, b)

	_, err = createStorageBackend(config.StorageConfig{Type: "websocket"}, dbm)
	assert.ErrorContains(t, err, "unknown storage type")
}

func TestStartCamera(t *testing.T) {
	c, err := startCamera("")
	require.NoError(t, err)
	// null island lies on the +X axis of the geocentric frame
	assert.InDelta(t, 6378137+20000, c.Position.X, 1)
	assert.InDelta(t, -1, c.Direction.X, 1e-9)
	assert.Equal(t, 1920.0, c.Width)
}

func TestStartCamera_Center(t *testing.T) {
	c, err := startCamera("90,0")
	require.NoError(t, err)
	// lon 90 on the equator lies on the +Y axis
	assert.InDelta(t, 6378137+20000, c.Position.Y, 1)
	assert.InDelta(t, -1, c.Direction.Y, 1e-9)

	_, err = startCamera("north")
	assert.ErrorIs(t, err, spatial.ErrInvalidCoordinates)
}
