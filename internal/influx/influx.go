// Package influx writes journal points to InfluxDB, or to a gzipped line
// protocol file when the server is unreachable.
package influx

import (
	"context"
	"errors"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"

	"github.com/OCAP2/gcs/internal/config"
)

// Buckets used by the journal.
const (
	BucketTracks    = "gcs_tracks"
	BucketProposals = "gcs_proposals"
)

// Buckets are created on connect when missing.
var Buckets = []string{BucketTracks, BucketProposals}

var (
	// ErrDisabled is returned by Connect when influx is not enabled.
	ErrDisabled = errors.New("influxdb is disabled")
	// ErrNotConnected is returned by WritePoint before Connect succeeded.
	ErrNotConnected = errors.New("influxdb not connected and no backup file open")
	// ErrNoBackupPath is returned when the server is down and no backup
	// file is configured.
	ErrNoBackupPath = errors.New("influxdb backup path not set")
)

// Manager owns the InfluxDB client and one async writer per bucket.
type Manager struct {
	cfg    config.InfluxConfig
	logger zerolog.Logger

	client  influxdb2.Client
	writers map[string]influxdb2_api.WriteAPI
	backup  *backup
}

// NewManager creates a manager. Nothing connects until Connect.
func NewManager(log zerolog.Logger, cfg config.InfluxConfig) *Manager {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 500
	}
	return &Manager{
		cfg:     cfg,
		logger:  log.With().Str("component", "influx").Logger(),
		writers: make(map[string]influxdb2_api.WriteAPI),
	}
}

// Connected reports whether points go to the server rather than the backup.
func (m *Manager) Connected() bool {
	return len(m.writers) > 0
}

// Connect pings the server and prepares the buckets. When the server does
// not answer, writes go to the backup file instead.
func (m *Manager) Connect(ctx context.Context) error {
	if !m.cfg.Enabled {
		return ErrDisabled
	}

	m.client = influxdb2.NewClientWithOptions(m.cfg.URL(), m.cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(m.cfg.BatchSize).
			SetFlushInterval(1000),
	)

	if ok, err := m.client.Ping(ctx); err != nil || !ok {
		m.logger.Warn().Err(err).Str("url", m.cfg.URL()).Str("backupPath", m.cfg.BackupPath).
			Msg("InfluxDB not reachable, writing to backup file")
		return m.OpenBackup()
	}

	org, err := m.ensureOrg(ctx)
	if err != nil {
		return err
	}
	for _, bucket := range Buckets {
		if err := m.ensureBucket(ctx, org, bucket); err != nil {
			return err
		}
		m.writers[bucket] = m.newWriter(bucket)
	}
	m.logger.Info().Str("url", m.cfg.URL()).Int("buckets", len(Buckets)).Msg("InfluxDB client initialized")
	return nil
}

// OpenBackup sends all writes to the backup file.
func (m *Manager) OpenBackup() error {
	if m.backup != nil {
		return nil
	}
	b, err := openBackup(m.cfg.BackupPath)
	if err != nil {
		return err
	}
	m.backup = b
	return nil
}

func (m *Manager) ensureOrg(ctx context.Context) (*domain.Organization, error) {
	orgs := m.client.OrganizationsAPI()
	org, err := orgs.FindOrganizationByName(ctx, m.cfg.Org)
	if err == nil {
		return org, nil
	}
	m.logger.Info().Str("org", m.cfg.Org).Msg("Organization not found, creating")
	org, err = orgs.CreateOrganizationWithName(ctx, m.cfg.Org)
	if err != nil {
		return nil, fmt.Errorf("creating organization %s: %w", m.cfg.Org, err)
	}
	return org, nil
}

func (m *Manager) ensureBucket(ctx context.Context, org *domain.Organization, name string) error {
	buckets := m.client.BucketsAPI()
	if _, err := buckets.FindBucketByName(ctx, name); err == nil {
		return nil
	}
	m.logger.Info().Str("bucket", name).Int("retentionDays", m.cfg.RetentionDays).Msg("Bucket not found, creating")

	var rules []domain.RetentionRule
	if m.cfg.RetentionDays > 0 {
		expire := domain.RetentionRuleTypeExpire
		rules = append(rules, domain.RetentionRule{
			Type:         &expire,
			EverySeconds: int64(m.cfg.RetentionDays) * 24 * 60 * 60,
		})
	}
	if _, err := buckets.CreateBucketWithName(ctx, org, name, rules...); err != nil {
		return fmt.Errorf("creating bucket %s: %w", name, err)
	}
	return nil
}

// newWriter returns the async writer of bucket and logs its errors until
// the client closes.
func (m *Manager) newWriter(bucket string) influxdb2_api.WriteAPI {
	w := m.client.WriteAPI(m.cfg.Org, bucket)
	go func(errs <-chan error) {
		for err := range errs {
			m.logger.Error().Err(err).Str("bucket", bucket).Msg("Error sending data to InfluxDB")
		}
	}(w.Errors())
	return w
}

// WritePoint queues a point for bucket, or appends it to the backup file.
func (m *Manager) WritePoint(bucket string, point *influxdb2_write.Point) error {
	if m.Connected() {
		w, ok := m.writers[bucket]
		if !ok {
			return fmt.Errorf("influxdb bucket %q not registered", bucket)
		}
		w.WritePoint(point)
		return nil
	}
	if m.backup == nil {
		return ErrNotConnected
	}
	return m.backup.writeLine(influxdb2_write.PointToLineProtocol(point, time.Nanosecond))
}

// Close flushes the writers, then closes the client and the backup file.
func (m *Manager) Close() error {
	for _, w := range m.writers {
		w.Flush()
	}
	if m.client != nil {
		m.client.Close()
	}
	if m.backup == nil {
		return nil
	}
	b := m.backup
	m.backup = nil
	return b.close()
}
