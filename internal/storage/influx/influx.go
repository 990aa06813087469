// Package influxstorage journals navigation samples and proposal state
// changes as InfluxDB points.
package influxstorage

import (
	"context"
	"errors"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/OCAP2/gcs/internal/influx"
	"github.com/OCAP2/gcs/internal/storage"
)

// Writer is the part of influx.Manager the backend writes through.
type Writer interface {
	Connect(ctx context.Context) error
	WritePoint(bucket string, point *influxdb2_write.Point) error
	Close() error
}

// Backend writes journal records as line protocol points.
type Backend struct {
	w Writer
}

// New creates a backend on w, usually an *influx.Manager.
func New(w Writer) *Backend {
	return &Backend{w: w}
}

// Init connects the writer. A disabled influx is an error here since the
// backend was selected explicitly.
func (b *Backend) Init() error {
	if err := b.w.Connect(context.Background()); err != nil {
		if errors.Is(err, influx.ErrDisabled) {
			return fmt.Errorf("influx storage selected but influx.enabled is false: %w", err)
		}
		return fmt.Errorf("failed to connect to influxdb: %w", err)
	}
	return nil
}

func (b *Backend) Close() error {
	return b.w.Close()
}

func (b *Backend) RecordProposal(p *storage.ProposalRecord) error {
	return b.w.WritePoint(influx.BucketProposals, ProposalPoint(p))
}

func (b *Backend) RecordNavigation(n *storage.NavigationRecord) error {
	if !n.Position.IsSet() {
		return nil
	}
	return b.w.WritePoint(influx.BucketTracks, NavigationPoint(n))
}

// NavigationPoint builds the "navigation" measurement for n.
func NavigationPoint(n *storage.NavigationRecord) *influxdb2_write.Point {
	p := influxdb2.NewPointWithMeasurement("navigation").
		AddTag("vehicleId", n.VehicleID).
		AddTag("frame", n.Position.Frame.String()).
		AddField("lat", n.Position.Latitude).
		AddField("lon", n.Position.Longitude).
		AddField("alt", n.Position.Altitude).
		SetTime(n.Time)
	if n.Target.IsSet() {
		p.AddField("targetLat", n.Target.Latitude).
			AddField("targetLon", n.Target.Longitude).
			AddField("targetAlt", n.Target.Altitude)
	}
	return p
}

// ProposalPoint builds the "proposal" measurement for r.
func ProposalPoint(r *storage.ProposalRecord) *influxdb2_write.Point {
	p := influxdb2.NewPointWithMeasurement("proposal").
		AddTag("kind", r.Kind).
		AddTag("status", string(r.Status)).
		AddField("id", r.ID.String()).
		AddField("key", r.Key).
		AddField("lat", r.Position.Latitude).
		AddField("lon", r.Position.Longitude).
		AddField("alt", r.Position.Altitude).
		SetTime(r.Time)
	if r.VehicleID != "" {
		p.AddTag("vehicleId", r.VehicleID)
	}
	if r.MissionID != "" {
		p.AddTag("missionId", r.MissionID).AddField("index", r.Index)
	}
	if r.Error != "" {
		p.AddField("error", r.Error)
	}
	return p
}
