// Package memory keeps the journal in process memory. On Close the recorded
// vehicle tracks are written to a GeoJSON file.
package memory

import (
	"maps"
	"slices"
	"sync"

	"github.com/OCAP2/gcs/internal/config"
	"github.com/OCAP2/gcs/internal/storage"
)

// Track holds the navigation samples of one vehicle, oldest first.
type Track struct {
	VehicleID string
	Samples   []storage.NavigationRecord
}

// Backend is the in-memory journal. It is safe for concurrent use.
type Backend struct {
	cfg config.MemoryConfig

	mu           sync.RWMutex
	proposals    []storage.ProposalRecord
	tracks       map[string]*Track
	exportedPath string
}

func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:    cfg,
		tracks: make(map[string]*Track),
	}
}

func (b *Backend) Init() error { return nil }

// Close exports the recorded tracks when an output directory is configured.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cfg.OutputDir == "" {
		return nil
	}
	path, err := b.export()
	if err != nil {
		return err
	}
	b.exportedPath = path
	return nil
}

func (b *Backend) RecordProposal(p *storage.ProposalRecord) error {
	b.mu.Lock()
	b.proposals = append(b.proposals, *p)
	b.mu.Unlock()
	return nil
}

func (b *Backend) RecordNavigation(n *storage.NavigationRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.tracks[n.VehicleID]
	if !ok {
		t = &Track{VehicleID: n.VehicleID}
		b.tracks[n.VehicleID] = t
	}
	t.Samples = append(t.Samples, *n)
	return nil
}

// Proposals returns every recorded proposal state change in order.
func (b *Backend) Proposals() []storage.ProposalRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.proposals)
}

// ProposalHistory returns the statuses recorded for key, oldest first.
func (b *Backend) ProposalHistory(key string) []storage.ProposalStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []storage.ProposalStatus
	for _, p := range b.proposals {
		if p.Key == key {
			out = append(out, p.Status)
		}
	}
	return out
}

// Track returns a copy of the samples recorded for a vehicle.
func (b *Backend) Track(id string) (Track, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	t, ok := b.tracks[id]
	if !ok {
		return Track{}, false
	}
	return Track{VehicleID: t.VehicleID, Samples: slices.Clone(t.Samples)}, true
}

// VehicleIDs returns the vehicles with at least one sample, sorted.
func (b *Backend) VehicleIDs() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.vehicleIDs()
}

func (b *Backend) vehicleIDs() []string {
	return slices.Sorted(maps.Keys(b.tracks))
}

// ExportedPath returns the file written by the last Close, or "".
func (b *Backend) ExportedPath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.exportedPath
}
