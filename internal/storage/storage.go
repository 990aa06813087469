// internal/storage/storage.go
package storage

import (
	"time"

	"github.com/google/uuid"

	"github.com/OCAP2/gcs/pkg/core"
)

// Backend is the interface all journal implementations must satisfy.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// RecordProposal stores one state change of an outgoing proposal.
	RecordProposal(p *ProposalRecord) error
	// RecordNavigation stores one vehicle navigation sample.
	RecordNavigation(n *NavigationRecord) error
}

// ProposalStatus is the delivery state of a proposal.
type ProposalStatus string

const (
	ProposalQueued     ProposalStatus = "queued"
	ProposalSent       ProposalStatus = "sent"
	ProposalFailed     ProposalStatus = "failed"
	ProposalSuperseded ProposalStatus = "superseded"
)

// Proposal kinds.
const (
	KindHome      = "home"
	KindTarget    = "target"
	KindRouteItem = "route_item"
)

// ProposalRecord is one journal line for an operator proposal.
type ProposalRecord struct {
	ID        uuid.UUID
	Key       string
	Kind      string
	VehicleID string
	MissionID string
	Index     int
	Position  core.Geodetic
	Status    ProposalStatus
	Error     string
	Time      time.Time
}

// NewProposalRecord describes p in the given status.
func NewProposalRecord(id uuid.UUID, p core.Proposal, status ProposalStatus) ProposalRecord {
	r := ProposalRecord{
		ID:     id,
		Key:    p.Key(),
		Status: status,
		Time:   time.Now(),
	}
	switch p := p.(type) {
	case core.HomeProposed:
		r.Kind, r.VehicleID, r.Position = KindHome, p.VehicleID, p.Position
	case core.TargetProposed:
		r.Kind, r.VehicleID, r.Position = KindTarget, p.VehicleID, p.Position
	case core.RouteItemProposed:
		r.Kind, r.MissionID, r.Index, r.Position = KindRouteItem, p.MissionID, p.Index, p.Position
	}
	return r
}

// NavigationRecord is one vehicle position sample.
type NavigationRecord struct {
	VehicleID string
	Time      time.Time
	Position  core.Geodetic
	Target    core.Geodetic
	Home      core.Geodetic
}

// NewNavigationRecord samples nav. Timestamps are unix milliseconds, a zero
// timestamp means now.
func NewNavigationRecord(vehicleID string, nav core.Navigation) NavigationRecord {
	t := time.Now()
	if nav.Timestamp > 0 {
		t = time.UnixMilli(nav.Timestamp)
	}
	return NavigationRecord{
		VehicleID: vehicleID,
		Time:      t,
		Position:  nav.Position,
		Target:    nav.Target,
		Home:      nav.Home,
	}
}
