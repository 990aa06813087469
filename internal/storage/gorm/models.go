package gormstorage

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/OCAP2/gcs/internal/spatial"
	"github.com/OCAP2/gcs/internal/storage"
	"github.com/OCAP2/gcs/pkg/core"
)

// ProposalEntry is one row of the proposal journal.
type ProposalEntry struct {
	ID         uint      `gorm:"primarykey;autoIncrement" json:"id"`
	Time       time.Time `gorm:"index" json:"time"`
	ProposalID string    `gorm:"size:36;index" json:"proposalId"`
	Key        string    `gorm:"size:128;index" json:"key"`
	Kind       string    `gorm:"size:16" json:"kind"`
	VehicleID  string    `gorm:"size:64" json:"vehicleId"`
	MissionID  string    `gorm:"size:64" json:"missionId"`
	ItemIndex  int       `json:"itemIndex"`
	Status     string    `gorm:"size:16;index" json:"status"`
	Error      string    `json:"error"`
	// Location is the proposed position as WKT, Position the full geodetic
	// including its frame.
	Location string         `gorm:"size:128" json:"location"`
	Position datatypes.JSON `json:"position"`
}

func (*ProposalEntry) TableName() string {
	return "proposals"
}

// NavigationEntry is one row of the vehicle track journal.
type NavigationEntry struct {
	ID        uint           `gorm:"primarykey;autoIncrement" json:"id"`
	Time      time.Time      `gorm:"index" json:"time"`
	VehicleID string         `gorm:"size:64;index" json:"vehicleId"`
	Latitude  float64        `json:"latitude"`
	Longitude float64        `json:"longitude"`
	Altitude  float64        `json:"altitude"`
	Frame     string         `gorm:"size:16" json:"frame"`
	Location  string         `gorm:"size:128" json:"location"`
	Target    datatypes.JSON `json:"target"`
	Home      datatypes.JSON `json:"home"`
}

func (*NavigationEntry) TableName() string {
	return "navigation"
}

// Models are migrated on Init.
var Models = []any{
	&ProposalEntry{},
	&NavigationEntry{},
}

// geodeticJSON never returns an empty value, which would be stored as NULL.
func geodeticJSON(g core.Geodetic) datatypes.JSON {
	b, err := json.Marshal(g)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(b)
}

func location(g core.Geodetic) string {
	if !g.IsSet() {
		return ""
	}
	p, err := spatial.PointFromGeodetic(g)
	if err != nil {
		return ""
	}
	return p.AsText()
}

func proposalEntry(p *storage.ProposalRecord) ProposalEntry {
	return ProposalEntry{
		Time:       p.Time,
		ProposalID: p.ID.String(),
		Key:        p.Key,
		Kind:       p.Kind,
		VehicleID:  p.VehicleID,
		MissionID:  p.MissionID,
		ItemIndex:  p.Index,
		Status:     string(p.Status),
		Error:      p.Error,
		Location:   location(p.Position),
		Position:   geodeticJSON(p.Position),
	}
}

func navigationEntry(n *storage.NavigationRecord) NavigationEntry {
	return NavigationEntry{
		Time:      n.Time,
		VehicleID: n.VehicleID,
		Latitude:  n.Position.Latitude,
		Longitude: n.Position.Longitude,
		Altitude:  n.Position.Altitude,
		Frame:     n.Position.Frame.String(),
		Location:  location(n.Position),
		Target:    geodeticJSON(n.Target),
		Home:      geodeticJSON(n.Home),
	}
}
