// pkg/core/mission.go
package core

import (
	"encoding/json"
	"fmt"
)

// ItemType is the kind of a mission route item.
type ItemType string

const (
	ItemGap        ItemType = "Gap"
	ItemWaypoint   ItemType = "Waypoint"
	ItemTakeoff    ItemType = "Takeoff"
	ItemLandStart  ItemType = "LandStart"
	ItemLanding    ItemType = "Landing"
	ItemLoiterTrn  ItemType = "LoiterTrn"
	ItemLoiterAlt  ItemType = "LoiterAlt"
	ItemTriggerCam ItemType = "TriggerCam"
)

// MissionRouteItem is one entry of a route. Position is nil for items that
// carry no location (camera triggers, gaps).
type MissionRouteItem struct {
	Type         ItemType  `json:"type"`
	Position     *Geodetic `json:"position,omitempty"`
	Hold         float64   `json:"hold,omitempty"`
	PassRadius   float64   `json:"pass_radius,omitempty"`
	AcceptRadius float64   `json:"accept_radius,omitempty"`
	Yaw          *float64  `json:"yaw,omitempty"`
	Pitch        float64   `json:"pitch,omitempty"`
	Radius       float64   `json:"radius,omitempty"`
	Turns        int       `json:"turns,omitempty"`
	Clockwise    bool      `json:"clockwise,omitempty"`
	Distance     float64   `json:"distance,omitempty"`
	Shutter      float64   `json:"shutter,omitempty"`
	Trigger      bool      `json:"trigger,omitempty"`
}

// Geodetic returns the item position or the unset position.
func (i MissionRouteItem) Geodetic() Geodetic {
	if i.Position == nil {
		return NullGeodetic()
	}
	return *i.Position
}

// MissionRoute is the ordered item list of a mission.
type MissionRoute struct {
	ID    string             `json:"id"`
	Items []MissionRouteItem `json:"items"`
}

// UpdateStateKind names the phase of a mission upload/download.
type UpdateStateKind string

const (
	StateNotActual       UpdateStateKind = "NotActual"
	StatePrepareDownload UpdateStateKind = "PrepareDownload"
	StateDownload        UpdateStateKind = "Download"
	StatePrepareUpload   UpdateStateKind = "PrepareUpload"
	StateUpload          UpdateStateKind = "Upload"
	StateActual          UpdateStateKind = "Actual"
	StateClearing        UpdateStateKind = "Clearing"
)

// MissionUpdateState is one phase with its counters. On the wire it is an
// object with a single key naming the phase.
type MissionUpdateState struct {
	Kind     UpdateStateKind
	Total    int
	Progress int
}

type updateStateBody struct {
	Total    int `json:"total,omitempty"`
	Progress int `json:"progress,omitempty"`
}

// MarshalJSON encodes the state as {"Kind": {...}}.
func (s MissionUpdateState) MarshalJSON() ([]byte, error) {
	kind := s.Kind
	if kind == "" {
		kind = StateNotActual
	}
	return json.Marshal(map[UpdateStateKind]updateStateBody{
		kind: {Total: s.Total, Progress: s.Progress},
	})
}

// UnmarshalJSON decodes the single-key form.
func (s *MissionUpdateState) UnmarshalJSON(b []byte) error {
	var raw map[UpdateStateKind]updateStateBody
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != 1 {
		return fmt.Errorf("mission update state: expected one variant, got %d", len(raw))
	}
	for k, v := range raw {
		*s = MissionUpdateState{Kind: k, Total: v.Total, Progress: v.Progress}
	}
	return nil
}

// MissionProgress tracks which items have been reached and which is current.
type MissionProgress struct {
	Current *int  `json:"current,omitempty"`
	Reached []int `json:"reached"`
}

// MissionStatus is the synchronization state and progress of a mission.
type MissionStatus struct {
	ID       string             `json:"id"`
	State    MissionUpdateState `json:"state"`
	Progress MissionProgress    `json:"progress"`
}

// Mission is a route bound to one vehicle.
type Mission struct {
	ID        string        `json:"id"`
	VehicleID string        `json:"vehicle_id"`
	Route     MissionRoute  `json:"route"`
	Status    MissionStatus `json:"status"`
}
