// pkg/core/proposals.go
package core

import (
	"encoding/json"
	"fmt"
)

// Proposal is a position the operator proposed by dragging a marker. It is
// sent to the backend and is not authoritative until echoed back.
type Proposal interface {
	// Key identifies the proposal target. A newer proposal with the same
	// key supersedes an unsent older one.
	Key() string
	isProposal()
}

// HomeProposed asks to move a vehicle's home position.
type HomeProposed struct {
	VehicleID string   `json:"vehicle_id"`
	Position  Geodetic `json:"position"`
}

// TargetProposed asks to send a guided vehicle to a new position.
type TargetProposed struct {
	VehicleID string   `json:"vehicle_id"`
	Position  Geodetic `json:"position"`
}

// RouteItemProposed asks to move one item of a mission route. Item is the
// full item to upsert, carrying Position.
type RouteItemProposed struct {
	MissionID string           `json:"mission_id"`
	Index     int              `json:"index"`
	Position  Geodetic         `json:"position"`
	Item      MissionRouteItem `json:"item"`
}

func (p HomeProposed) Key() string   { return "home/" + p.VehicleID }
func (p TargetProposed) Key() string { return "target/" + p.VehicleID }
func (p RouteItemProposed) Key() string {
	return fmt.Sprintf("route/%s/%d", p.MissionID, p.Index)
}

func (HomeProposed) isProposal()      {}
func (TargetProposed) isProposal()    {}
func (RouteItemProposed) isProposal() {}

// VehicleCommand is a command addressed to a vehicle. On the wire it is an
// object with a single key naming the command.
type VehicleCommand interface {
	CommandName() string
	isVehicleCommand()
}

// NavTo sends the vehicle to a position in guided mode.
type NavTo struct {
	Position Geodetic `json:"position"`
}

// SetReturn sets the vehicle home position.
type SetReturn struct {
	Position Geodetic `json:"position"`
}

func (NavTo) CommandName() string     { return "NavTo" }
func (SetReturn) CommandName() string { return "SetReturn" }

func (NavTo) isVehicleCommand()     {}
func (SetReturn) isVehicleCommand() {}

// MarshalCommand encodes a command in its single-key wire form.
func MarshalCommand(c VehicleCommand) ([]byte, error) {
	return json.Marshal(map[string]VehicleCommand{c.CommandName(): c})
}
