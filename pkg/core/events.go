// pkg/core/events.go
package core

// ServerEvent is one notification from the backend. Exactly one concrete
// type is carried per event.
type ServerEvent interface {
	EventName() string
	isServerEvent()
}

type VehicleUpserted struct {
	Vehicle VehicleDescription `json:"vehicle"`
}

type VehicleRemoved struct {
	VehicleID string `json:"vehicle_id"`
}

type VehicleStatusUpdated struct {
	Status VehicleStatus `json:"status"`
}

type FlightUpdated struct {
	VehicleID string `json:"vehicle_id"`
	Flight    Flight `json:"flight"`
}

type NavigationUpdated struct {
	VehicleID  string     `json:"vehicle_id"`
	Navigation Navigation `json:"navigation"`
}

type MissionUpserted struct {
	Mission Mission `json:"mission"`
}

type MissionRemoved struct {
	MissionID string `json:"mission_id"`
}

type MissionStatusUpdated struct {
	Status MissionStatus `json:"status"`
}

type MissionRouteUpdated struct {
	Route MissionRoute `json:"route"`
}

type MissionRouteItemUpserted struct {
	MissionID string           `json:"mission_id"`
	Index     int              `json:"index"`
	Item      MissionRouteItem `json:"item"`
}

type MissionRouteItemRemoved struct {
	MissionID string `json:"mission_id"`
	Index     int    `json:"index"`
}

func (VehicleUpserted) EventName() string          { return "VehicleUpserted" }
func (VehicleRemoved) EventName() string           { return "VehicleRemoved" }
func (VehicleStatusUpdated) EventName() string     { return "VehicleStatusUpdated" }
func (FlightUpdated) EventName() string            { return "FlightUpdated" }
func (NavigationUpdated) EventName() string        { return "NavigationUpdated" }
func (MissionUpserted) EventName() string          { return "MissionUpserted" }
func (MissionRemoved) EventName() string           { return "MissionRemoved" }
func (MissionStatusUpdated) EventName() string     { return "MissionStatusUpdated" }
func (MissionRouteUpdated) EventName() string      { return "MissionRouteUpdated" }
func (MissionRouteItemUpserted) EventName() string { return "MissionRouteItemUpserted" }
func (MissionRouteItemRemoved) EventName() string  { return "MissionRouteItemRemoved" }

func (VehicleUpserted) isServerEvent()          {}
func (VehicleRemoved) isServerEvent()           {}
func (VehicleStatusUpdated) isServerEvent()     {}
func (FlightUpdated) isServerEvent()            {}
func (NavigationUpdated) isServerEvent()        {}
func (MissionUpserted) isServerEvent()          {}
func (MissionRemoved) isServerEvent()           {}
func (MissionStatusUpdated) isServerEvent()     {}
func (MissionRouteUpdated) isServerEvent()      {}
func (MissionRouteItemUpserted) isServerEvent() {}
func (MissionRouteItemRemoved) isServerEvent()  {}
