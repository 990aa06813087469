package streaming

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/OCAP2/gcs/pkg/core"
)

// Message type constants matching the event feed protocol.
const (
	TypeVehicleUpserted          = "VehicleUpserted"
	TypeVehicleRemoved           = "VehicleRemoved"
	TypeVehicleStatusUpdated     = "VehicleStatusUpdated"
	TypeFlightUpdated            = "FlightUpdated"
	TypeNavigationUpdated        = "NavigationUpdated"
	TypeMissionUpserted          = "MissionUpserted"
	TypeMissionRemoved           = "MissionRemoved"
	TypeMissionStatusUpdated     = "MissionStatusUpdated"
	TypeMissionRouteUpdated      = "MissionRouteUpdated"
	TypeMissionRouteItemUpserted = "MissionRouteItemUpserted"
	TypeMissionRouteItemRemoved  = "MissionRouteItemRemoved"
)

// ErrUnknownType is returned by Decode for message types this client does
// not consume (links, commands, raw sensors).
var ErrUnknownType = errors.New("unknown message type")

// Envelope wraps all messages received over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewEnvelope wraps an event for sending. Used by test servers and replays.
func NewEnvelope(ev core.ServerEvent) (Envelope, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s: %w", ev.EventName(), err)
	}
	return Envelope{Type: ev.EventName(), Payload: data}, nil
}

// Decode converts an envelope to its typed event.
func Decode(env Envelope) (core.ServerEvent, error) {
	switch env.Type {
	case TypeVehicleUpserted:
		return decodeAs[core.VehicleUpserted](env)
	case TypeVehicleRemoved:
		return decodeAs[core.VehicleRemoved](env)
	case TypeVehicleStatusUpdated:
		return decodeAs[core.VehicleStatusUpdated](env)
	case TypeFlightUpdated:
		return decodeAs[core.FlightUpdated](env)
	case TypeNavigationUpdated:
		return decodeAs[core.NavigationUpdated](env)
	case TypeMissionUpserted:
		return decodeAs[core.MissionUpserted](env)
	case TypeMissionRemoved:
		return decodeAs[core.MissionRemoved](env)
	case TypeMissionStatusUpdated:
		return decodeAs[core.MissionStatusUpdated](env)
	case TypeMissionRouteUpdated:
		return decodeAs[core.MissionRouteUpdated](env)
	case TypeMissionRouteItemUpserted:
		return decodeAs[core.MissionRouteItemUpserted](env)
	case TypeMissionRouteItemRemoved:
		return decodeAs[core.MissionRouteItemRemoved](env)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, env.Type)
	}
}

func decodeAs[T core.ServerEvent](env Envelope) (core.ServerEvent, error) {
	var ev T
	if err := json.Unmarshal(env.Payload, &ev); err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Type, err)
	}
	return ev, nil
}
