package streaming

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/gcs/pkg/core"
)

func TestDecode_NavigationUpdated(t *testing.T) {
	raw := `{"type":"NavigationUpdated","payload":{"vehicle_id":"v1","navigation":{
		"position":{"latitude":10,"longitude":20,"altitude":30,"frame":"Wgs84RelativeHome"},
		"target_position":{"latitude":0,"longitude":0,"altitude":0,"frame":"None"},
		"home_position":{"latitude":10,"longitude":20,"altitude":150,"frame":"Wgs84AboveSeaLevel"}}}}`

	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(raw), &env))

	ev, err := Decode(env)
	require.NoError(t, err)

	nav, ok := ev.(core.NavigationUpdated)
	require.True(t, ok, "expected NavigationUpdated, got %T", ev)
	assert.Equal(t, "v1", nav.VehicleID)
	assert.Equal(t, core.FrameRelativeToHome, nav.Navigation.Position.Frame)
	assert.False(t, nav.Navigation.Target.IsSet())
	assert.InDelta(t, 150, nav.Navigation.Home.Altitude, 1e-9)
}

func TestDecode_RoundTripEveryType(t *testing.T) {
	pos := core.Geodetic{Latitude: 1, Longitude: 2, Altitude: 3, Frame: core.FrameAboveSeaLevel}
	events := []core.ServerEvent{
		core.VehicleUpserted{Vehicle: core.VehicleDescription{ID: "v1", Color: core.ColorSky}},
		core.VehicleRemoved{VehicleID: "v1"},
		core.VehicleStatusUpdated{Status: core.VehicleStatus{ID: "v1", IsOnline: true, Mode: core.VehicleModeGuided}},
		core.FlightUpdated{VehicleID: "v1", Flight: core.Flight{Yaw: 90}},
		core.NavigationUpdated{VehicleID: "v1", Navigation: core.Navigation{Position: pos}},
		core.MissionUpserted{Mission: core.Mission{ID: "m1", VehicleID: "v1", Status: core.MissionStatus{State: core.MissionUpdateState{Kind: core.StateActual, Total: 1}}}},
		core.MissionRemoved{MissionID: "m1"},
		core.MissionStatusUpdated{Status: core.MissionStatus{ID: "m1", State: core.MissionUpdateState{Kind: core.StateNotActual}}},
		core.MissionRouteUpdated{Route: core.MissionRoute{ID: "m1", Items: []core.MissionRouteItem{{Type: core.ItemWaypoint, Position: &pos}}}},
		core.MissionRouteItemUpserted{MissionID: "m1", Index: 2, Item: core.MissionRouteItem{Type: core.ItemLanding, Position: &pos}},
		core.MissionRouteItemRemoved{MissionID: "m1", Index: 2},
	}

	for _, ev := range events {
		t.Run(ev.EventName(), func(t *testing.T) {
			env, err := NewEnvelope(ev)
			require.NoError(t, err)
			assert.Equal(t, ev.EventName(), env.Type)

			got, err := Decode(env)
			require.NoError(t, err)
			assert.Equal(t, ev, got)
		})
	}
}

func TestDecode_UnknownType(t *testing.T) {
	_, err := Decode(Envelope{Type: "LinkUpserted", Payload: json.RawMessage(`{}`)})
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestDecode_MalformedPayload(t *testing.T) {
	_, err := Decode(Envelope{Type: TypeVehicleRemoved, Payload: json.RawMessage(`{"vehicle_id":`)})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnknownType)
}
