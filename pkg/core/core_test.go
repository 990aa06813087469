package core

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeodetic_IsSet(t *testing.T) {
	assert.False(t, NullGeodetic().IsSet())
	assert.False(t, Geodetic{Latitude: 1, Longitude: 2, Frame: FrameNone}.IsSet())
	assert.False(t, Geodetic{Latitude: math.NaN(), Longitude: 2, Frame: FrameAboveSeaLevel}.IsSet())
	assert.True(t, Geodetic{Latitude: 1, Longitude: 2, Frame: FrameAboveTerrain}.IsSet())
}

func TestGeodetic_JSON(t *testing.T) {
	in := `{"latitude":55.1,"longitude":37.2,"altitude":120,"frame":"Wgs84RelativeHome"}`

	var g Geodetic
	require.NoError(t, json.Unmarshal([]byte(in), &g))
	assert.Equal(t, FrameRelativeToHome, g.Frame)
	assert.InDelta(t, 55.1, g.Latitude, 1e-9)

	out, err := json.Marshal(g)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}

func TestFrame_UnknownNameIsNone(t *testing.T) {
	var g Geodetic
	require.NoError(t, json.Unmarshal([]byte(`{"latitude":1,"longitude":2,"frame":"Bogus"}`), &g))
	assert.Equal(t, FrameNone, g.Frame)
	assert.False(t, g.IsSet())
}

func TestMissionUpdateState_JSON(t *testing.T) {
	var s MissionUpdateState
	require.NoError(t, json.Unmarshal([]byte(`{"Upload":{"total":5,"progress":2}}`), &s))
	assert.Equal(t, MissionUpdateState{Kind: StateUpload, Total: 5, Progress: 2}, s)

	out, err := json.Marshal(MissionUpdateState{Kind: StateClearing})
	require.NoError(t, err)
	assert.JSONEq(t, `{"Clearing":{}}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"Upload":{},"Actual":{}}`), &s))
}

func TestMissionRouteItem_Geodetic(t *testing.T) {
	item := MissionRouteItem{Type: ItemTriggerCam}
	assert.False(t, item.Geodetic().IsSet())

	pos := Geodetic{Latitude: 1, Longitude: 2, Frame: FrameAboveSeaLevel}
	item.Position = &pos
	assert.Equal(t, pos, item.Geodetic())
}

func TestMarshalCommand(t *testing.T) {
	out, err := MarshalCommand(NavTo{Position: Geodetic{Latitude: 1, Longitude: 2, Altitude: 3, Frame: FrameAboveSeaLevel}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"NavTo":{"position":{"latitude":1,"longitude":2,"altitude":3,"frame":"Wgs84AboveSeaLevel"}}}`, string(out))
}

func TestProposal_Keys(t *testing.T) {
	assert.Equal(t, "home/v1", HomeProposed{VehicleID: "v1"}.Key())
	assert.Equal(t, "target/v1", TargetProposed{VehicleID: "v1"}.Key())
	assert.Equal(t, "route/m1/3", RouteItemProposed{MissionID: "m1", Index: 3}.Key())
}

func TestEntityColor_Code(t *testing.T) {
	assert.Equal(t, "#2dd4bf", ColorTeal.Code())
	assert.Equal(t, "", EntityColor("Pink").Code())
}
