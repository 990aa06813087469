package vehicles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/gcs/internal/entity"
	"github.com/OCAP2/gcs/internal/interaction"
	"github.com/OCAP2/gcs/internal/render"
	"github.com/OCAP2/gcs/internal/render/rendertest"
	"github.com/OCAP2/gcs/internal/spatial"
	"github.com/OCAP2/gcs/internal/terrain"
	"github.com/OCAP2/gcs/pkg/core"
)

type fixture struct {
	r         *rendertest.Renderer
	c         *interaction.Controller
	e         *Engine
	proposals []core.Proposal
	homeAlts  map[string][]float64
}

func newTestEngine(t *testing.T) *fixture {
	t.Helper()
	r := rendertest.New()
	f := &fixture{
		r:        r,
		c:        interaction.New(r),
		homeAlts: make(map[string][]float64),
	}
	f.e = New(Dependencies{
		Renderer:    r,
		Registry:    f.c,
		Terrain:     &terrain.Manual{},
		TrailLength: 5,
		Propose:     func(p core.Proposal) { f.proposals = append(f.proposals, p) },
		HomeAltitudeChanged: func(id string, alt float64) {
			f.homeAlts[id] = append(f.homeAlts[id], alt)
		},
	})
	return f
}

func asl(lat, lon, alt float64) core.Geodetic {
	return core.Geodetic{Latitude: lat, Longitude: lon, Altitude: alt, Frame: core.FrameAboveSeaLevel}
}

func nav(pos core.Geodetic) core.Navigation {
	return core.Navigation{
		Position: pos,
		Target:   core.NullGeodetic(),
		Home:     asl(45, 10, 200),
	}
}

func TestEngine_VehicleLifecycle(t *testing.T) {
	f := newTestEngine(t)

	f.e.Upsert(core.VehicleDescription{ID: "v1", Name: "Alpha", VehicleType: core.VehicleTypeCopter, Color: core.ColorSky})
	require.Equal(t, 1, f.e.Len())
	assert.Equal(t, 2, f.c.Len(), "home and target signs are interactive")

	f.e.UpdatePosition("v1", nav(asl(45.001, 10, 300)))
	f.e.UpdatePosition("v1", nav(asl(45.002, 10, 300)))

	v, ok := f.e.Vehicle("v1")
	require.True(t, ok)
	assert.Equal(t, 1, v.Trail().Len())
	assert.Equal(t, "copter.glb", v.Model().URI())
	assert.Equal(t, "Alpha", v.Description().Name)

	f.e.Remove("v1")
	assert.Zero(t, f.e.Len())
	assert.Zero(t, f.c.Len())
	assert.Zero(t, f.r.Len(), "every primitive of the vehicle is released")
	_, ok = f.e.Vehicle("v1")
	assert.False(t, ok)

	f.e.Remove("v1")
}

func TestEngine_UpsertUpdatesInPlace(t *testing.T) {
	f := newTestEngine(t)
	f.e.Upsert(core.VehicleDescription{ID: "v1", VehicleType: core.VehicleTypeCopter})
	before := f.r.Len()

	f.e.Upsert(core.VehicleDescription{ID: "v1", VehicleType: core.VehicleTypeFixedWing, Color: core.ColorEmerald})

	assert.Equal(t, before, f.r.Len())
	v, _ := f.e.Vehicle("v1")
	assert.Equal(t, "fixed_wing.glb", v.Model().URI())
	want, _ := render.ParseCSS(core.ColorEmerald.Code())
	assert.Equal(t, want, v.Model().Color())
}

func TestEngine_MalformedPayloadsAreSkipped(t *testing.T) {
	f := newTestEngine(t)
	f.e.Upsert(core.VehicleDescription{ID: "v1"})

	f.e.Upsert(core.VehicleDescription{})
	f.e.UpdatePosition("nope", nav(asl(45, 10, 0)))
	f.e.UpdateAttitude("nope", core.Flight{Yaw: 10})
	f.e.UpdateStatus(core.VehicleStatus{})

	assert.Equal(t, []string{"v1"}, f.e.IDs())
}

func TestEngine_TrailOnlyGrowsOnMovement(t *testing.T) {
	f := newTestEngine(t)
	f.e.Upsert(core.VehicleDescription{ID: "v1"})
	v, _ := f.e.Vehicle("v1")

	f.e.UpdatePosition("v1", nav(core.NullGeodetic()))
	f.e.UpdatePosition("v1", nav(asl(45, 10, 100)))
	assert.Zero(t, v.Trail().Len(), "no previous position")

	f.e.UpdatePosition("v1", nav(asl(45, 10, 100)))
	assert.Zero(t, v.Trail().Len(), "same position")

	for i := 1; i <= 8; i++ {
		f.e.UpdatePosition("v1", nav(asl(45+float64(i)*0.0001, 10, 100)))
	}
	assert.Equal(t, 5, v.Trail().Len(), "bounded by the trail length")

	f.e.UpdatePosition("v1", nav(core.NullGeodetic()))
	assert.False(t, v.Model().HasPosition())
	assert.Equal(t, 5, v.Trail().Len())
}

func TestEngine_RelativeAltitudeUsesHome(t *testing.T) {
	f := newTestEngine(t)
	f.e.Upsert(core.VehicleDescription{ID: "v1"})

	n := nav(core.Geodetic{Latitude: 45, Longitude: 10, Altitude: 50, Frame: core.FrameRelativeToHome})
	f.e.UpdatePosition("v1", n)
	f.e.UpdatePosition("v1", n)

	v, _ := f.e.Vehicle("v1")
	_, _, alt := spatial.Cartographic(v.Position())
	assert.InDelta(t, 250, alt, 1e-3)
	assert.Equal(t, []float64{200}, f.homeAlts["v1"], "reported once per change")

	home, ok := v.HomeAltitude()
	assert.True(t, ok)
	assert.Equal(t, 200.0, home)
}

func TestEngine_StatusDrivesTarget(t *testing.T) {
	f := newTestEngine(t)
	f.e.Upsert(core.VehicleDescription{ID: "v1"})
	n := nav(asl(45, 10, 100))
	n.Target = asl(45.01, 10, 100)
	f.e.UpdatePosition("v1", n)
	v, _ := f.e.Vehicle("v1")
	target := v.Target()

	assert.False(t, target.IsVisible())

	f.e.UpdateStatus(core.VehicleStatus{ID: "v1", IsOnline: true, Mode: core.VehicleModeGuided})
	assert.True(t, target.IsVisible())
	assert.True(t, target.IsDraggable())
	assert.Equal(t, entity.IconTarget, target.Icon().Icon())
	assert.True(t, f.r.Visible(target.Icon().Handle()))

	f.e.UpdateStatus(core.VehicleStatus{ID: "v1", IsOnline: true, Mode: core.VehicleModeLoiter})
	assert.True(t, target.IsVisible())
	assert.False(t, target.IsDraggable())
	assert.Equal(t, entity.IconWaypoint, target.Icon().Icon())

	f.e.UpdateStatus(core.VehicleStatus{ID: "v1", IsOnline: false, Mode: core.VehicleModeAuto})
	assert.False(t, target.IsVisible())
	assert.False(t, f.r.Visible(target.Icon().Handle()))
	assert.InDelta(t, offlineOpacity, v.Model().Opacity(), 1e-6)
}

func TestEngine_HomeHighlightedWhenTargetIsHome(t *testing.T) {
	f := newTestEngine(t)
	f.e.Upsert(core.VehicleDescription{ID: "v1"})
	v, _ := f.e.Vehicle("v1")

	n := nav(asl(45.01, 10, 100))
	n.Target = asl(45, 10, 150)
	f.e.UpdatePosition("v1", n)
	assert.Equal(t, render.Magenta, v.HomeSign().Icon().Color())

	n.Target = asl(45.02, 10, 150)
	f.e.UpdatePosition("v1", n)
	assert.Equal(t, render.White, v.HomeSign().Icon().Color())
}

func TestEngine_SingleSelection(t *testing.T) {
	f := newTestEngine(t)
	f.e.Upsert(core.VehicleDescription{ID: "v1"})
	f.e.Upsert(core.VehicleDescription{ID: "v2"})
	v1, _ := f.e.Vehicle("v1")
	v2, _ := f.e.Vehicle("v2")

	f.e.SetSelected("v1")
	assert.Equal(t, "v1", f.e.Selected())
	assert.True(t, v1.Selected())
	assert.False(t, v2.Selected())
	assert.Equal(t, render.White, v1.Model().Silhouette())
	assert.True(t, v1.Trail().IsVisible())
	assert.False(t, v2.Trail().IsVisible())

	f.e.SetSelected("v2")
	assert.False(t, v1.Selected())
	assert.True(t, v2.Selected())
	assert.Equal(t, render.Gray, v1.Model().Silhouette())

	f.e.SetSelected("")
	assert.Equal(t, "", f.e.Selected())
	assert.False(t, v2.Selected())

	f.e.SetSelected("v1")
	f.e.Remove("v1")
	assert.Equal(t, "", f.e.Selected())
}

func TestEngine_SelectionAppliesToLaterVehicle(t *testing.T) {
	f := newTestEngine(t)
	f.e.Upsert(core.VehicleDescription{ID: "v2"})

	f.e.SetSelected("v1")
	assert.Equal(t, "v1", f.e.Selected())
	v2, _ := f.e.Vehicle("v2")
	assert.False(t, v2.Selected())

	f.e.Upsert(core.VehicleDescription{ID: "v1"})
	v1, ok := f.e.Vehicle("v1")
	require.True(t, ok)
	assert.True(t, v1.Selected())
	assert.Equal(t, render.White, v1.Model().Silhouette())
	assert.True(t, v1.Trail().IsVisible())
	assert.False(t, v2.Selected())
}

func TestEngine_TargetSignIsMagenta(t *testing.T) {
	f := newTestEngine(t)
	f.e.Upsert(core.VehicleDescription{ID: "v1", Color: core.ColorEmerald})

	v, _ := f.e.Vehicle("v1")
	assert.Equal(t, render.Magenta, v.Target().Icon().Color())
	want, _ := render.ParseCSS(core.ColorEmerald.Code())
	assert.Equal(t, want, v.Model().Color())
}

func TestEngine_HomeDragProposes(t *testing.T) {
	f := newTestEngine(t)
	f.r.SetCamera(render.LookAt(
		spatial.ToLocal(asl(44.98, 10, 1500), 0),
		spatial.ToLocal(asl(45, 10, 0), 0),
		800, 600,
	))
	f.e.Upsert(core.VehicleDescription{ID: "v1"})
	f.e.UpdatePosition("v1", nav(asl(45.01, 10, 300)))
	v, _ := f.e.Vehicle("v1")

	grab := render.ScreenPoint{X: 3, Y: 3}
	f.r.SetHits(grab, v.HomeSign().Icon().Handle())
	dest := f.r.ScreenOf(spatial.ToLocal(asl(45.001, 10.001, 200), 0))

	f.c.Down(grab, interaction.ModNone)
	f.c.Move(dest, interaction.ModNone)
	f.c.Up(dest, interaction.ModNone)

	require.Len(t, f.proposals, 1)
	p, ok := f.proposals[0].(core.HomeProposed)
	require.True(t, ok)
	assert.Equal(t, "v1", p.VehicleID)
	assert.Equal(t, core.FrameAboveSeaLevel, p.Position.Frame)
	assert.InDelta(t, 45.001, p.Position.Latitude, 1e-6)
	assert.InDelta(t, 10.001, p.Position.Longitude, 1e-6)

	_, pending := v.HomeSign().Pending()
	assert.True(t, pending)
	f.e.CancelProposal(p)
	_, pending = v.HomeSign().Pending()
	assert.False(t, pending)
}

func TestEngine_TargetProposalKeepsFrame(t *testing.T) {
	f := newTestEngine(t)
	f.e.Upsert(core.VehicleDescription{ID: "v1"})
	n := nav(asl(45.01, 10, 300))
	n.Target = core.Geodetic{Latitude: 45, Longitude: 10.01, Altitude: 100, Frame: core.FrameRelativeToHome}
	f.e.UpdatePosition("v1", n)
	f.e.UpdateStatus(core.VehicleStatus{ID: "v1", IsOnline: true, Mode: core.VehicleModeGuided})
	v, _ := f.e.Vehicle("v1")

	grab := render.ScreenPoint{X: 3, Y: 3}
	f.r.SetHits(grab, v.Target().Icon().Handle())
	dest := f.r.ScreenOf(spatial.ToLocal(asl(45.0005, 10.01, 0), 0))
	f.r.SetSurface(dest, spatial.ToLocal(asl(45.0005, 10.01, 0), 0))

	f.c.Down(grab, interaction.ModNone)
	require.True(t, v.Target().IsDragging())
	f.c.Move(dest, interaction.ModNone)
	f.c.Up(dest, interaction.ModNone)

	require.Len(t, f.proposals, 1)
	p, ok := f.proposals[0].(core.TargetProposed)
	require.True(t, ok)
	assert.Equal(t, core.FrameRelativeToHome, p.Position.Frame)
	assert.InDelta(t, 100, p.Position.Altitude, 0.5, "altitude stays relative to home")
}

func TestEngine_Done(t *testing.T) {
	f := newTestEngine(t)
	f.e.Upsert(core.VehicleDescription{ID: "v1"})
	f.e.Upsert(core.VehicleDescription{ID: "v2"})

	f.e.Done()
	assert.Zero(t, f.e.Len())
	assert.Zero(t, f.r.Len())
	assert.Zero(t, f.c.Len())
}
