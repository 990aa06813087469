package vehicles

import (
	"github.com/OCAP2/gcs/internal/entity"
	"github.com/OCAP2/gcs/internal/render"
	"github.com/OCAP2/gcs/internal/spatial"
	"github.com/OCAP2/gcs/pkg/core"
)

const offlineOpacity = 0.5

// Vehicle is the map representation of one vehicle: its model, a connector
// to the ground, a trail and the home and target signs.
type Vehicle struct {
	id          string
	description core.VehicleDescription
	status      core.VehicleStatus
	navigation  core.Navigation
	color       render.Color
	selected    bool

	homeAltitude float64
	hasHome      bool

	model  *entity.Model
	pylon  *entity.Pylon
	trail  *entity.Trail
	home   *entity.Sign
	target *entity.Sign
}

func (v *Vehicle) ID() string                           { return v.id }
func (v *Vehicle) Description() core.VehicleDescription { return v.description }
func (v *Vehicle) Status() core.VehicleStatus           { return v.status }
func (v *Vehicle) Navigation() core.Navigation          { return v.navigation }
func (v *Vehicle) Selected() bool                       { return v.selected }

// HomeAltitude returns the home altitude used for relative positions.
func (v *Vehicle) HomeAltitude() (float64, bool) { return v.homeAltitude, v.hasHome }

// Position is the last drawn vehicle position.
func (v *Vehicle) Position() spatial.Vec3 { return v.model.Position() }

func (v *Vehicle) Model() *entity.Model   { return v.model }
func (v *Vehicle) Pylon() *entity.Pylon   { return v.pylon }
func (v *Vehicle) Trail() *entity.Trail   { return v.trail }
func (v *Vehicle) HomeSign() *entity.Sign { return v.home }
func (v *Vehicle) Target() *entity.Sign   { return v.target }

func modelFor(t core.VehicleType) string {
	switch t {
	case core.VehicleTypeFixedWing:
		return "fixed_wing.glb"
	case core.VehicleTypeVtol:
		return "vtol.glb"
	case core.VehicleTypeRotaryWing, core.VehicleTypeCopter:
		return "copter.glb"
	default:
		return "generic.glb"
	}
}

func (v *Vehicle) describe(desc core.VehicleDescription) {
	v.description = desc
	c, ok := render.ParseCSS(desc.Color.Code())
	if !ok {
		c = render.White
	}
	v.color = c

	v.model.SetURI(modelFor(desc.VehicleType))
	v.model.SetColor(c)
	v.pylon.SetColor(c)
	v.trail.SetColor(c)
	v.home.SetLabel(desc.Name)
}

// locate moves the vehicle and its signs. It returns whether the home
// altitude changed.
func (v *Vehicle) locate(nav core.Navigation) bool {
	homeChanged := false
	if nav.Home.IsSet() && nav.Home.Frame != core.FrameRelativeToHome {
		if !v.hasHome || nav.Home.Altitude != v.homeAltitude {
			v.homeAltitude = nav.Home.Altitude
			v.hasHome = true
			homeChanged = true
		}
	}
	v.navigation = nav

	pos := spatial.ToLocal(nav.Position, v.homeAltitude)
	old := v.model.Position()
	if !old.IsZero() && !pos.IsZero() && old != pos {
		v.trail.Add(pos)
	}
	v.model.SetPosition(pos)
	v.pylon.SetPosition(pos)

	v.home.SetCommitted(spatial.ToLocal(nav.Home, v.homeAltitude))
	v.target.SetCommitted(spatial.ToLocal(nav.Target, v.homeAltitude))
	v.refreshSigns()
	return homeChanged
}

func (v *Vehicle) refreshSigns() {
	nav := v.navigation
	if nav.Target.IsSet() && nav.Home.IsSet() && nav.Target.SameLocation(nav.Home) {
		v.home.SetColor(render.Magenta)
	} else {
		v.home.SetColor(render.White)
	}

	switch v.status.Mode {
	case core.VehicleModeGuided:
		v.target.SetIcon(entity.IconTarget)
		v.target.SetVisible(true)
		v.target.SetEnabled(true)
	case core.VehicleModeLoiter:
		v.target.SetIcon(entity.IconWaypoint)
		v.target.SetVisible(true)
		v.target.SetEnabled(false)
	default:
		v.target.SetVisible(false)
		v.target.SetEnabled(false)
	}
}

func (v *Vehicle) updateStatus(status core.VehicleStatus) {
	v.status = status
	if status.IsOnline {
		v.model.SetOpacity(1)
		v.pylon.SetOpacity(1)
	} else {
		v.model.SetOpacity(offlineOpacity)
		v.pylon.SetOpacity(offlineOpacity)
	}
	v.refreshSigns()
}

func (v *Vehicle) setSelected(selected bool) {
	v.selected = selected
	if selected {
		v.model.SetSilhouette(render.White)
	} else {
		v.model.SetSilhouette(render.Gray)
	}
	v.trail.SetVisible(selected)
}

// targetFrame is the frame proposed targets are reported in.
func (v *Vehicle) targetFrame() core.Frame {
	if f := v.navigation.Target.Frame; f != core.FrameNone {
		return f
	}
	return core.FrameAboveSeaLevel
}

func (v *Vehicle) done() {
	v.home.Done()
	v.target.Done()
	v.model.Done()
	v.pylon.Done()
	v.trail.Done()
}
