// Package vehicles keeps one map entity per vehicle in step with the
// authoritative vehicle list.
package vehicles

import (
	"log/slog"

	"github.com/OCAP2/gcs/internal/cache"
	"github.com/OCAP2/gcs/internal/entity"
	"github.com/OCAP2/gcs/internal/render"
	"github.com/OCAP2/gcs/internal/spatial"
	"github.com/OCAP2/gcs/internal/terrain"
	"github.com/OCAP2/gcs/pkg/core"
)

// Dependencies holds everything the engine draws through and reports to.
type Dependencies struct {
	Renderer    render.Renderer
	Registry    entity.Registry
	Terrain     terrain.Sampler
	TrailLength int
	Logger      *slog.Logger

	// Propose receives home and target positions dragged by the operator.
	Propose func(core.Proposal)
	// HomeAltitudeChanged is called when a vehicle reports a new home
	// altitude.
	HomeAltitudeChanged func(vehicleID string, altitude float64)
}

// Engine owns the vehicle entities. Call it from the event loop only.
type Engine struct {
	deps     Dependencies
	logger   *slog.Logger
	vehicles *cache.Store[string, *Vehicle]
	selected string
}

func New(deps Dependencies) *Engine {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.TrailLength <= 0 {
		deps.TrailLength = entity.DefaultTrailLength
	}
	return &Engine{
		deps:     deps,
		logger:   logger.With("component", "vehicles"),
		vehicles: cache.New[string, *Vehicle](),
	}
}

// Upsert creates the vehicle entity if needed and applies the description.
func (e *Engine) Upsert(desc core.VehicleDescription) {
	if desc.ID == "" {
		e.logger.Debug("skipping vehicle without id")
		return
	}
	v, ok := e.vehicles.Get(desc.ID)
	if !ok {
		v = e.create(desc.ID)
		e.vehicles.Set(desc.ID, v)
		e.logger.Debug("vehicle added", "vehicle", desc.ID)
	}
	v.describe(desc)
}

func (e *Engine) create(id string) *Vehicle {
	r := e.deps.Renderer
	v := &Vehicle{
		id:     id,
		color:  render.White,
		model:  entity.NewModel(r, modelFor(core.VehicleTypeUnknown)),
		pylon:  entity.NewPylon(r, e.deps.Terrain),
		trail:  entity.NewTrail(r, e.deps.TrailLength),
		home:   entity.NewSign(r, e.deps.Registry, e.deps.Terrain, entity.IconHome),
		target: entity.NewSign(r, e.deps.Registry, e.deps.Terrain, entity.IconTarget),
	}
	v.target.SetColor(render.Magenta)
	v.setSelected(id == e.selected)
	v.refreshSigns()

	v.home.OnProposed(func(p spatial.Vec3) { e.proposeHome(id, p) })
	v.target.OnProposed(func(p spatial.Vec3) { e.proposeTarget(id, p) })
	return v
}

// Remove releases the vehicle entity.
func (e *Engine) Remove(id string) {
	v, ok := e.vehicles.Delete(id)
	if !ok {
		return
	}
	v.done()
	if e.selected == id {
		e.selected = ""
	}
	e.logger.Debug("vehicle removed", "vehicle", id)
}

// UpdatePosition applies a navigation sample. The trail grows by one point
// whenever the drawn position moves from one set position to another.
func (e *Engine) UpdatePosition(id string, nav core.Navigation) {
	v, ok := e.vehicles.Get(id)
	if !ok {
		e.logger.Debug("navigation for unknown vehicle", "vehicle", id)
		return
	}
	if v.locate(nav) && e.deps.HomeAltitudeChanged != nil {
		e.deps.HomeAltitudeChanged(id, v.homeAltitude)
	}
}

// UpdateAttitude orients the vehicle model.
func (e *Engine) UpdateAttitude(id string, flight core.Flight) {
	v, ok := e.vehicles.Get(id)
	if !ok {
		return
	}
	v.model.SetAttitude(flight.Yaw, flight.Pitch, flight.Roll)
}

// UpdateStatus applies the vehicle mode and liveness.
func (e *Engine) UpdateStatus(status core.VehicleStatus) {
	v, ok := e.vehicles.Get(status.ID)
	if !ok {
		e.logger.Debug("status for unknown vehicle", "vehicle", status.ID)
		return
	}
	v.updateStatus(status)
}

// SetSelected highlights one vehicle and shows its trail. An empty id clears
// the selection; an unknown id is kept and applies once that vehicle appears.
func (e *Engine) SetSelected(id string) {
	e.selected = id
	e.vehicles.Range(func(key string, v *Vehicle) bool {
		v.setSelected(key == id)
		return true
	})
}

// Selected returns the selected vehicle id, or "".
func (e *Engine) Selected() string { return e.selected }

// CancelProposal drops the pending marker of a home or target proposal that
// will not be applied.
func (e *Engine) CancelProposal(p core.Proposal) {
	switch p := p.(type) {
	case core.HomeProposed:
		if v, ok := e.vehicles.Get(p.VehicleID); ok {
			v.home.CancelPending()
		}
	case core.TargetProposed:
		if v, ok := e.vehicles.Get(p.VehicleID); ok {
			v.target.CancelPending()
		}
	}
}

func (e *Engine) Vehicle(id string) (*Vehicle, bool) { return e.vehicles.Get(id) }
func (e *Engine) IDs() []string                      { return e.vehicles.Keys() }
func (e *Engine) Len() int                           { return e.vehicles.Len() }

// Done releases every vehicle.
func (e *Engine) Done() {
	for _, v := range e.vehicles.Reset() {
		v.done()
	}
	e.selected = ""
}

func (e *Engine) proposeHome(id string, p spatial.Vec3) {
	if _, ok := e.vehicles.Get(id); !ok {
		return
	}
	e.propose(core.HomeProposed{
		VehicleID: id,
		Position:  spatial.ToGeodetic(p, core.FrameAboveSeaLevel, 0),
	})
}

func (e *Engine) proposeTarget(id string, p spatial.Vec3) {
	v, ok := e.vehicles.Get(id)
	if !ok {
		return
	}
	e.propose(core.TargetProposed{
		VehicleID: id,
		Position:  spatial.ToGeodetic(p, v.targetFrame(), v.homeAltitude),
	})
}

func (e *Engine) propose(p core.Proposal) {
	e.logger.Debug("position proposed", "key", p.Key())
	if e.deps.Propose != nil {
		e.deps.Propose(p)
	}
}
