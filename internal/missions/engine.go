// Package missions keeps one drawn route per mission in step with the
// authoritative mission list.
package missions

import (
	"log/slog"
	"slices"

	"github.com/brunoga/deep"

	"github.com/OCAP2/gcs/internal/cache"
	"github.com/OCAP2/gcs/internal/entity"
	"github.com/OCAP2/gcs/internal/render"
	"github.com/OCAP2/gcs/internal/terrain"
	"github.com/OCAP2/gcs/pkg/core"
)

// Dependencies holds everything the engine draws through and reports to.
type Dependencies struct {
	Renderer render.Renderer
	Registry entity.Registry
	Terrain  terrain.Sampler
	Logger   *slog.Logger

	// Propose receives route items dragged by the operator.
	Propose func(core.Proposal)
}

type entry struct {
	mission core.Mission
	route   *Route
}

// Engine owns the mission routes. Call it from the event loop only.
type Engine struct {
	deps     Dependencies
	logger   *slog.Logger
	missions *cache.Store[string, *entry]
	selected string

	// homeAltitudes caches the last home altitude per vehicle, so missions
	// created later start from it.
	homeAltitudes map[string]float64

	onActivated []func(missionID string, index int)
}

func New(deps Dependencies) *Engine {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		deps:          deps,
		logger:        logger.With("component", "missions"),
		missions:      cache.New[string, *entry](),
		homeAltitudes: make(map[string]float64),
	}
}

// Upsert creates the mission route if needed and reconciles it against the
// mission.
func (e *Engine) Upsert(m core.Mission) {
	if m.ID == "" {
		e.logger.Debug("skipping mission without id")
		return
	}
	en, ok := e.missions.Get(m.ID)
	if !ok {
		en = &entry{route: e.newRoute(m.ID)}
		e.missions.Set(m.ID, en)
		e.logger.Debug("mission added", "mission", m.ID, "vehicle", m.VehicleID)
	}
	en.mission = deep.MustCopy(m)
	en.mission.Route.ID = m.ID

	if alt, ok := e.homeAltitudes[m.VehicleID]; ok {
		en.route.SetHomeAltitude(alt)
	}
	en.route.Update(m.Route.Items)
	en.route.UpdateProgress(m.Status.Progress)
	en.route.SetDimmed(e.selected != "" && e.selected != m.ID)
}

func (e *Engine) newRoute(id string) *Route {
	r := newRoute(id, e.deps.Renderer, e.deps.Registry, e.deps.Terrain)
	r.onProposed = func(index int, position core.Geodetic) {
		p := core.RouteItemProposed{MissionID: id, Index: index, Position: position}
		if en, ok := e.missions.Get(id); ok && index < len(en.mission.Route.Items) {
			p.Item = deep.MustCopy(en.mission.Route.Items[index])
		}
		p.Item.Position = &position
		e.logger.Debug("position proposed", "key", p.Key())
		if e.deps.Propose != nil {
			e.deps.Propose(p)
		}
	}
	r.onActivated = func(index int) {
		e.logger.Debug("route item activated", "mission", id, "index", index)
		for _, fn := range e.onActivated {
			fn(id, index)
		}
	}
	return r
}

// OnActivated is called when the operator clicks a route item, with its
// index at click time.
func (e *Engine) OnActivated(fn func(missionID string, index int)) {
	e.onActivated = append(e.onActivated, fn)
}

// Remove releases the mission route.
func (e *Engine) Remove(id string) {
	en, ok := e.missions.Delete(id)
	if !ok {
		return
	}
	en.route.Done()
	if e.selected == id {
		e.selected = ""
		e.applySelection()
	}
	e.logger.Debug("mission removed", "mission", id)
}

// UpdateRoute reconciles a route. The route id is the mission id.
func (e *Engine) UpdateRoute(route core.MissionRoute) {
	en, ok := e.missions.Get(route.ID)
	if !ok {
		e.logger.Debug("route for unknown mission", "mission", route.ID)
		return
	}
	en.mission.Route = deep.MustCopy(route)
	en.route.Update(route.Items)
	en.route.UpdateProgress(en.mission.Status.Progress)
}

// UpsertRouteItem replaces the item at index, or appends it when index is the
// route length.
func (e *Engine) UpsertRouteItem(id string, index int, item core.MissionRouteItem) {
	en, ok := e.missions.Get(id)
	if !ok {
		e.logger.Debug("route item for unknown mission", "mission", id)
		return
	}
	items := en.mission.Route.Items
	switch {
	case index >= 0 && index < len(items):
		items[index] = deep.MustCopy(item)
		en.route.ReplaceAt(index, item)
	case index == len(items):
		en.mission.Route.Items = append(items, deep.MustCopy(item))
		en.route.InsertAt(index, item)
	default:
		e.logger.Debug("route item index out of range", "mission", id, "index", index, "len", len(items))
		return
	}
	en.route.UpdateProgress(en.mission.Status.Progress)
}

// RemoveRouteItem deletes the item at index.
func (e *Engine) RemoveRouteItem(id string, index int) {
	en, ok := e.missions.Get(id)
	if !ok {
		return
	}
	if !en.route.DeleteAt(index) {
		e.logger.Debug("route item index out of range", "mission", id, "index", index)
		return
	}
	en.mission.Route.Items = slices.Delete(en.mission.Route.Items, index, index+1)
	en.route.UpdateProgress(en.mission.Status.Progress)
}

// UpdateStatus applies mission progress.
func (e *Engine) UpdateStatus(status core.MissionStatus) {
	en, ok := e.missions.Get(status.ID)
	if !ok {
		return
	}
	en.mission.Status = deep.MustCopy(status)
	en.route.UpdateProgress(status.Progress)
}

// SetVehicleHomeAltitude re-resolves the routes of the vehicle's missions.
func (e *Engine) SetVehicleHomeAltitude(vehicleID string, altitude float64) {
	e.homeAltitudes[vehicleID] = altitude
	e.missions.Range(func(_ string, en *entry) bool {
		if en.mission.VehicleID == vehicleID {
			en.route.SetHomeAltitude(altitude)
		}
		return true
	})
}

// SetSelected dims every route but the selected one. An empty or unknown id
// clears the selection.
func (e *Engine) SetSelected(id string) {
	if !e.missions.Has(id) {
		id = ""
	}
	e.selected = id
	e.applySelection()
}

func (e *Engine) applySelection() {
	e.missions.Range(func(key string, en *entry) bool {
		en.route.SetDimmed(e.selected != "" && key != e.selected)
		return true
	})
}

// Selected returns the selected mission id, or "".
func (e *Engine) Selected() string { return e.selected }

// CancelProposal drops the pending marker of a route item proposal that will
// not be applied.
func (e *Engine) CancelProposal(p core.Proposal) {
	rp, ok := p.(core.RouteItemProposed)
	if !ok {
		return
	}
	if en, ok := e.missions.Get(rp.MissionID); ok {
		en.route.CancelPending(rp.Index)
	}
}

// Mission returns a copy of the last authoritative state of a mission.
func (e *Engine) Mission(id string) (core.Mission, bool) {
	en, ok := e.missions.Get(id)
	if !ok {
		return core.Mission{}, false
	}
	return deep.MustCopy(en.mission), true
}

// Route returns the drawn route of a mission.
func (e *Engine) Route(id string) (*Route, bool) {
	en, ok := e.missions.Get(id)
	if !ok {
		return nil, false
	}
	return en.route, true
}

func (e *Engine) IDs() []string { return e.missions.Keys() }
func (e *Engine) Len() int      { return e.missions.Len() }

// Done releases every route.
func (e *Engine) Done() {
	for _, en := range e.missions.Reset() {
		en.route.Done()
	}
	e.selected = ""
}
