package missions

import (
	"slices"
	"strconv"

	"github.com/OCAP2/gcs/internal/entity"
	"github.com/OCAP2/gcs/internal/render"
	"github.com/OCAP2/gcs/internal/spatial"
	"github.com/OCAP2/gcs/internal/terrain"
	"github.com/OCAP2/gcs/pkg/core"
)

const dimmedOpacity = 0.4

// Item is one waypoint of a route: a draggable sign with an optional loiter
// circle.
type Item struct {
	item   core.MissionRouteItem
	sign   *entity.Sign
	circle *entity.Circle
}

// Position is where the item is drawn, so items can anchor tracks.
func (i *Item) Position() spatial.Vec3 { return i.sign.Committed() }

func (i *Item) RouteItem() core.MissionRouteItem { return i.item }
func (i *Item) Sign() *entity.Sign               { return i.sign }
func (i *Item) Circle() *entity.Circle           { return i.circle }

func iconFor(t core.ItemType) string {
	switch t {
	case core.ItemTakeoff:
		return entity.IconTakeoff
	case core.ItemLanding, core.ItemLandStart:
		return entity.IconLanding
	default:
		return entity.IconWaypoint
	}
}

// frame is the frame proposals for this item are reported in.
func (i *Item) frame() core.Frame {
	if i.item.Position != nil && i.item.Position.Frame != core.FrameNone {
		return i.item.Position.Frame
	}
	return core.FrameAboveSeaLevel
}

func (i *Item) apply(item core.MissionRouteItem, homeAltitude float64) {
	i.item = item
	i.sign.SetIcon(iconFor(item.Type))
	i.locate(homeAltitude)
	i.circle.SetRadius(item.Radius)
}

func (i *Item) locate(homeAltitude float64) {
	pos := spatial.ToLocal(i.item.Geodetic(), homeAltitude)
	i.sign.SetCommitted(pos)
	i.circle.SetPosition(pos)
}

func (i *Item) done() {
	i.sign.Done()
	i.circle.Done()
}

// Route is the drawn form of a mission route: one Item per route item and a
// track between each pair of neighbours.
//
// tracks[k] always joins items[k] and items[k+1]. Structural edits rewire the
// tracks next to the edit and leave the rest alone.
type Route struct {
	missionID string
	renderer  render.Renderer
	registry  entity.Registry
	terrain   terrain.Sampler

	items  []*Item
	tracks []*entity.Track

	homeAltitude    float64
	hasHomeAltitude bool
	dimmed          bool

	onProposed  func(index int, position core.Geodetic)
	onActivated func(index int)
}

func newRoute(missionID string, r render.Renderer, reg entity.Registry, sampler terrain.Sampler) *Route {
	return &Route{
		missionID: missionID,
		renderer:  r,
		registry:  reg,
		terrain:   sampler,
	}
}

func (r *Route) MissionID() string             { return r.missionID }
func (r *Route) Items() []*Item                { return slices.Clone(r.items) }
func (r *Route) Tracks() []*entity.Track       { return slices.Clone(r.tracks) }
func (r *Route) Len() int                      { return len(r.items) }
func (r *Route) HomeAltitude() float64         { return r.homeAltitude }
func (r *Route) Item(index int) *Item          { return r.items[index] }
func (r *Route) Track(index int) *entity.Track { return r.tracks[index] }

// Update reconciles the drawn items against items. Surplus items are removed
// from the tail, missing ones appended, and then every item is refreshed in
// place.
func (r *Route) Update(items []core.MissionRouteItem) {
	for len(r.items) > len(items) {
		r.removeLast()
	}
	for len(r.items) < len(items) {
		r.appendItem()
	}
	for idx, item := range items {
		r.items[idx].apply(item, r.homeAltitude)
	}
	r.refresh()
}

// InsertAt adds item before index. An index equal to Len appends.
func (r *Route) InsertAt(index int, item core.MissionRouteItem) bool {
	if index < 0 || index > len(r.items) {
		return false
	}
	it := r.newItem()
	it.apply(item, r.homeAltitude)
	r.items = slices.Insert(r.items, index, it)

	n := len(r.items)
	switch {
	case n == 1:
	case index == 0:
		r.tracks = slices.Insert(r.tracks, 0, r.newTrack(it, r.items[1]))
	case index == n-1:
		r.tracks = append(r.tracks, r.newTrack(r.items[n-2], it))
	default:
		r.tracks[index-1].Done()
		r.tracks = slices.Replace(r.tracks, index-1, index,
			r.newTrack(r.items[index-1], it),
			r.newTrack(it, r.items[index+1]),
		)
	}
	r.refresh()
	return true
}

// DeleteAt removes the item at index. Its two tracks are replaced by one
// joining its former neighbours.
func (r *Route) DeleteAt(index int) bool {
	if index < 0 || index >= len(r.items) {
		return false
	}
	n := len(r.items)
	r.items[index].done()
	r.items = slices.Delete(r.items, index, index+1)

	switch {
	case n == 1:
	case index == 0:
		r.tracks[0].Done()
		r.tracks = slices.Delete(r.tracks, 0, 1)
	case index == n-1:
		r.tracks[n-2].Done()
		r.tracks = r.tracks[:n-2]
	default:
		r.tracks[index-1].Done()
		r.tracks[index].Done()
		r.tracks = slices.Replace(r.tracks, index-1, index+1,
			r.newTrack(r.items[index-1], r.items[index]),
		)
	}
	r.refresh()
	return true
}

// ReplaceAt refreshes one item in place.
func (r *Route) ReplaceAt(index int, item core.MissionRouteItem) bool {
	if index < 0 || index >= len(r.items) {
		return false
	}
	r.items[index].apply(item, r.homeAltitude)
	r.refreshTracksAround(index)
	return true
}

// SetHomeAltitude re-resolves items whose altitude is relative to home.
func (r *Route) SetHomeAltitude(altitude float64) {
	if r.hasHomeAltitude && r.homeAltitude == altitude {
		return
	}
	r.homeAltitude = altitude
	r.hasHomeAltitude = true
	for _, it := range r.items {
		if it.item.Position != nil && it.item.Position.Frame == core.FrameRelativeToHome {
			it.locate(altitude)
		}
	}
	r.refreshTracks()
}

// UpdateProgress colours the current item magenta and reached items
// aquamarine.
func (r *Route) UpdateProgress(progress core.MissionProgress) {
	for idx, it := range r.items {
		switch {
		case progress.Current != nil && *progress.Current == idx:
			it.sign.SetColor(render.Magenta)
		case slices.Contains(progress.Reached, idx):
			it.sign.SetColor(render.Aquamarine)
		default:
			it.sign.SetColor(render.White)
		}
	}
}

// SetDimmed fades the route lines, used for missions not selected.
func (r *Route) SetDimmed(dimmed bool) {
	r.dimmed = dimmed
	opacity := float32(1)
	if dimmed {
		opacity = dimmedOpacity
	}
	for _, t := range r.tracks {
		t.SetOpacity(opacity)
	}
	for _, it := range r.items {
		it.circle.SetOpacity(opacity)
	}
}

// CancelPending drops the proposal marker of the item at index.
func (r *Route) CancelPending(index int) {
	if index >= 0 && index < len(r.items) {
		r.items[index].sign.CancelPending()
	}
}

// Done releases every item and track.
func (r *Route) Done() {
	for _, t := range r.tracks {
		t.Done()
	}
	for _, it := range r.items {
		it.done()
	}
	r.tracks = nil
	r.items = nil
}

func (r *Route) newItem() *Item {
	it := &Item{
		sign:   entity.NewSign(r.renderer, r.registry, r.terrain, entity.IconWaypoint),
		circle: entity.NewCircle(r.renderer),
	}
	if r.dimmed {
		it.circle.SetOpacity(dimmedOpacity)
	}
	it.sign.OnProposed(func(v spatial.Vec3) {
		// the index is looked up at drag end, earlier edits may have moved it
		idx := slices.Index(r.items, it)
		if idx < 0 || r.onProposed == nil {
			return
		}
		r.onProposed(idx, spatial.ToGeodetic(v, it.frame(), r.homeAltitude))
	})
	it.sign.OnClick(func() bool {
		idx := slices.Index(r.items, it)
		if idx < 0 || r.onActivated == nil {
			return false
		}
		r.onActivated(idx)
		return true
	})
	return it
}

func (r *Route) newTrack(from, to *Item) *entity.Track {
	t := entity.NewTrack(r.renderer, from, to)
	if r.dimmed {
		t.SetOpacity(dimmedOpacity)
	}
	return t
}

func (r *Route) appendItem() {
	it := r.newItem()
	if n := len(r.items); n > 0 {
		r.tracks = append(r.tracks, r.newTrack(r.items[n-1], it))
	}
	r.items = append(r.items, it)
}

func (r *Route) removeLast() {
	n := len(r.items)
	r.items[n-1].done()
	r.items = r.items[:n-1]
	if len(r.tracks) > 0 {
		r.tracks[len(r.tracks)-1].Done()
		r.tracks = r.tracks[:len(r.tracks)-1]
	}
}

// refresh relabels the items and redraws all tracks. Labels come from list
// positions, so they are recomputed after every structural change.
func (r *Route) refresh() {
	for idx, it := range r.items {
		it.sign.SetLabel(strconv.Itoa(idx + 1))
	}
	r.refreshTracks()
}

func (r *Route) refreshTracks() {
	for _, t := range r.tracks {
		t.Refresh()
	}
}

func (r *Route) refreshTracksAround(index int) {
	if index > 0 {
		r.tracks[index-1].Refresh()
	}
	if index < len(r.tracks) {
		r.tracks[index].Refresh()
	}
}
