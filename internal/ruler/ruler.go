// Package ruler measures paths the operator clicks out on the map.
package ruler

import (
	"slices"

	"github.com/OCAP2/gcs/internal/entity"
	"github.com/OCAP2/gcs/internal/interaction"
	"github.com/OCAP2/gcs/internal/render"
	"github.com/OCAP2/gcs/internal/spatial"
	"github.com/OCAP2/gcs/pkg/core"
)

// Controller is the part of interaction.Controller the ruler needs.
type Controller interface {
	entity.Registry
	SubscribeClick(fn interaction.ClickListener) func()
}

// Ruler adds a point for every click on empty map space while enabled and
// joins consecutive points with labelled segments. Points can be dragged,
// and clicking one removes it.
type Ruler struct {
	renderer   render.Renderer
	controller Controller

	points   []*entity.Point
	segments []*entity.Track

	unsubscribe func()
	onChanged   []func(distance float64)
}

func New(r render.Renderer, c Controller) *Ruler {
	return &Ruler{renderer: r, controller: c}
}

// SetEnabled starts or stops taking clicks. Disabling with a single point
// clears it, since one point measures nothing.
func (r *Ruler) SetEnabled(enabled bool) {
	if enabled == r.Enabled() {
		return
	}
	if enabled {
		r.unsubscribe = r.controller.SubscribeClick(r.click)
		return
	}
	r.unsubscribe()
	r.unsubscribe = nil
	if len(r.points) == 1 {
		r.Clear()
	}
}

func (r *Ruler) Enabled() bool { return r.unsubscribe != nil }

// OnChanged is called with the new total whenever the path changes.
func (r *Ruler) OnChanged(fn func(distance float64)) {
	r.onChanged = append(r.onChanged, fn)
}

func (r *Ruler) click(position core.Geodetic) bool {
	v := spatial.ToLocal(position, 0)
	if v.IsZero() {
		return false
	}
	r.add(v)
	return true
}

func (r *Ruler) add(v spatial.Vec3) {
	p := entity.NewGroundPoint(r.renderer)
	p.SetColor(render.Gold)
	p.SetPosition(v)
	p.SetDraggable(true)
	p.OnDragging(func(spatial.Vec3) { r.refresh() })
	p.OnClick(func() bool {
		r.remove(p)
		return true
	})
	r.controller.Add(p)

	if n := len(r.points); n > 0 {
		r.segments = append(r.segments, r.newSegment(r.points[n-1], p))
	}
	r.points = append(r.points, p)
	r.refresh()
}

func (r *Ruler) newSegment(from, to *entity.Point) *entity.Track {
	t := entity.NewTrack(r.renderer, from, to)
	t.SetColor(render.Gold)
	t.ShowLength(true)
	return t
}

func (r *Ruler) remove(p *entity.Point) {
	idx := slices.Index(r.points, p)
	if idx < 0 {
		return
	}
	n := len(r.points)
	r.controller.Remove(p)
	p.Done()
	r.points = slices.Delete(r.points, idx, idx+1)

	switch {
	case n == 1:
	case idx == 0:
		r.segments[0].Done()
		r.segments = slices.Delete(r.segments, 0, 1)
	case idx == n-1:
		r.segments[n-2].Done()
		r.segments = r.segments[:n-2]
	default:
		r.segments[idx-1].Done()
		r.segments[idx].Done()
		r.segments = slices.Replace(r.segments, idx-1, idx+1,
			r.newSegment(r.points[idx-1], r.points[idx]),
		)
	}
	r.refresh()
}

func (r *Ruler) refresh() {
	for _, s := range r.segments {
		s.Refresh()
	}
	d := r.Distance()
	for _, fn := range r.onChanged {
		fn(d)
	}
}

// Distance returns the path length in metres.
func (r *Ruler) Distance() float64 {
	path := make([]spatial.Vec3, 0, len(r.points))
	for _, p := range r.points {
		path = append(path, p.Position())
	}
	return spatial.PathLength(path)
}

// Points returns the path vertices.
func (r *Ruler) Points() []core.Geodetic {
	out := make([]core.Geodetic, 0, len(r.points))
	for _, p := range r.points {
		out = append(out, spatial.ToGeodetic(p.Position(), core.FrameAboveSeaLevel, 0))
	}
	return out
}

func (r *Ruler) Len() int { return len(r.points) }

// Clear removes every point and segment.
func (r *Ruler) Clear() {
	for _, s := range r.segments {
		s.Done()
	}
	for _, p := range r.points {
		r.controller.Remove(p)
		p.Done()
	}
	r.points, r.segments = nil, nil
	r.refresh()
}
