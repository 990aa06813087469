// Package rendertest provides a scriptable renderer for entity tests.
package rendertest

import (
	"sync"

	"github.com/OCAP2/gcs/internal/render"
	"github.com/OCAP2/gcs/internal/spatial"
	"github.com/OCAP2/gcs/pkg/core"
)

// Renderer is a render.Scene whose picks can be scripted per screen point.
// Unscripted picks fall through to the scene geometry.
type Renderer struct {
	*render.Scene

	mu      sync.Mutex
	kinds   map[render.Handle]render.Kind
	surface map[render.ScreenPoint]spatial.Vec3
	misses  map[render.ScreenPoint]bool
	hits    map[render.ScreenPoint][]render.Handle
	removed []render.Handle
}

// Origin is where the default camera looks.
var Origin = core.Geodetic{Latitude: 45, Longitude: 10, Altitude: 0, Frame: core.FrameAboveSeaLevel}

// New returns a renderer with an 800x600 camera 2 km above Origin.
func New() *Renderer {
	target := spatial.ToLocal(Origin, 0)
	above := Origin
	above.Altitude = 2000
	from := spatial.ToLocal(above, 0).Add(spatial.Vec3{X: 30, Y: 30})
	return &Renderer{
		Scene:   render.NewScene(render.LookAt(from, target, 800, 600)),
		kinds:   make(map[render.Handle]render.Kind),
		surface: make(map[render.ScreenPoint]spatial.Vec3),
		misses:  make(map[render.ScreenPoint]bool),
		hits:    make(map[render.ScreenPoint][]render.Handle),
	}
}

func (r *Renderer) Add(kind render.Kind) render.Handle {
	h := r.Scene.Add(kind)
	r.mu.Lock()
	r.kinds[h] = kind
	r.mu.Unlock()
	return h
}

func (r *Renderer) Remove(h render.Handle) {
	r.Scene.Remove(h)
	r.mu.Lock()
	delete(r.kinds, h)
	r.removed = append(r.removed, h)
	r.mu.Unlock()
}

// SetSurface scripts the surface pick at pt.
func (r *Renderer) SetSurface(pt render.ScreenPoint, v spatial.Vec3) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.surface[pt] = v
	delete(r.misses, pt)
}

// SetSurfaceMiss makes the surface pick at pt fail.
func (r *Renderer) SetSurfaceMiss(pt render.ScreenPoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.misses[pt] = true
}

// SetHits scripts the drill pick at pt.
func (r *Renderer) SetHits(pt render.ScreenPoint, hs ...render.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hits[pt] = hs
}

func (r *Renderer) PickSurface(pt render.ScreenPoint) (spatial.Vec3, bool) {
	r.mu.Lock()
	v, ok := r.surface[pt]
	miss := r.misses[pt]
	r.mu.Unlock()
	if miss {
		return spatial.Vec3{}, false
	}
	if ok {
		return v, true
	}
	return r.Scene.PickSurface(pt)
}

func (r *Renderer) DrillPick(pt render.ScreenPoint, radius float64) []render.Handle {
	r.mu.Lock()
	hs, ok := r.hits[pt]
	r.mu.Unlock()
	if ok {
		return hs
	}
	return r.Scene.DrillPick(pt, radius)
}

// Alive reports whether h has been added and not removed.
func (r *Renderer) Alive(h render.Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.kinds[h]
	return ok
}

// Visible reports whether h is alive and drawn.
func (r *Renderer) Visible(h render.Handle) bool {
	p, ok := r.Scene.Props(h)
	return ok && p.Visible
}

// Count returns the number of live primitives of kind.
func (r *Renderer) Count(kind render.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, k := range r.kinds {
		if k == kind {
			n++
		}
	}
	return n
}

// Removed returns every handle removed so far, in order.
func (r *Renderer) Removed() []render.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]render.Handle(nil), r.removed...)
}

// ScreenOf projects a local point through the current camera.
func (r *Renderer) ScreenOf(v spatial.Vec3) render.ScreenPoint {
	pt, _ := r.Camera().Project(v)
	return pt
}

var _ render.Renderer = (*Renderer)(nil)
