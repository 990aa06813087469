package render

import (
	"math"
	"sort"
	"sync"

	"github.com/OCAP2/gcs/internal/spatial"
)

type object struct {
	kind  Kind
	props Props
}

// Scene is a headless Renderer. It keeps primitive state in memory and
// answers picks geometrically against the WGS84 ellipsoid. Scene is safe for
// concurrent use so status reporting can read it off the event loop.
type Scene struct {
	mu           sync.RWMutex
	next         Handle
	objects      map[Handle]*object
	camera       Camera
	cameraInputs bool
}

// NewScene creates an empty scene viewed through camera.
func NewScene(camera Camera) *Scene {
	return &Scene{
		objects:      make(map[Handle]*object),
		camera:       camera,
		cameraInputs: true,
	}
}

func (s *Scene) Add(kind Kind) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.objects[s.next] = &object{kind: kind}
	return s.next
}

func (s *Scene) Remove(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, h)
}

func (s *Scene) Update(h Handle, p Props) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.objects[h]; ok {
		p.Positions = append([]spatial.Vec3(nil), p.Positions...)
		o.props = p
	}
}

// Props returns the current state of h.
func (s *Scene) Props(h Handle) (Props, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.objects[h]
	if !ok {
		return Props{}, false
	}
	return o.props, true
}

// Len returns the number of live primitives.
func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

func (s *Scene) PickSurface(pt ScreenPoint) (spatial.Vec3, bool) {
	return spatial.IntersectEllipsoid(s.PickRay(pt), 0)
}

func (s *Scene) PickRay(pt ScreenPoint) spatial.Ray {
	return s.Camera().Ray(pt)
}

// DrillPick returns visible primitives within radius pixels of pt, nearest
// first. Polylines are hit along their segments.
func (s *Scene) DrillPick(pt ScreenPoint, radius float64) []Handle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type hit struct {
		h    Handle
		dist float64
	}
	var hits []hit
	for h, o := range s.objects {
		if !o.props.Visible {
			continue
		}
		d, ok := s.screenDistance(o, pt)
		if ok && d <= radius {
			hits = append(hits, hit{h, d})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist == hits[j].dist {
			return hits[i].h < hits[j].h
		}
		return hits[i].dist < hits[j].dist
	})

	out := make([]Handle, len(hits))
	for i, h := range hits {
		out[i] = h.h
	}
	return out
}

func (s *Scene) screenDistance(o *object, pt ScreenPoint) (float64, bool) {
	if o.kind == KindPolyline {
		best, found := math.Inf(1), false
		for i := 1; i < len(o.props.Positions); i++ {
			a, okA := s.camera.Project(o.props.Positions[i-1])
			b, okB := s.camera.Project(o.props.Positions[i])
			if !okA || !okB {
				continue
			}
			best = math.Min(best, segmentDistance(pt, a, b))
			found = true
		}
		return best, found
	}

	if o.props.Position.IsZero() {
		return 0, false
	}
	p, ok := s.camera.Project(o.props.Position)
	if !ok {
		return 0, false
	}
	return math.Hypot(p.X-pt.X, p.Y-pt.Y), true
}

func segmentDistance(p, a, b ScreenPoint) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}

func (s *Scene) Camera() Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.camera
}

func (s *Scene) SetCamera(c Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.camera = c
}

func (s *Scene) SetCameraInputs(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cameraInputs = enabled
}

// CameraInputs reports whether camera navigation is enabled.
func (s *Scene) CameraInputs() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cameraInputs
}
