package entity

import (
	"github.com/OCAP2/gcs/internal/render"
	"github.com/OCAP2/gcs/internal/spatial"
)

// DefaultTrailLength is the number of points a trail keeps.
const DefaultTrailLength = 100

// Trail is a polyline through the most recent positions of something. Once
// full, adding a point drops the oldest one.
type Trail struct {
	base
	width  float64
	points []spatial.Vec3
	start  int
	count  int
}

func NewTrail(r render.Renderer, maxLength int) *Trail {
	if maxLength < 2 {
		maxLength = DefaultTrailLength
	}
	t := &Trail{
		base:   newBase(r, render.KindPolyline),
		width:  1,
		points: make([]spatial.Vec3, maxLength),
	}
	t.sync()
	return t
}

func (t *Trail) sync() {
	t.push(render.Props{
		Positions: t.Points(),
		Color:     t.tint(),
		Visible:   t.visible && t.count >= 2,
		Width:     t.width,
		Scale:     1,
	})
}

// Add appends a point. The unset position is ignored.
func (t *Trail) Add(v spatial.Vec3) {
	if v.IsZero() {
		return
	}
	end := (t.start + t.count) % len(t.points)
	t.points[end] = v
	if t.count < len(t.points) {
		t.count++
	} else {
		t.start = (t.start + 1) % len(t.points)
	}
	t.sync()
}

// Points returns the trail from oldest to newest.
func (t *Trail) Points() []spatial.Vec3 {
	out := make([]spatial.Vec3, 0, t.count)
	for i := 0; i < t.count; i++ {
		out = append(out, t.points[(t.start+i)%len(t.points)])
	}
	return out
}

func (t *Trail) Len() int    { return t.count }
func (t *Trail) MaxLen() int { return len(t.points) }

func (t *Trail) Clear() {
	t.start, t.count = 0, 0
	t.sync()
}

func (t *Trail) SetVisible(visible bool) {
	t.visible = visible
	t.sync()
}

func (t *Trail) SetColor(c render.Color) {
	t.color = c
	t.sync()
}

func (t *Trail) SetOpacity(o float32) {
	t.opacity = o
	t.sync()
}

func (t *Trail) Done() {
	t.release()
}
