package entity

import (
	"github.com/OCAP2/gcs/internal/render"
	"github.com/OCAP2/gcs/internal/spatial"
)

// Circle is a ground ellipse of fixed width around a centre. It is display
// only and never registered for hit-testing.
type Circle struct {
	base
	radius float64
}

func NewCircle(r render.Renderer) *Circle {
	c := &Circle{base: newBase(r, render.KindEllipse)}
	c.sync()
	return c
}

func (c *Circle) sync() {
	c.push(render.Props{
		Position: c.position,
		Color:    c.tint(),
		Visible:  c.visible && c.HasPosition() && c.radius > 0,
		Radius:   c.radius,
		Width:    1,
		Scale:    1,
	})
}

func (c *Circle) SetPosition(v spatial.Vec3) {
	c.position = v
	c.sync()
}

// SetRadius sets the radius in metres. Non-positive radii hide the circle.
func (c *Circle) SetRadius(radius float64) {
	c.radius = radius
	c.sync()
}

func (c *Circle) Radius() float64 { return c.radius }

func (c *Circle) SetOpacity(o float32) {
	c.opacity = o
	c.sync()
}

func (c *Circle) Done() {
	c.release()
}
