// Package entity holds the map primitives and the composites built from
// them. Every primitive owns exactly one renderer handle (a track with a
// length label owns two) and releases it in Done.
package entity

import (
	"slices"

	"github.com/OCAP2/gcs/internal/interaction"
	"github.com/OCAP2/gcs/internal/render"
	"github.com/OCAP2/gcs/internal/spatial"
)

// HoverScale is the size multiplier applied to hovered markers.
var HoverScale = 1.35

// Anchor is anything with a local position.
type Anchor interface {
	Position() spatial.Vec3
}

// Registry is where interactive entities register for hit-testing.
// interaction.Controller satisfies it.
type Registry interface {
	Add(i interaction.Interactable)
	Remove(i interaction.Interactable)
}

// base holds the state shared by all primitives. The zero position is the
// unset sentinel and is never drawn.
type base struct {
	renderer render.Renderer
	handle   render.Handle
	position spatial.Vec3
	color    render.Color
	opacity  float32
	visible  bool
	released bool
}

func newBase(r render.Renderer, kind render.Kind) base {
	return base{
		renderer: r,
		handle:   r.Add(kind),
		color:    render.White,
		opacity:  1,
		visible:  true,
	}
}

func (b *base) Position() spatial.Vec3 { return b.position }
func (b *base) HasPosition() bool      { return !b.position.IsZero() }
func (b *base) Handle() render.Handle  { return b.handle }
func (b *base) Color() render.Color    { return b.color }
func (b *base) Opacity() float32       { return b.opacity }
func (b *base) Released() bool         { return b.released }

// IsVisible is the requested visibility. Position-bound primitives are only
// drawn when it is set and they have a position.
func (b *base) IsVisible() bool { return b.visible }

// Matches reports whether the primitive is among the picked handles.
func (b *base) Matches(hits []render.Handle) bool {
	return slices.Contains(hits, b.handle)
}

func (b *base) tint() render.Color {
	return b.color.WithAlpha(b.color.A * b.opacity)
}

func (b *base) push(p render.Props) {
	if b.released {
		return
	}
	b.renderer.Update(b.handle, p)
}

// release removes the handle. It returns false if already released.
func (b *base) release() bool {
	if b.released {
		return false
	}
	b.released = true
	b.renderer.Remove(b.handle)
	return true
}
