package entity

import (
	"github.com/OCAP2/gcs/internal/interaction"
	"github.com/OCAP2/gcs/internal/render"
	"github.com/OCAP2/gcs/internal/spatial"
)

type projector func(r render.Renderer, from spatial.Vec3, pt render.ScreenPoint, mod interaction.KeyModifier) (spatial.Vec3, bool)

func groundProjector(r render.Renderer, _ spatial.Vec3, pt render.ScreenPoint, mod interaction.KeyModifier) (spatial.Vec3, bool) {
	return ProjectGround(r, pt, mod)
}

// Point is a marker that can be hovered, dragged and clicked. Register it
// with the interaction controller to make it respond to the pointer.
type Point struct {
	base
	project projector

	icon      string
	label     string
	scale     float64
	hoverable bool
	draggable bool
	hovered   bool
	dragging  bool
	moved     bool

	onDragging []func(spatial.Vec3)
	onDragged  []func(spatial.Vec3)
	onClick    []func() bool
}

// NewBillboard creates an icon marker. Its drags follow ProjectBillboard.
func NewBillboard(r render.Renderer, icon string) *Point {
	p := &Point{
		base:    newBase(r, render.KindBillboard),
		project: ProjectBillboard,
		icon:    icon,
		scale:   1,
	}
	p.sync()
	return p
}

// NewGroundPoint creates a dot that is dragged along the ground.
func NewGroundPoint(r render.Renderer) *Point {
	p := &Point{
		base:    newBase(r, render.KindPoint),
		project: groundProjector,
		scale:   1,
	}
	p.sync()
	return p
}

func (p *Point) sync() {
	scale := p.scale
	if p.hovered {
		scale *= HoverScale
	}
	p.push(render.Props{
		Position: p.position,
		Color:    p.tint(),
		Visible:  p.visible && p.HasPosition(),
		Scale:    scale,
		Icon:     p.icon,
		Label:    p.label,
	})
}

// SetPosition moves the point. The zero vector hides it.
func (p *Point) SetPosition(v spatial.Vec3) {
	p.position = v
	p.sync()
}

func (p *Point) SetVisible(visible bool) {
	p.visible = visible
	p.sync()
}

func (p *Point) SetColor(c render.Color) {
	p.color = c
	p.sync()
}

func (p *Point) SetOpacity(o float32) {
	p.opacity = o
	p.sync()
}

func (p *Point) SetIcon(icon string) {
	p.icon = icon
	p.sync()
}

func (p *Point) SetLabel(label string) {
	p.label = label
	p.sync()
}

func (p *Point) SetScale(scale float64) {
	p.scale = scale
	p.sync()
}

func (p *Point) Icon() string  { return p.icon }
func (p *Point) Label() string { return p.label }

func (p *Point) SetHoverable(hoverable bool) { p.hoverable = hoverable }
func (p *Point) SetDraggable(draggable bool) { p.draggable = draggable }

func (p *Point) IsHoverable() bool { return p.hoverable }
func (p *Point) IsDraggable() bool { return p.draggable }
func (p *Point) IsHovered() bool   { return p.hovered }
func (p *Point) IsDragging() bool  { return p.dragging }

func (p *Point) SetHovered(hovered bool) {
	p.hovered = hovered
	p.sync()
}

// SetDragging starts or ends a drag. Ending a drag that moved the point
// notifies the dragged listeners with the final position.
func (p *Point) SetDragging(dragging bool) {
	if p.dragging == dragging {
		return
	}
	p.dragging = dragging
	if dragging {
		p.moved = false
		return
	}
	if p.moved {
		p.moved = false
		for _, fn := range p.onDragged {
			fn(p.position)
		}
	}
}

func (p *Point) Drag(pt render.ScreenPoint, mod interaction.KeyModifier) bool {
	if !p.draggable || !p.dragging || p.released {
		return false
	}
	v, ok := p.project(p.renderer, p.position, pt, mod)
	if !ok {
		return false
	}
	p.position = v
	p.moved = true
	p.sync()
	for _, fn := range p.onDragging {
		fn(v)
	}
	return true
}

func (p *Point) Click() bool {
	for _, fn := range p.onClick {
		if fn() {
			return true
		}
	}
	return false
}

// OnDragging is called on every accepted drag motion.
func (p *Point) OnDragging(fn func(spatial.Vec3)) { p.onDragging = append(p.onDragging, fn) }

// OnDragged is called once when a drag that moved the point ends.
func (p *Point) OnDragged(fn func(spatial.Vec3)) { p.onDragged = append(p.onDragged, fn) }

// OnClick listeners are tried in order until one returns true.
func (p *Point) OnClick(fn func() bool) { p.onClick = append(p.onClick, fn) }

// Done releases the point. It is safe to call more than once.
func (p *Point) Done() {
	p.release()
}

var _ interaction.Interactable = (*Point)(nil)
