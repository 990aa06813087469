package entity

import (
	"fmt"

	"github.com/OCAP2/gcs/internal/render"
	"github.com/OCAP2/gcs/internal/spatial"
)

// Track is a line segment between two anchors. It holds the anchors, not
// their positions, so Refresh picks up wherever they have moved.
type Track struct {
	base
	from, to Anchor
	width    float64

	// label is the optional distance readout at the midpoint.
	label *Label
}

func NewTrack(r render.Renderer, from, to Anchor) *Track {
	t := &Track{
		base:  newBase(r, render.KindPolyline),
		from:  from,
		to:    to,
		width: 2,
	}
	t.Refresh()
	return t
}

// Endpoints returns the anchors the track connects.
func (t *Track) Endpoints() (from, to Anchor) {
	return t.from, t.to
}

// SetEndpoints reattaches the track.
func (t *Track) SetEndpoints(from, to Anchor) {
	t.from, t.to = from, to
	t.Refresh()
}

// ShowLength adds or removes a label with the segment length.
func (t *Track) ShowLength(show bool) {
	switch {
	case show && t.label == nil:
		t.label = NewLabel(t.renderer)
	case !show && t.label != nil:
		t.label.Done()
		t.label = nil
	}
	t.Refresh()
}

// Length returns the segment length in metres, or zero if either end is
// unset.
func (t *Track) Length() float64 {
	a, b, ok := t.ends()
	if !ok {
		return 0
	}
	return spatial.Distance(a, b)
}

func (t *Track) ends() (a, b spatial.Vec3, ok bool) {
	if t.from == nil || t.to == nil {
		return a, b, false
	}
	a, b = t.from.Position(), t.to.Position()
	return a, b, !a.IsZero() && !b.IsZero()
}

// Refresh redraws the track from the anchors' current positions.
func (t *Track) Refresh() {
	a, b, ok := t.ends()
	var positions []spatial.Vec3
	if ok {
		positions = []spatial.Vec3{a, b}
	}
	t.push(render.Props{
		Positions: positions,
		Color:     t.tint(),
		Visible:   t.visible && ok,
		Width:     t.width,
		Scale:     1,
	})

	if t.label == nil {
		return
	}
	if !ok {
		t.label.SetPosition(spatial.Vec3{})
		return
	}
	t.label.SetText(FormatDistance(spatial.Distance(a, b)))
	t.label.SetPosition(spatial.Midpoint(a, b))
	t.label.SetVisible(t.visible)
}

func (t *Track) SetVisible(visible bool) {
	t.visible = visible
	t.Refresh()
}

func (t *Track) SetColor(c render.Color) {
	t.color = c
	t.Refresh()
}

func (t *Track) SetOpacity(o float32) {
	t.opacity = o
	t.Refresh()
}

func (t *Track) SetWidth(w float64) {
	t.width = w
	t.Refresh()
}

func (t *Track) Done() {
	if !t.release() {
		return
	}
	if t.label != nil {
		t.label.Done()
	}
}

// FormatDistance renders metres as "850 m" or "1.25 km".
func FormatDistance(m float64) string {
	if m < 1000 {
		return fmt.Sprintf("%.0f m", m)
	}
	return fmt.Sprintf("%.2f km", m/1000)
}

// Label is a text primitive.
type Label struct {
	base
	text string
}

func NewLabel(r render.Renderer) *Label {
	l := &Label{base: newBase(r, render.KindLabel)}
	l.sync()
	return l
}

func (l *Label) sync() {
	l.push(render.Props{
		Position: l.position,
		Color:    l.tint(),
		Visible:  l.visible && l.HasPosition() && l.text != "",
		Label:    l.text,
		Scale:    1,
	})
}

func (l *Label) SetPosition(v spatial.Vec3) {
	l.position = v
	l.sync()
}

func (l *Label) SetText(text string) {
	l.text = text
	l.sync()
}

func (l *Label) Text() string { return l.text }

func (l *Label) SetVisible(visible bool) {
	l.visible = visible
	l.sync()
}

func (l *Label) SetColor(c render.Color) {
	l.color = c
	l.sync()
}

func (l *Label) Done() {
	l.release()
}
