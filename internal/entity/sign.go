package entity

import (
	"github.com/OCAP2/gcs/internal/interaction"
	"github.com/OCAP2/gcs/internal/render"
	"github.com/OCAP2/gcs/internal/spatial"
	"github.com/OCAP2/gcs/internal/terrain"
)

// ReconcileTolerance is how close, in metres, a committed position must come
// to a pending one for the proposal to count as accepted.
const ReconcileTolerance = 0.5

const (
	pendingIconOpacity = 0.5
	ghostOpacity       = 0.75
)

// Sign is a draggable icon on a pylon with a ghost marker for the
// uncommitted position.
//
// The committed position is authoritative and only changes through
// SetCommitted. Dragging moves the ghost and dims the icon. When a drag that
// moved ends, the ghost position becomes pending and is proposed once. The
// ghost stays up until a committed position within ReconcileTolerance of it
// arrives, or CancelPending is called.
type Sign struct {
	renderer render.Renderer
	registry Registry

	icon  *Point
	ghost *Point
	pylon *Pylon

	committed    spatial.Vec3
	deferred     spatial.Vec3
	hasDeferred  bool
	pending      spatial.Vec3
	hasPending   bool
	visible      bool
	enabled      bool
	dragging     bool
	moved        bool
	released     bool
	onProposed   []func(spatial.Vec3)
	onClickFuncs []func() bool
}

// NewSign creates a sign and registers it with reg, which may be nil for a
// sign that never takes pointer input.
func NewSign(r render.Renderer, reg Registry, sampler terrain.Sampler, icon string) *Sign {
	s := &Sign{
		renderer: r,
		registry: reg,
		icon:     NewBillboard(r, icon),
		ghost:    NewBillboard(r, icon),
		pylon:    NewPylon(r, sampler),
		visible:  true,
		enabled:  true,
	}
	s.ghost.SetOpacity(ghostOpacity)
	s.refresh()
	if reg != nil {
		reg.Add(s)
	}
	return s
}

func (s *Sign) refresh() {
	if s.released {
		return
	}
	inFlight := s.dragging || s.hasPending
	if !s.dragging && s.hasPending {
		s.ghost.SetPosition(s.pending)
	}
	s.ghost.SetVisible(s.visible && inFlight)

	if inFlight {
		s.icon.SetOpacity(pendingIconOpacity)
	} else {
		s.icon.SetOpacity(1)
	}
	s.icon.SetVisible(s.visible)
	s.pylon.SetVisible(s.visible)
}

// SetCommitted sets the authoritative position. During a drag the update is
// held back until the drag ends.
func (s *Sign) SetCommitted(v spatial.Vec3) {
	if s.dragging {
		s.deferred = v
		s.hasDeferred = true
		return
	}
	s.applyCommitted(v)
}

func (s *Sign) applyCommitted(v spatial.Vec3) {
	s.committed = v
	s.icon.SetPosition(v)
	s.pylon.SetPosition(v)
	if s.hasPending && !v.IsZero() && spatial.Distance(s.pending, v) <= ReconcileTolerance {
		s.hasPending = false
	}
	s.refresh()
}

// Committed returns the authoritative position.
func (s *Sign) Committed() spatial.Vec3 { return s.committed }

// Position is the committed position, so a sign can anchor a track.
func (s *Sign) Position() spatial.Vec3 { return s.committed }

// Pending returns the proposed position awaiting confirmation.
func (s *Sign) Pending() (spatial.Vec3, bool) { return s.pending, s.hasPending }

// CancelPending drops the proposal, for example when it was rejected.
func (s *Sign) CancelPending() {
	if !s.hasPending {
		return
	}
	s.hasPending = false
	s.refresh()
}

// SetEnabled controls whether the sign can be dragged.
func (s *Sign) SetEnabled(enabled bool) { s.enabled = enabled }

func (s *Sign) IsEnabled() bool { return s.enabled }

func (s *Sign) SetVisible(visible bool) {
	s.visible = visible
	s.refresh()
}

func (s *Sign) IsVisible() bool { return s.visible }

func (s *Sign) SetIcon(icon string) {
	s.icon.SetIcon(icon)
	s.ghost.SetIcon(icon)
}

func (s *Sign) SetLabel(label string) { s.icon.SetLabel(label) }

func (s *Sign) SetColor(c render.Color) {
	s.icon.SetColor(c)
	s.ghost.SetColor(c)
	s.pylon.SetColor(c)
}

func (s *Sign) Icon() *Point   { return s.icon }
func (s *Sign) Ghost() *Point  { return s.ghost }
func (s *Sign) Pylon() *Pylon  { return s.pylon }
func (s *Sign) Released() bool { return s.released }

// OnProposed is called once per completed drag with the new position.
func (s *Sign) OnProposed(fn func(spatial.Vec3)) { s.onProposed = append(s.onProposed, fn) }

// OnClick listeners are tried in order until one returns true.
func (s *Sign) OnClick(fn func() bool) { s.onClickFuncs = append(s.onClickFuncs, fn) }

func (s *Sign) Matches(hits []render.Handle) bool {
	return s.icon.Matches(hits) || s.ghost.Matches(hits)
}

func (s *Sign) IsHoverable() bool { return s.visible }
func (s *Sign) IsDraggable() bool { return s.visible && s.enabled }
func (s *Sign) IsHovered() bool   { return s.icon.IsHovered() }
func (s *Sign) IsDragging() bool  { return s.dragging }

func (s *Sign) SetHovered(hovered bool) { s.icon.SetHovered(hovered) }

func (s *Sign) SetDragging(dragging bool) {
	if s.dragging == dragging {
		return
	}
	s.dragging = dragging
	if dragging {
		s.moved = false
		start := s.committed
		if s.hasPending {
			start = s.pending
		}
		s.ghost.SetPosition(start)
		s.refresh()
		return
	}

	if s.moved {
		s.moved = false
		s.pending = s.ghost.Position()
		s.hasPending = true
		for _, fn := range s.onProposed {
			fn(s.pending)
		}
	}
	if s.hasDeferred {
		s.hasDeferred = false
		s.applyCommitted(s.deferred)
		return
	}
	s.refresh()
}

func (s *Sign) Drag(pt render.ScreenPoint, mod interaction.KeyModifier) bool {
	if !s.dragging || !s.enabled || s.released {
		return false
	}
	v, ok := ProjectBillboard(s.renderer, s.ghost.Position(), pt, mod)
	if !ok {
		return false
	}
	s.ghost.SetPosition(v)
	s.moved = true
	return true
}

func (s *Sign) Click() bool {
	for _, fn := range s.onClickFuncs {
		if fn() {
			return true
		}
	}
	return false
}

// Done unregisters the sign and releases its primitives.
func (s *Sign) Done() {
	if s.released {
		return
	}
	// a drag cut short by removal proposes nothing
	s.moved = false
	if s.registry != nil {
		s.registry.Remove(s)
	}
	s.released = true
	s.icon.Done()
	s.ghost.Done()
	s.pylon.Done()
}

var _ interaction.Interactable = (*Sign)(nil)
