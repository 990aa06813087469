package interaction

import "github.com/OCAP2/gcs/internal/render"

// KeyModifier is the keyboard modifier held during a pointer event.
type KeyModifier int

const (
	ModNone KeyModifier = iota
	ModCtrl
	ModShift
	ModOption
)

func (m KeyModifier) String() string {
	switch m {
	case ModNone:
		return "none"
	case ModCtrl:
		return "ctrl"
	case ModShift:
		return "shift"
	case ModOption:
		return "option"
	default:
		return "unknown"
	}
}

// Interactable is anything the pointer can hover, drag or click.
//
// SetHovered and SetDragging are called only by the Controller; other code
// must go through Controller.HoverInteractable and Controller.SetDragging.
type Interactable interface {
	// Matches reports whether any of the picked handles belong to this object.
	Matches(hits []render.Handle) bool

	IsHoverable() bool
	IsDraggable() bool
	IsHovered() bool
	IsDragging() bool

	SetHovered(hovered bool)
	SetDragging(dragging bool)

	// Drag moves the object under pt. It returns false when the object does
	// not accept the motion, for example with an unsupported modifier.
	Drag(pt render.ScreenPoint, mod KeyModifier) bool
	// Click returns whether the click was handled.
	Click() bool
}
