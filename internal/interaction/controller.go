// Package interaction turns pointer input into hover, drag and click calls on
// map objects.
package interaction

import (
	"log/slog"
	"slices"

	"github.com/OCAP2/gcs/internal/render"
	"github.com/OCAP2/gcs/internal/spatial"
	"github.com/OCAP2/gcs/pkg/core"
)

// DefaultPickRadius is the hit-test tolerance in pixels.
const DefaultPickRadius = 25

// ClickListener receives clicks on empty map space. It returns true when it
// handled the click, which stops delivery to later listeners.
type ClickListener func(position core.Geodetic) bool

// State is the phase of the pointer state machine.
type State int

const (
	StateIdle State = iota
	StateHovering
	StateDragging
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateHovering:
		return "hovering"
	case StateDragging:
		return "dragging"
	default:
		return "unknown"
	}
}

// Snapshot is the observable state of a Controller.
type Snapshot struct {
	State   State
	Target  Interactable
	Pointer render.ScreenPoint
}

// Option configures a Controller.
type Option func(*config)

type config struct {
	pickRadius float64
	logger     *slog.Logger
}

// WithPickRadius sets the hit-test tolerance in pixels.
func WithPickRadius(px float64) Option {
	return func(c *config) {
		c.pickRadius = px
	}
}

// WithLogger sets the controller logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

type clickSubscription struct {
	id int
	fn ClickListener
}

// Controller owns the pointer session: the single hovered object and the
// single dragged object. It is not safe for concurrent use; call it from the
// event loop.
type Controller struct {
	renderer   render.Renderer
	pickRadius float64
	logger     *slog.Logger

	interactables []Interactable
	listeners     []clickSubscription
	nextListener  int

	pointer render.ScreenPoint
	hovered Interactable
	dragged Interactable

	// dragMoved is set once the dragged object accepts a motion.
	dragMoved bool
	// swallowClick drops the click that host input emits after a drag.
	swallowClick bool
}

// New creates a controller picking through r.
func New(r render.Renderer, opts ...Option) *Controller {
	cfg := config{pickRadius: DefaultPickRadius}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return &Controller{
		renderer:   r,
		pickRadius: cfg.pickRadius,
		logger:     cfg.logger,
	}
}

// Add registers i for hit-testing. Registration order breaks ties between
// objects under the same pick.
func (c *Controller) Add(i Interactable) {
	if slices.Contains(c.interactables, i) {
		return
	}
	c.interactables = append(c.interactables, i)
}

// Remove unregisters i, clearing hover and drag if they point at it.
func (c *Controller) Remove(i Interactable) {
	idx := slices.Index(c.interactables, i)
	if idx < 0 {
		return
	}
	c.interactables = slices.Delete(c.interactables, idx, idx+1)

	if c.dragged == i {
		c.SetDragging(nil)
	}
	if c.hovered == i {
		i.SetHovered(false)
		c.hovered = nil
	}
}

// Len returns the number of registered interactables.
func (c *Controller) Len() int {
	return len(c.interactables)
}

// SubscribeClick adds a listener for clicks on empty space. Listeners are
// offered a click in subscription order. The returned func unsubscribes.
func (c *Controller) SubscribeClick(fn ClickListener) func() {
	c.nextListener++
	id := c.nextListener
	c.listeners = append(c.listeners, clickSubscription{id: id, fn: fn})
	return func() {
		c.listeners = slices.DeleteFunc(c.listeners, func(s clickSubscription) bool {
			return s.id == id
		})
	}
}

// Move handles a pointer move.
func (c *Controller) Move(pt render.ScreenPoint, mod KeyModifier) {
	c.pointer = pt
	if c.dragged != nil {
		if c.dragged.Drag(pt, mod) {
			c.dragMoved = true
		}
		return
	}
	c.HoverInteractable(c.pick(pt))
}

// Down handles a pointer press. A draggable object under the pointer starts
// a drag immediately.
func (c *Controller) Down(pt render.ScreenPoint, mod KeyModifier) {
	c.pointer = pt
	c.swallowClick = false
	hit := c.pick(pt)
	if hit != nil && hit.IsDraggable() {
		c.SetDragging(hit)
	}
}

// Up handles a pointer release.
func (c *Controller) Up(pt render.ScreenPoint, mod KeyModifier) {
	c.pointer = pt
	if c.dragged == nil {
		return
	}
	c.swallowClick = c.dragMoved
	c.SetDragging(nil)
	c.HoverInteractable(c.pick(pt))
}

// Click handles a click at the last pointer position.
func (c *Controller) Click() {
	if c.swallowClick {
		c.swallowClick = false
		return
	}
	if c.hovered != nil {
		c.hovered.Click()
		return
	}

	local, ok := c.renderer.PickSurface(c.pointer)
	if !ok {
		c.logger.Debug("click missed the surface", "x", c.pointer.X, "y", c.pointer.Y)
		return
	}
	position := spatial.ToGeodetic(local, core.FrameAboveSeaLevel, 0)

	// listeners may unsubscribe while handling
	for _, s := range slices.Clone(c.listeners) {
		if s.fn(position) {
			return
		}
	}
}

// HoverInteractable moves the hover to i. Objects that are neither hoverable
// nor draggable clear the hover. Hover is never set while dragging.
func (c *Controller) HoverInteractable(i Interactable) {
	if c.dragged != nil || c.hovered == i {
		return
	}
	if c.hovered != nil {
		c.hovered.SetHovered(false)
		c.hovered = nil
	}
	if i != nil && (i.IsHoverable() || i.IsDraggable()) {
		c.hovered = i
		i.SetHovered(true)
	}
}

// SetDragging moves the drag to i, or ends it when i is nil. Camera inputs
// are disabled for the duration of a drag.
func (c *Controller) SetDragging(i Interactable) {
	if c.dragged == i {
		return
	}
	if c.dragged != nil {
		prev := c.dragged
		c.dragged = nil
		prev.SetDragging(false)
	}
	c.dragMoved = false

	if i == nil {
		c.renderer.SetCameraInputs(true)
		return
	}

	if c.hovered != nil {
		c.hovered.SetHovered(false)
		c.hovered = nil
	}
	c.dragged = i
	i.SetDragging(true)
	c.renderer.SetCameraInputs(false)
}

// State returns the current phase and its target.
func (c *Controller) State() Snapshot {
	switch {
	case c.dragged != nil:
		return Snapshot{State: StateDragging, Target: c.dragged, Pointer: c.pointer}
	case c.hovered != nil:
		return Snapshot{State: StateHovering, Target: c.hovered, Pointer: c.pointer}
	default:
		return Snapshot{State: StateIdle, Pointer: c.pointer}
	}
}

func (c *Controller) pick(pt render.ScreenPoint) Interactable {
	hits := c.renderer.DrillPick(pt, c.pickRadius)
	if len(hits) == 0 {
		return nil
	}
	for _, i := range c.interactables {
		if i.Matches(hits) {
			return i
		}
	}
	return nil
}
