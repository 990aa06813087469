package interaction

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/gcs/internal/render"
	"github.com/OCAP2/gcs/internal/render/rendertest"
	"github.com/OCAP2/gcs/internal/spatial"
	"github.com/OCAP2/gcs/pkg/core"
)

type fakeItem struct {
	name      string
	handles   []render.Handle
	hoverable bool
	draggable bool
	onlyMod   *KeyModifier

	hovered  bool
	dragging bool
	drags    []KeyModifier
	clicks   int
}

func (f *fakeItem) Matches(hits []render.Handle) bool {
	for _, h := range f.handles {
		if slices.Contains(hits, h) {
			return true
		}
	}
	return false
}

func (f *fakeItem) IsHoverable() bool       { return f.hoverable }
func (f *fakeItem) IsDraggable() bool       { return f.draggable }
func (f *fakeItem) IsHovered() bool         { return f.hovered }
func (f *fakeItem) IsDragging() bool        { return f.dragging }
func (f *fakeItem) SetHovered(hovered bool) { f.hovered = hovered }
func (f *fakeItem) SetDragging(d bool)      { f.dragging = d }
func (f *fakeItem) Click() bool             { f.clicks++; return true }

func (f *fakeItem) Drag(pt render.ScreenPoint, mod KeyModifier) bool {
	if f.onlyMod != nil && *f.onlyMod != mod {
		return false
	}
	f.drags = append(f.drags, mod)
	return true
}

var (
	ptA     = render.ScreenPoint{X: 100, Y: 100}
	ptB     = render.ScreenPoint{X: 200, Y: 200}
	ptEmpty = render.ScreenPoint{X: 300, Y: 300}
)

func newTestController(t *testing.T) (*Controller, *rendertest.Renderer) {
	t.Helper()
	r := rendertest.New()
	r.SetHits(ptEmpty)
	return New(r), r
}

func TestController_HoverOnMove(t *testing.T) {
	c, r := newTestController(t)
	a := &fakeItem{name: "a", handles: []render.Handle{1}, hoverable: true}
	c.Add(a)
	r.SetHits(ptA, 1)

	c.Move(ptA, ModNone)
	assert.True(t, a.hovered)
	assert.Equal(t, StateHovering, c.State().State)
	assert.Equal(t, Interactable(a), c.State().Target)

	c.Move(ptEmpty, ModNone)
	assert.False(t, a.hovered)
	assert.Equal(t, StateIdle, c.State().State)
}

func TestController_PassiveObjectIsNotHovered(t *testing.T) {
	c, r := newTestController(t)
	a := &fakeItem{handles: []render.Handle{1}}
	c.Add(a)
	r.SetHits(ptA, 1)

	c.Move(ptA, ModNone)
	assert.False(t, a.hovered)
	assert.Equal(t, StateIdle, c.State().State)
}

func TestController_DraggableIsHoverable(t *testing.T) {
	c, r := newTestController(t)
	a := &fakeItem{handles: []render.Handle{1}, draggable: true}
	c.Add(a)
	r.SetHits(ptA, 1)

	c.Move(ptA, ModNone)
	assert.True(t, a.hovered)
}

func TestController_ClickResolvesInRegistrationOrder(t *testing.T) {
	c, r := newTestController(t)
	a := &fakeItem{name: "a", handles: []render.Handle{1}, hoverable: true}
	b := &fakeItem{name: "b", handles: []render.Handle{2}, hoverable: true}
	c.Add(a)
	c.Add(b)
	// b's primitive is nearer the pointer, registration order still wins
	r.SetHits(ptA, 2, 1)

	c.Move(ptA, ModNone)
	c.Click()

	assert.Equal(t, 1, a.clicks)
	assert.Equal(t, 0, b.clicks)
	assert.False(t, b.hovered)
}

func TestController_DragLifecycle(t *testing.T) {
	c, r := newTestController(t)
	a := &fakeItem{handles: []render.Handle{1}, draggable: true}
	c.Add(a)
	r.SetHits(ptA, 1)

	c.Move(ptA, ModNone)
	require.True(t, a.hovered)

	c.Down(ptA, ModNone)
	assert.True(t, a.dragging)
	assert.False(t, a.hovered, "hover must be cleared while dragging")
	assert.False(t, r.CameraInputs())
	assert.Equal(t, StateDragging, c.State().State)

	c.Move(ptB, ModShift)
	c.Move(ptEmpty, ModNone)
	assert.Equal(t, []KeyModifier{ModShift, ModNone}, a.drags)
	assert.False(t, a.hovered, "no hit-testing while dragging")

	r.SetHits(ptB, 1)
	c.Up(ptB, ModNone)
	assert.False(t, a.dragging)
	assert.True(t, r.CameraInputs())
	assert.True(t, a.hovered, "hover restored after drag")

	c.Click()
	assert.Equal(t, 0, a.clicks, "click after a drag is swallowed")

	c.Click()
	assert.Equal(t, 1, a.clicks)
}

func TestController_DownOnNonDraggable(t *testing.T) {
	c, r := newTestController(t)
	a := &fakeItem{handles: []render.Handle{1}, hoverable: true}
	c.Add(a)
	r.SetHits(ptA, 1)

	c.Down(ptA, ModNone)
	assert.False(t, a.dragging)
	assert.True(t, r.CameraInputs())

	c.Up(ptA, ModNone)
	assert.Equal(t, StateIdle, c.State().State)
}

func TestController_RejectedDragStillClicks(t *testing.T) {
	c, r := newTestController(t)
	shift := ModShift
	a := &fakeItem{handles: []render.Handle{1}, draggable: true, onlyMod: &shift}
	c.Add(a)
	r.SetHits(ptA, 1)

	c.Down(ptA, ModNone)
	c.Move(ptB, ModCtrl)
	assert.Empty(t, a.drags)

	c.Up(ptA, ModNone)
	c.Click()
	assert.Equal(t, 1, a.clicks)
}

func TestController_ClickOnEmptySpace(t *testing.T) {
	c, r := newTestController(t)
	target := spatial.ToLocal(core.Geodetic{Latitude: 45.001, Longitude: 10.002, Altitude: 12, Frame: core.FrameAboveSeaLevel}, 0)
	r.SetSurface(ptEmpty, target)

	var calls []string
	var got core.Geodetic
	c.SubscribeClick(func(g core.Geodetic) bool {
		calls = append(calls, "first")
		got = g
		return false
	})
	c.SubscribeClick(func(g core.Geodetic) bool {
		calls = append(calls, "second")
		return true
	})
	c.SubscribeClick(func(g core.Geodetic) bool {
		calls = append(calls, "third")
		return true
	})

	c.Move(ptEmpty, ModNone)
	c.Click()

	assert.Equal(t, []string{"first", "second"}, calls)
	assert.Equal(t, core.FrameAboveSeaLevel, got.Frame)
	assert.InDelta(t, 45.001, got.Latitude, 1e-6)
	assert.InDelta(t, 10.002, got.Longitude, 1e-6)
	assert.InDelta(t, 12, got.Altitude, 1e-3)
}

func TestController_Unsubscribe(t *testing.T) {
	c, r := newTestController(t)
	r.SetSurface(ptEmpty, spatial.ToLocal(rendertest.Origin, 0))

	calls := 0
	unsubscribe := c.SubscribeClick(func(core.Geodetic) bool { calls++; return true })
	c.Move(ptEmpty, ModNone)
	c.Click()
	unsubscribe()
	c.Click()

	assert.Equal(t, 1, calls)
}

func TestController_ClickMissDropped(t *testing.T) {
	c, r := newTestController(t)
	r.SetSurfaceMiss(ptEmpty)

	called := false
	c.SubscribeClick(func(core.Geodetic) bool { called = true; return true })
	c.Move(ptEmpty, ModNone)
	c.Click()

	assert.False(t, called)
}

func TestController_RemoveClearsSession(t *testing.T) {
	c, r := newTestController(t)
	a := &fakeItem{handles: []render.Handle{1}, draggable: true}
	b := &fakeItem{handles: []render.Handle{2}, hoverable: true}
	c.Add(a)
	c.Add(b)
	r.SetHits(ptA, 1)
	r.SetHits(ptB, 2)

	c.Down(ptA, ModNone)
	require.True(t, a.dragging)
	c.Remove(a)
	assert.False(t, a.dragging)
	assert.True(t, r.CameraInputs())
	assert.Equal(t, StateIdle, c.State().State)

	c.Move(ptB, ModNone)
	require.True(t, b.hovered)
	c.Remove(b)
	assert.False(t, b.hovered)
	assert.Equal(t, 0, c.Len())

	c.Move(ptA, ModNone)
	assert.Equal(t, StateIdle, c.State().State, "removed objects are not picked")
}

func TestController_AddIsIdempotent(t *testing.T) {
	c, _ := newTestController(t)
	a := &fakeItem{}
	c.Add(a)
	c.Add(a)
	assert.Equal(t, 1, c.Len())
}

func TestController_SetDraggingSwitchesTarget(t *testing.T) {
	c, _ := newTestController(t)
	a := &fakeItem{draggable: true}
	b := &fakeItem{draggable: true}

	c.SetDragging(a)
	c.SetDragging(b)
	assert.False(t, a.dragging)
	assert.True(t, b.dragging)

	c.HoverInteractable(a)
	assert.False(t, a.hovered, "hover is refused during a drag")
}

func TestController_ExclusivityUnderRandomInput(t *testing.T) {
	c, r := newTestController(t)
	items := make([]*fakeItem, 4)
	points := []render.ScreenPoint{ptA, ptB, ptEmpty, {X: 400, Y: 400}}
	for i := range items {
		items[i] = &fakeItem{
			handles:   []render.Handle{render.Handle(i + 1)},
			hoverable: i%2 == 0,
			draggable: i != 3,
		}
		c.Add(items[i])
	}
	r.SetHits(ptA, 1, 2)
	r.SetHits(ptB, 2, 3)
	r.SetHits(render.ScreenPoint{X: 400, Y: 400}, 4)

	rng := rand.New(rand.NewSource(7))
	for step := 0; step < 2000; step++ {
		pt := points[rng.Intn(len(points))]
		mod := KeyModifier(rng.Intn(4))
		switch rng.Intn(4) {
		case 0:
			c.Move(pt, mod)
		case 1:
			c.Down(pt, mod)
		case 2:
			c.Up(pt, mod)
		case 3:
			c.Click()
		}

		var hovered, dragging int
		for _, it := range items {
			if it.hovered {
				hovered++
			}
			if it.dragging {
				dragging++
			}
		}
		require.LessOrEqual(t, hovered, 1, "step %d", step)
		require.LessOrEqual(t, dragging, 1, "step %d", step)
		if dragging == 1 {
			require.Zero(t, hovered, "step %d: hover must be clear during drag", step)
			require.False(t, r.CameraInputs())
		} else {
			require.True(t, r.CameraInputs())
		}
	}
}
