package ruler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/gcs/internal/interaction"
	"github.com/OCAP2/gcs/internal/render"
	"github.com/OCAP2/gcs/internal/render/rendertest"
	"github.com/OCAP2/gcs/internal/spatial"
	"github.com/OCAP2/gcs/pkg/core"
)

type fixture struct {
	r     *rendertest.Renderer
	c     *interaction.Controller
	ruler *Ruler
	next  float64
}

func newTestRuler(t *testing.T) *fixture {
	t.Helper()
	r := rendertest.New()
	c := interaction.New(r)
	return &fixture{r: r, c: c, ruler: New(r, c)}
}

// clickAt clicks empty space that resolves to lat/lon on the ground.
func (f *fixture) clickAt(lat, lon float64) {
	f.next++
	pt := render.ScreenPoint{X: 700 + f.next, Y: 10}
	f.r.SetHits(pt)
	f.r.SetSurface(pt, spatial.ToLocal(core.Geodetic{Latitude: lat, Longitude: lon, Frame: core.FrameAboveSeaLevel}, 0))
	f.c.Move(pt, interaction.ModNone)
	f.c.Click()
}

func TestRuler_MeasuresPath(t *testing.T) {
	f := newTestRuler(t)
	var totals []float64
	f.ruler.OnChanged(func(d float64) { totals = append(totals, d) })

	f.clickAt(45, 10)
	assert.Zero(t, f.ruler.Len(), "disabled rulers ignore clicks")

	f.ruler.SetEnabled(true)
	f.clickAt(45, 10)
	f.clickAt(45.01, 10)
	f.clickAt(45.02, 10)

	require.Equal(t, 3, f.ruler.Len())
	assert.InDelta(t, 2223, f.ruler.Distance(), 5)
	assert.Equal(t, 2, f.r.Count(render.KindLabel))
	assert.InDelta(t, f.ruler.Distance(), totals[len(totals)-1], 1e-9)

	pts := f.ruler.Points()
	assert.InDelta(t, 45.02, pts[2].Latitude, 1e-9)
}

func TestRuler_ClickOnPointRemovesIt(t *testing.T) {
	f := newTestRuler(t)
	f.ruler.SetEnabled(true)
	f.clickAt(45, 10)
	f.clickAt(45.01, 10)
	f.clickAt(45.02, 10)

	middle := f.ruler.points[1]
	pt := render.ScreenPoint{X: 5, Y: 5}
	f.r.SetHits(pt, middle.Handle())
	f.c.Move(pt, interaction.ModNone)
	f.c.Click()

	require.Equal(t, 2, f.ruler.Len())
	require.Len(t, f.ruler.segments, 1)
	assert.True(t, middle.Released())
	assert.InDelta(t, 2223, f.ruler.Distance(), 5, "the neighbours are joined directly")
	assert.Equal(t, 1, f.r.Count(render.KindLabel))
	assert.Equal(t, 2, f.c.Len())
}

func TestRuler_DragUpdatesDistance(t *testing.T) {
	f := newTestRuler(t)
	f.ruler.SetEnabled(true)
	f.clickAt(45, 10)
	f.clickAt(45.01, 10)

	end := f.ruler.points[1]
	grab := render.ScreenPoint{X: 6, Y: 6}
	dest := render.ScreenPoint{X: 7, Y: 7}
	f.r.SetHits(grab, end.Handle())
	f.r.SetSurface(dest, spatial.ToLocal(core.Geodetic{Latitude: 45.02, Longitude: 10, Frame: core.FrameAboveSeaLevel}, 0))

	f.c.Down(grab, interaction.ModNone)
	f.c.Move(dest, interaction.ModNone)
	f.c.Up(dest, interaction.ModNone)

	assert.InDelta(t, 2223, f.ruler.Distance(), 5)
	assert.Equal(t, 2, f.ruler.Len(), "a drag does not add a point")
}

func TestRuler_DisableWithSinglePointClears(t *testing.T) {
	f := newTestRuler(t)
	f.ruler.SetEnabled(true)
	f.clickAt(45, 10)

	f.ruler.SetEnabled(false)
	assert.False(t, f.ruler.Enabled())
	assert.Zero(t, f.ruler.Len())
	assert.Zero(t, f.r.Len())
	assert.Zero(t, f.c.Len())
}

func TestRuler_DisableKeepsPath(t *testing.T) {
	f := newTestRuler(t)
	f.ruler.SetEnabled(true)
	f.clickAt(45, 10)
	f.clickAt(45.01, 10)

	f.ruler.SetEnabled(false)
	f.clickAt(45.02, 10)
	assert.Equal(t, 2, f.ruler.Len())

	f.ruler.Clear()
	assert.Zero(t, f.r.Len())
	assert.Zero(t, f.ruler.Distance())
}

func TestRuler_DistanceMatchesSegments(t *testing.T) {
	f := newTestRuler(t)
	f.ruler.SetEnabled(true)
	f.clickAt(45, 10)
	f.clickAt(45.01, 10)
	f.clickAt(45.01, 10.02)

	var sum float64
	for _, s := range f.ruler.segments {
		sum += s.Length()
	}
	require.Len(t, f.ruler.segments, 2)
	assert.InDelta(t, sum, f.ruler.Distance(), 1e-6)
}
