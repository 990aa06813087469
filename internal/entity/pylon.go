package entity

import (
	"github.com/OCAP2/gcs/internal/render"
	"github.com/OCAP2/gcs/internal/spatial"
	"github.com/OCAP2/gcs/internal/terrain"
)

// Pylon is a vertical connector from a position down to the ground.
//
// Every top move issues a terrain lookup tagged with a new token. A result is
// applied only if its token is still the latest, so a slow lookup for an old
// position never overwrites a newer one. Until the ground height is known the
// connector ends at the ellipsoid.
type Pylon struct {
	base
	sampler terrain.Sampler
	width   float64

	token         uint64
	ground        spatial.Vec3
	terrainHeight float64
	hasTerrain    bool

	onTerrain []func(height float64)
}

func NewPylon(r render.Renderer, sampler terrain.Sampler) *Pylon {
	p := &Pylon{
		base:    newBase(r, render.KindPolyline),
		sampler: sampler,
		width:   1,
	}
	p.sync()
	return p
}

func (p *Pylon) sync() {
	var positions []spatial.Vec3
	if p.HasPosition() {
		positions = []spatial.Vec3{p.position, p.ground}
	}
	p.push(render.Props{
		Positions: positions,
		Color:     p.tint(),
		Visible:   p.visible && p.HasPosition(),
		Width:     p.width,
		Scale:     1,
	})
}

// SetPosition moves the top of the pylon and requests the ground height
// below it.
func (p *Pylon) SetPosition(top spatial.Vec3) {
	if top == p.position {
		return
	}
	p.token++
	p.position = top
	p.hasTerrain = false
	if !p.HasPosition() {
		p.ground = spatial.Vec3{}
		p.sync()
		return
	}

	p.ground = spatial.WithAltitude(top, 0)
	p.sync()

	if p.sampler == nil {
		return
	}
	token := p.token
	lon, lat, _ := spatial.Cartographic(top)
	p.sampler.Sample(lat, lon, func(height float64, err error) {
		if p.released || token != p.token || err != nil {
			return
		}
		p.ground = spatial.WithAltitude(top, height)
		p.terrainHeight = height
		p.hasTerrain = true
		p.sync()
		for _, fn := range p.onTerrain {
			fn(height)
		}
	})
}

// Ground returns the bottom of the pylon.
func (p *Pylon) Ground() spatial.Vec3 { return p.ground }

// TerrainHeight returns the ground height under the current top, once the
// latest lookup has completed.
func (p *Pylon) TerrainHeight() (float64, bool) {
	return p.terrainHeight, p.hasTerrain
}

// OnTerrain is called whenever a current terrain lookup completes.
func (p *Pylon) OnTerrain(fn func(height float64)) {
	p.onTerrain = append(p.onTerrain, fn)
}

func (p *Pylon) SetVisible(visible bool) {
	p.visible = visible
	p.sync()
}

func (p *Pylon) SetColor(c render.Color) {
	p.color = c
	p.sync()
}

func (p *Pylon) SetOpacity(o float32) {
	p.opacity = o
	p.sync()
}

func (p *Pylon) SetWidth(w float64) {
	p.width = w
	p.sync()
}

// Done releases the pylon. Lookups still in flight are ignored.
func (p *Pylon) Done() {
	p.release()
}
