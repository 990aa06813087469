package entity

import (
	"math"

	"github.com/OCAP2/gcs/internal/render"
	"github.com/OCAP2/gcs/internal/spatial"
)

// Model is a 3-D vehicle model.
type Model struct {
	base
	uri        string
	scale      float64
	silhouette render.Color
	heading    float64
	pitch      float64
	roll       float64
}

func NewModel(r render.Renderer, uri string) *Model {
	m := &Model{
		base:       newBase(r, render.KindModel),
		uri:        uri,
		scale:      1,
		silhouette: render.Transparent,
	}
	m.sync()
	return m
}

func (m *Model) sync() {
	m.push(render.Props{
		Position:   m.position,
		Color:      m.tint(),
		Visible:    m.visible && m.HasPosition(),
		Scale:      m.scale,
		Model:      m.uri,
		Silhouette: m.silhouette,
		Heading:    m.heading,
		Pitch:      m.pitch,
		Roll:       m.roll,
	})
}

func (m *Model) SetPosition(v spatial.Vec3) {
	m.position = v
	m.sync()
}

func (m *Model) SetVisible(visible bool) {
	m.visible = visible
	m.sync()
}

func (m *Model) SetColor(c render.Color) {
	m.color = c
	m.sync()
}

func (m *Model) SetOpacity(o float32) {
	m.opacity = o
	m.sync()
}

func (m *Model) SetURI(uri string) {
	m.uri = uri
	m.sync()
}

func (m *Model) SetScale(scale float64) {
	m.scale = scale
	m.sync()
}

func (m *Model) SetSilhouette(c render.Color) {
	m.silhouette = c
	m.sync()
}

// SetAttitude sets yaw, pitch and roll in degrees. NaN components are
// treated as zero.
func (m *Model) SetAttitude(yaw, pitch, roll float64) {
	m.heading = orZero(yaw)
	m.pitch = orZero(pitch)
	m.roll = orZero(roll)
	m.sync()
}

func (m *Model) URI() string                 { return m.uri }
func (m *Model) Silhouette() render.Color    { return m.silhouette }
func (m *Model) Attitude() (y, p, r float64) { return m.heading, m.pitch, m.roll }

func (m *Model) Done() {
	m.release()
}

func orZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
