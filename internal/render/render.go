// Package render defines the renderer the map entities draw through, and a
// headless implementation of it.
package render

import "github.com/OCAP2/gcs/internal/spatial"

// Handle identifies a primitive owned by a renderer. Zero is never issued.
type Handle uint64

// Kind is the shape of a primitive.
type Kind int

const (
	KindPoint Kind = iota
	KindBillboard
	KindPolyline
	KindEllipse
	KindModel
	KindLabel
)

func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "point"
	case KindBillboard:
		return "billboard"
	case KindPolyline:
		return "polyline"
	case KindEllipse:
		return "ellipse"
	case KindModel:
		return "model"
	case KindLabel:
		return "label"
	default:
		return "unknown"
	}
}

// ScreenPoint is a position in window pixels, origin top-left.
type ScreenPoint struct {
	X, Y float64
}

// Props is the full mutable state of a primitive. Update replaces all of it.
type Props struct {
	Position  spatial.Vec3
	Positions []spatial.Vec3
	Color     Color
	Visible   bool
	Scale     float64
	Width     float64
	Radius    float64
	Icon      string
	Label     string

	Model      string
	Silhouette Color
	// Heading, Pitch, Roll in degrees.
	Heading, Pitch, Roll float64
}

// Renderer is the scene the entities draw into.
type Renderer interface {
	Add(kind Kind) Handle
	Remove(h Handle)
	Update(h Handle, p Props)

	// PickSurface casts the ray under pt onto the globe surface.
	PickSurface(pt ScreenPoint) (spatial.Vec3, bool)
	// PickRay returns the camera ray through pt.
	PickRay(pt ScreenPoint) spatial.Ray
	// DrillPick returns every visible primitive within radius pixels of pt.
	DrillPick(pt ScreenPoint, radius float64) []Handle

	Camera() Camera
	SetCamera(c Camera)
	SetCameraInputs(enabled bool)
}
