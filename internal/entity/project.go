package entity

import (
	"github.com/OCAP2/gcs/internal/interaction"
	"github.com/OCAP2/gcs/internal/render"
	"github.com/OCAP2/gcs/internal/spatial"
)

// ProjectGround maps pt onto the globe surface. Only unmodified drags are
// accepted.
func ProjectGround(r render.Renderer, pt render.ScreenPoint, mod interaction.KeyModifier) (spatial.Vec3, bool) {
	if mod != interaction.ModNone {
		return spatial.Vec3{}, false
	}
	return r.PickSurface(pt)
}

// ProjectBillboard maps pt to a new position for a marker currently at from.
//
// Unmodified drags slide along the plane through from that is tangent to the
// ground. Shift drags use the vertical plane through from facing the camera
// and keep only the height change, so latitude and longitude stay fixed.
// Other modifiers are rejected.
func ProjectBillboard(r render.Renderer, from spatial.Vec3, pt render.ScreenPoint, mod interaction.KeyModifier) (spatial.Vec3, bool) {
	switch mod {
	case interaction.ModNone:
		if from.IsZero() {
			return r.PickSurface(pt)
		}
		plane := spatial.PlaneFromPointNormal(from, spatial.SurfaceNormal(from))
		return spatial.IntersectRayPlane(r.PickRay(pt), plane)

	case interaction.ModShift:
		if from.IsZero() {
			return spatial.Vec3{}, false
		}
		up := spatial.SurfaceNormal(from)
		toCamera := r.Camera().Position.Sub(from)
		facing := toCamera.Sub(up.Scale(toCamera.Dot(up)))
		if facing.Len() < 1e-6 {
			// camera straight overhead, no usable vertical plane
			return spatial.Vec3{}, false
		}
		hit, ok := spatial.IntersectRayPlane(r.PickRay(pt), spatial.PlaneFromPointNormal(from, facing))
		if !ok {
			return spatial.Vec3{}, false
		}
		return from.Add(up.Scale(hit.Sub(from).Dot(up))), true

	default:
		return spatial.Vec3{}, false
	}
}
