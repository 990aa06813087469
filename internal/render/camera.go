package render

import (
	"math"

	"github.com/OCAP2/gcs/internal/spatial"
)

// Camera is a pinhole camera in local coordinates.
type Camera struct {
	Position  spatial.Vec3
	Direction spatial.Vec3
	Up        spatial.Vec3
	// FovY is the vertical field of view in radians.
	FovY          float64
	Width, Height float64
}

// LookAt returns a camera at from, aimed at target, with up along the local
// surface normal.
func LookAt(from, target spatial.Vec3, width, height float64) Camera {
	dir := target.Sub(from).Norm()
	up := spatial.SurfaceNormal(from)
	if math.Abs(dir.Dot(up)) > 0.999 {
		// looking straight down, pick north as up
		up = spatial.Vec3{Z: 1}
		if math.Abs(dir.Dot(up)) > 0.999 {
			up = spatial.Vec3{X: 1}
		}
	}
	return Camera{
		Position:  from,
		Direction: dir,
		Up:        up,
		FovY:      math.Pi / 3,
		Width:     width,
		Height:    height,
	}
}

func (c Camera) basis() (right, up spatial.Vec3) {
	right = c.Direction.Cross(c.Up).Norm()
	up = right.Cross(c.Direction).Norm()
	return right, up
}

func (c Camera) aspect() float64 {
	if c.Height == 0 {
		return 1
	}
	return c.Width / c.Height
}

// Ray returns the ray from the camera through the pixel pt.
func (c Camera) Ray(pt ScreenPoint) spatial.Ray {
	right, up := c.basis()
	tanHalf := math.Tan(c.FovY / 2)
	x := (2*pt.X/c.Width - 1) * tanHalf * c.aspect()
	y := (1 - 2*pt.Y/c.Height) * tanHalf

	dir := c.Direction.Norm().Add(right.Scale(x)).Add(up.Scale(y)).Norm()
	return spatial.Ray{Origin: c.Position, Dir: dir}
}

// Project maps a point to pixels. Points behind the camera are not visible.
func (c Camera) Project(v spatial.Vec3) (ScreenPoint, bool) {
	right, up := c.basis()
	rel := v.Sub(c.Position)
	z := rel.Dot(c.Direction.Norm())
	if z <= 0 {
		return ScreenPoint{}, false
	}
	tanHalf := math.Tan(c.FovY / 2)
	x := rel.Dot(right) / (z * tanHalf * c.aspect())
	y := rel.Dot(up) / (z * tanHalf)
	return ScreenPoint{
		X: (x + 1) / 2 * c.Width,
		Y: (1 - y) / 2 * c.Height,
	}, true
}
