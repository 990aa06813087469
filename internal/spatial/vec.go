package spatial

import "math"

// WGS84 ellipsoid radii in metres.
const (
	EquatorialRadius = 6378137.0
	PolarRadius      = 6356752.314245179
)

// Vec3 is a point or direction in Earth-centred Earth-fixed metres.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Dot(o Vec3) float64   { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec3) Len() float64         { return math.Sqrt(v.Dot(v)) }

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

// Norm returns v scaled to unit length. The zero vector is returned as is.
func (v Vec3) Norm() Vec3 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

// IsZero reports whether v is the unset sentinel.
func (v Vec3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// Distance returns the straight-line distance between two points.
func Distance(a, b Vec3) float64 {
	return a.Sub(b).Len()
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Vec3) Vec3 {
	return a.Add(b).Scale(0.5)
}

// SurfaceNormal returns the ellipsoid normal at v, pointing outward.
func SurfaceNormal(v Vec3) Vec3 {
	const a2 = EquatorialRadius * EquatorialRadius
	const b2 = PolarRadius * PolarRadius
	return Vec3{v.X / a2, v.Y / a2, v.Z / b2}.Norm()
}

// Ray is a half line from Origin along the unit vector Dir.
type Ray struct {
	Origin Vec3
	Dir    Vec3
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Dir.Scale(t))
}

// Plane is the set of points p with Normal·p + D = 0.
type Plane struct {
	Normal Vec3
	D      float64
}

// PlaneFromPointNormal returns the plane through point with the given normal.
func PlaneFromPointNormal(point, normal Vec3) Plane {
	n := normal.Norm()
	return Plane{Normal: n, D: -n.Dot(point)}
}

// IntersectRayPlane returns where r crosses p. Rays parallel to the plane or
// pointing away from it miss.
func IntersectRayPlane(r Ray, p Plane) (Vec3, bool) {
	denom := p.Normal.Dot(r.Dir)
	if math.Abs(denom) < 1e-12 {
		return Vec3{}, false
	}
	t := -(p.Normal.Dot(r.Origin) + p.D) / denom
	if t < 0 {
		return Vec3{}, false
	}
	return r.At(t), true
}

// IntersectEllipsoid returns the nearest point where r hits the WGS84
// ellipsoid inflated by height metres.
func IntersectEllipsoid(r Ray, height float64) (Vec3, bool) {
	a := EquatorialRadius + height
	b := PolarRadius + height
	// scale to the unit sphere
	o := Vec3{r.Origin.X / a, r.Origin.Y / a, r.Origin.Z / b}
	d := Vec3{r.Dir.X / a, r.Dir.Y / a, r.Dir.Z / b}

	qa := d.Dot(d)
	qb := 2 * o.Dot(d)
	qc := o.Dot(o) - 1
	disc := qb*qb - 4*qa*qc
	if qa == 0 || disc < 0 {
		return Vec3{}, false
	}
	sq := math.Sqrt(disc)
	t := (-qb - sq) / (2 * qa)
	if t < 0 {
		t = (-qb + sq) / (2 * qa)
	}
	if t < 0 {
		return Vec3{}, false
	}
	return r.At(t), true
}
