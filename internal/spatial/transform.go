package spatial

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/OCAP2/gcs/pkg/core"
	"github.com/wroge/wgs84"
)

// Local coordinates are WGS84 geocentric (EPSG:4978). The zero vector is the
// Earth's centre, which no surface or airborne position maps to, so it is
// reserved as the "unset" sentinel.

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

var (
	lonLatToECEF = wgs84.EPSG().Transform(4326, 4978)
	ecefToLonLat = wgs84.EPSG().Transform(4978, 4326)
)

// ToLocal converts a geodetic position to local coordinates.
//
// FrameNone and NaN latitude/longitude return the sentinel. FrameRelativeToHome
// adds homeAltitude; the other frames use the altitude as is.
func ToLocal(g core.Geodetic, homeAltitude float64) Vec3 {
	if !g.IsSet() {
		return Vec3{}
	}

	alt := g.Altitude
	if g.Frame == core.FrameRelativeToHome {
		alt += homeAltitude
	}
	if math.IsNaN(alt) {
		alt = 0
	}

	x, y, z := lonLatToECEF(g.Longitude, g.Latitude, alt)
	return Vec3{X: x, Y: y, Z: z}
}

// ToGeodetic converts local coordinates back to a position in frame.
//
// The sentinel converts to the unset position. FrameNone is not invertible:
// the altitude reference is unknown, so it also yields the unset position.
func ToGeodetic(v Vec3, frame core.Frame, homeAltitude float64) core.Geodetic {
	if v.IsZero() || frame == core.FrameNone {
		return core.NullGeodetic()
	}

	lon, lat, alt := ecefToLonLat(v.X, v.Y, v.Z)
	if frame == core.FrameRelativeToHome {
		alt -= homeAltitude
	}
	return core.Geodetic{
		Latitude:  lat,
		Longitude: lon,
		Altitude:  alt,
		Frame:     frame,
	}
}

// WithAltitude returns the point with the same latitude and longitude as v at
// the given height above the ellipsoid.
func WithAltitude(v Vec3, alt float64) Vec3 {
	if v.IsZero() {
		return v
	}
	lon, lat, _ := ecefToLonLat(v.X, v.Y, v.Z)
	x, y, z := lonLatToECEF(lon, lat, alt)
	return Vec3{X: x, Y: y, Z: z}
}

// Cartographic returns longitude, latitude in degrees and height in metres.
func Cartographic(v Vec3) (lon, lat, alt float64) {
	return ecefToLonLat(v.X, v.Y, v.Z)
}

// PositionFromString parses a "long,lat" or "long,lat,elev" string into a
// position in the given frame.
func PositionFromString(coords string, frame core.Frame) (core.Geodetic, error) {
	coordsSplit := strings.Split(coords, ",")
	if len(coordsSplit) < 2 {
		return core.NullGeodetic(), ErrInvalidCoordinates
	}
	long, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[0]), 64)
	if err != nil {
		return core.NullGeodetic(), ErrInvalidCoordinates
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[1]), 64)
	if err != nil {
		return core.NullGeodetic(), ErrInvalidCoordinates
	}
	if lat < -90 || lat > 90 || long < -180 || long > 180 {
		return core.NullGeodetic(), ErrInvalidCoordinates
	}
	var elev float64
	if len(coordsSplit) > 2 {
		elev, err = strconv.ParseFloat(strings.TrimSpace(coordsSplit[2]), 64)
		if err != nil {
			return core.NullGeodetic(), ErrInvalidCoordinates
		}
	}
	return core.Geodetic{Latitude: lat, Longitude: long, Altitude: elev, Frame: frame}, nil
}
