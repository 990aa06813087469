package spatial

import (
	"fmt"

	"github.com/OCAP2/gcs/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// PointFromGeodetic converts a position into an XYZ point (lon, lat, alt).
// Unset positions become an empty point.
func PointFromGeodetic(g core.Geodetic) (geom.Point, error) {
	if !g.IsSet() {
		return geom.NewEmptyPoint(geom.DimXYZ), nil
	}
	p, err := geom.NewPoint(
		geom.Coordinates{
			XY:   geom.XY{X: g.Longitude, Y: g.Latitude},
			Z:    g.Altitude,
			Type: geom.DimXYZ,
		},
	)
	if err != nil {
		return geom.Point{}, fmt.Errorf("invalid position %v: %w", g, err)
	}
	return p, nil
}

// LineStringFromGeodetic builds an XYZ linestring through the set positions,
// skipping unset ones.
func LineStringFromGeodetic(positions []core.Geodetic) (geom.LineString, error) {
	flatCoords := make([]float64, 0, len(positions)*3)
	for _, g := range positions {
		if !g.IsSet() {
			continue
		}
		flatCoords = append(flatCoords, g.Longitude, g.Latitude, g.Altitude)
	}

	if len(flatCoords) < 6 {
		return geom.LineString{}, fmt.Errorf("linestring needs at least 2 positions, got %d", len(flatCoords)/3)
	}

	return geom.NewLineString(geom.NewSequence(flatCoords, geom.DimXYZ))
}

// PathLength returns the summed straight-line length of a local path.
func PathLength(points []Vec3) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += Distance(points[i-1], points[i])
	}
	return total
}
