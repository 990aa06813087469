package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/OCAP2/gcs/internal/spatial"
	"github.com/OCAP2/gcs/pkg/core"
)

// TrackExport is the root GeoJSON structure, one feature per vehicle.
type TrackExport struct {
	Type     string         `json:"type"`
	Features []TrackFeature `json:"features"`
}

// TrackFeature is a vehicle track. The geometry is a LineString, or a Point
// when only one position was recorded.
type TrackFeature struct {
	Type       string          `json:"type"`
	Geometry   geom.Geometry   `json:"geometry"`
	Properties TrackProperties `json:"properties"`
}

type TrackProperties struct {
	VehicleID string    `json:"vehicle_id"`
	Samples   int       `json:"samples"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

// export writes the tracks to a timestamped file in the output directory
// and returns its path. Caller holds b.mu.
func (b *Backend) export() (string, error) {
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	name := "tracks_" + time.Now().Format("20060102_150405") + ".geojson"
	if b.cfg.CompressOutput {
		name += ".gz"
	}
	path := filepath.Join(b.cfg.OutputDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if err := writeExport(f, b.buildExport(), b.cfg.CompressOutput); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}

func writeExport(w io.Writer, export TrackExport, compress bool) error {
	if !compress {
		return json.NewEncoder(w).Encode(export)
	}
	gz := gzip.NewWriter(w)
	if err := json.NewEncoder(gz).Encode(export); err != nil {
		gz.Close()
		return err
	}
	return gz.Close()
}

func (b *Backend) buildExport() TrackExport {
	export := TrackExport{
		Type:     "FeatureCollection",
		Features: make([]TrackFeature, 0, len(b.tracks)),
	}
	for _, id := range b.vehicleIDs() {
		if f, ok := trackFeature(b.tracks[id]); ok {
			export.Features = append(export.Features, f)
		}
	}
	return export
}

// trackFeature builds the feature of t. Samples without a position are
// skipped; a track with none yields no feature. A vehicle that never left
// its first spot is exported as that point.
func trackFeature(t *Track) (TrackFeature, bool) {
	props := TrackProperties{VehicleID: t.VehicleID}
	positions := make([]core.Geodetic, 0, len(t.Samples))

	for _, s := range t.Samples {
		if !s.Position.IsSet() {
			continue
		}
		if len(positions) == 0 {
			props.Start = s.Time
		}
		positions = append(positions, s.Position)
		props.End = s.Time
	}
	props.Samples = len(positions)
	if props.Samples == 0 {
		return TrackFeature{}, false
	}

	if props.Samples > 1 {
		if ls, err := spatial.LineStringFromGeodetic(positions); err == nil {
			return TrackFeature{Type: "Feature", Geometry: ls.AsGeometry(), Properties: props}, true
		}
	}
	pt, err := spatial.PointFromGeodetic(positions[0])
	if err != nil {
		return TrackFeature{}, false
	}
	return TrackFeature{Type: "Feature", Geometry: pt.AsGeometry(), Properties: props}, true
}
