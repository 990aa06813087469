// pkg/core/spatial.go
package core

import (
	"fmt"
	"math"
)

// Frame is the reference an altitude is measured against.
type Frame int

const (
	// FrameNone marks a position as unset. Altitude is meaningless.
	FrameNone Frame = iota
	FrameRelativeToHome
	FrameAboveSeaLevel
	FrameAboveTerrain
)

var frameNames = map[Frame]string{
	FrameNone:           "None",
	FrameRelativeToHome: "Wgs84RelativeHome",
	FrameAboveSeaLevel:  "Wgs84AboveSeaLevel",
	FrameAboveTerrain:   "Wgs84AboveTerrain",
}

func (f Frame) String() string {
	if s, ok := frameNames[f]; ok {
		return s
	}
	return fmt.Sprintf("Frame(%d)", int(f))
}

// MarshalText encodes the frame using the backend's enum names.
func (f Frame) MarshalText() ([]byte, error) {
	s, ok := frameNames[f]
	if !ok {
		return nil, fmt.Errorf("unknown frame: %d", int(f))
	}
	return []byte(s), nil
}

// UnmarshalText decodes a frame name. Unknown names decode to FrameNone.
func (f *Frame) UnmarshalText(b []byte) error {
	for k, v := range frameNames {
		if v == string(b) {
			*f = k
			return nil
		}
	}
	*f = FrameNone
	return nil
}

// Geodetic is a WGS84 position. Latitude and Longitude are in degrees,
// Altitude in metres relative to Frame.
type Geodetic struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
	Frame     Frame   `json:"frame"`
}

// NullGeodetic returns the unset position.
func NullGeodetic() Geodetic {
	return Geodetic{Frame: FrameNone}
}

// IsSet reports whether g holds a usable position.
func (g Geodetic) IsSet() bool {
	if g.Frame == FrameNone {
		return false
	}
	return !math.IsNaN(g.Latitude) && !math.IsNaN(g.Longitude)
}

// SameLocation reports whether both positions share latitude and longitude.
func (g Geodetic) SameLocation(o Geodetic) bool {
	return g.Latitude == o.Latitude && g.Longitude == o.Longitude
}
