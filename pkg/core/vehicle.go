// pkg/core/vehicle.go
package core

// VehicleType is the airframe family.
type VehicleType string

const (
	VehicleTypeUnknown    VehicleType = "Unknown"
	VehicleTypeAuto       VehicleType = "Auto"
	VehicleTypeFixedWing  VehicleType = "FixedWing"
	VehicleTypeVtol       VehicleType = "Vtol"
	VehicleTypeRotaryWing VehicleType = "RotaryWing"
	VehicleTypeCopter     VehicleType = "Copter"
)

// VehicleMode is the autopilot mode reported by a vehicle.
type VehicleMode string

const (
	VehicleModeNone   VehicleMode = "None"
	VehicleModeManual VehicleMode = "Manual"
	VehicleModeAuto   VehicleMode = "Auto"
	VehicleModeGuided VehicleMode = "Guided"
	VehicleModeLoiter VehicleMode = "Loiter"
	VehicleModeRTL    VehicleMode = "RTL"
)

// EntityColor is a named palette entry used to tint vehicles and their markers.
type EntityColor string

const (
	ColorSlate   EntityColor = "Slate"
	ColorEmerald EntityColor = "Emerald"
	ColorTeal    EntityColor = "Teal"
	ColorCyan    EntityColor = "Cyan"
	ColorSky     EntityColor = "Sky"
	ColorBlue    EntityColor = "Blue"
	ColorIndigo  EntityColor = "Indigo"
	ColorViolet  EntityColor = "Violet"
)

var colorCodes = map[EntityColor]string{
	ColorSlate:   "#94a3b8",
	ColorEmerald: "#10b981",
	ColorTeal:    "#2dd4bf",
	ColorCyan:    "#22d3ee",
	ColorSky:     "#38bdf8",
	ColorBlue:    "#60a5fa",
	ColorIndigo:  "#818cf8",
	ColorViolet:  "#a78bfa",
}

// Code returns the CSS hex code for the color, or "" if unknown.
func (c EntityColor) Code() string {
	return colorCodes[c]
}

// VehicleDescription is the static part of a vehicle record.
type VehicleDescription struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	ProtocolID  string      `json:"protocol_id"`
	VehicleType VehicleType `json:"vehicle_type"`
	Color       EntityColor `json:"color"`
	Features    []string    `json:"features,omitempty"`
}

// VehicleStatus is the liveness and mode of a vehicle.
type VehicleStatus struct {
	ID       string      `json:"id"`
	IsOnline bool        `json:"is_online"`
	Mode     VehicleMode `json:"mode"`
}
