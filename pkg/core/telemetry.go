// pkg/core/telemetry.go
package core

// Flight carries attitude and air data. Angles are in degrees.
type Flight struct {
	ID        string  `json:"id"`
	Timestamp int64   `json:"timestamp"`
	Pitch     float64 `json:"pitch"`
	Roll      float64 `json:"roll"`
	Yaw       float64 `json:"yaw"`

	IndicatedAirspeed float64 `json:"indicated_airspeed"`
	TrueAirspeed      float64 `json:"true_airspeed"`
	GroundSpeed       float64 `json:"ground_speed"`
	Throttle          float64 `json:"throttle"`
	AltitudeAmsl      float64 `json:"altitude_amsl"`
	Climb             float64 `json:"climb"`
}

// Navigation carries the vehicle position together with its current
// navigation target and home.
type Navigation struct {
	ID        string   `json:"id"`
	Timestamp int64    `json:"timestamp"`
	Position  Geodetic `json:"position"`
	Target    Geodetic `json:"target_position"`
	Home      Geodetic `json:"home_position"`

	DesiredPitch   float64 `json:"desired_pitch"`
	DesiredRoll    float64 `json:"desired_roll"`
	DesiredBearing float64 `json:"desired_bearing"`
	TargetBearing  float64 `json:"target_bearing"`
	WpDistance     float64 `json:"wp_distance"`
}
