package entity

// Icon names understood by the renderer.
const (
	IconHome     = "home"
	IconTarget   = "target"
	IconWaypoint = "wpt"
	IconTakeoff  = "takeoff"
	IconLanding  = "landing"
)
