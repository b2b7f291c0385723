package models

// Status is the operational status of a device.
type Status string

const (
	StatusNormal  Status = "normal"
	StatusOffline Status = "offline"
	StatusFault   Status = "fault"
	StatusBlocked Status = "blocked"
)

// Valid reports whether s is a recognized status.
func (s Status) Valid() bool {
	switch s {
	case StatusNormal, StatusOffline, StatusFault, StatusBlocked:
		return true
	}
	return false
}

// NormalizeStatus maps unrecognized values to StatusNormal.
func NormalizeStatus(s Status) Status {
	if s.Valid() {
		return s
	}
	return StatusNormal
}

// statusColors mirrors the renderer palette so non-visual clients can color alerts.
var statusColors = map[Status]string{
	StatusNormal:  "#22c55e",
	StatusOffline: "#9ca3af",
	StatusFault:   "#ef4444",
	StatusBlocked: "#f59e0b",
}

// Color returns the display color of a status.
func (s Status) Color() string {
	return statusColors[NormalizeStatus(s)]
}
