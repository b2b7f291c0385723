package models

import "time"

// LayoutInfo represents metadata about a saved layout.
type LayoutInfo struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	SavedAt      time.Time `json:"savedAt"`
	ElementCount int       `json:"elementCount"`
	RouteCount   int       `json:"routeCount"`
}
