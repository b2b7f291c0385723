package models

import "math"

// Point is a 2D point in canvas units.
type Point struct {
	X float64 `json:"x" yaml:"x" msgpack:"x"`
	Y float64 `json:"y" yaml:"y" msgpack:"y"`
}

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Lerp interpolates between p (t=0) and q (t=1).
func (p Point) Lerp(q Point, t float64) Point {
	return Point{X: p.X + (q.X-p.X)*t, Y: p.Y + (q.Y-p.Y)*t}
}

// Route is a named polyline that AGVs follow. Point order is traversal order.
// Closed is reserved; motion always loops back to the first point.
type Route struct {
	ID     string  `json:"id" yaml:"id" msgpack:"id"`
	Name   string  `json:"name" yaml:"name" msgpack:"name"`
	Points []Point `json:"points" yaml:"points" msgpack:"points"`
	Closed bool    `json:"closed" yaml:"closed" msgpack:"closed"`
}

// Clone returns a deep copy of the route.
func (r Route) Clone() Route {
	if r.Points != nil {
		pts := make([]Point, len(r.Points))
		copy(pts, r.Points)
		r.Points = pts
	}
	return r
}

// RoutePatch is a partial route update. A non-nil Points replaces the whole list.
type RoutePatch struct {
	Name   *string `json:"name,omitempty"`
	Points []Point `json:"points,omitempty"`
	Closed *bool   `json:"closed,omitempty"`
}

// Apply merges the patch into r.
func (p RoutePatch) Apply(r *Route) {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Points != nil {
		pts := make([]Point, len(p.Points))
		copy(pts, p.Points)
		r.Points = pts
	}
	if p.Closed != nil {
		r.Closed = *p.Closed
	}
}
