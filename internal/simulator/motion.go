package simulator

import (
	"math"

	"github.com/plc-visualizer/twin-editor/internal/models"
)

// advance moves an AGV along its route and returns the new center.
// Entities without a usable route are left alone.
func (s *Simulator) advance(el models.Element, routes map[string]models.Route, sim *models.SimState) (models.Point, bool) {
	if el.Type != models.DeviceTypeAGV || el.RouteID == "" {
		return models.Point{}, false
	}
	route, ok := routes[el.RouteID]
	if !ok || len(route.Points) < 2 {
		return models.Point{}, false
	}
	pts := route.Points
	n := len(pts)

	idx := mod(sim.RouteIdx, n)
	t := sim.T
	if !(t >= 0 && t < 1) {
		t = 0
	}

	// Distance already covered on the current segment plus this tick's travel.
	dist := segmentLength(pts, idx)
	pos := t*dist + s.opts.Speed*s.opts.DT
	if lap := routeLength(pts); pos >= lap {
		pos = math.Mod(pos, lap)
	}
	for pos >= dist {
		pos -= dist
		idx = (idx + 1) % n
		dist = segmentLength(pts, idx)
	}

	sim.RouteIdx = idx
	sim.T = pos / dist
	return pts[idx].Lerp(pts[(idx+1)%n], sim.T), true
}

// segmentLength is the length of the segment leaving point i, floored at 1.
func segmentLength(pts []models.Point, i int) float64 {
	return math.Max(1, pts[i].Dist(pts[(i+1)%len(pts)]))
}

// routeLength is one full lap including the closing segment.
func routeLength(pts []models.Point) float64 {
	var total float64
	for i := range pts {
		total += segmentLength(pts, i)
	}
	return total
}

func mod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}
