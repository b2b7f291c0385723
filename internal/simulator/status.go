package simulator

import "github.com/plc-visualizer/twin-editor/internal/models"

// band maps a uniform draw below Below to a status held for TTL ticks.
type band struct {
	Below  float64
	Status models.Status
	TTL    int
}

// statusBands are cumulative: 1% offline, then 0.8% fault, then 0.8% blocked.
var statusBands = []band{
	{Below: 0.01, Status: models.StatusOffline, TTL: 6},
	{Below: 0.018, Status: models.StatusFault, TTL: 4},
	{Below: 0.026, Status: models.StatusBlocked, TTL: 3},
}

// evolveStatus counts down an active event or draws a new one.
// No draw happens on a tick where the TTL was positive.
func (s *Simulator) evolveStatus(el models.Element, sim *models.SimState) models.Status {
	status := models.NormalizeStatus(el.Status)
	if sim.StatusTTL > 0 {
		sim.StatusTTL--
		if sim.StatusTTL == 0 {
			status = models.StatusNormal
		}
		return status
	}
	u := s.opts.Rand.Float64()
	for _, b := range statusBands {
		if u < b.Below {
			sim.StatusTTL = b.TTL
			return b.Status
		}
	}
	return status
}
