package simulator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plc-visualizer/twin-editor/internal/loop"
	"github.com/plc-visualizer/twin-editor/internal/models"
	"github.com/plc-visualizer/twin-editor/internal/state"
)

// seqRand replays draws and then repeats a calm value.
type seqRand struct {
	draws []float64
	calls int
}

func (r *seqRand) Float64() float64 {
	r.calls++
	if len(r.draws) == 0 {
		return 0.5
	}
	v := r.draws[0]
	r.draws = r.draws[1:]
	return v
}

type sinkFunc func(Transition)

func (f sinkFunc) Record(t Transition) { f(t) }

func newSim(t *testing.T, opts Options) (*Simulator, *state.Store) {
	t.Helper()
	s := state.NewStore()
	h := state.NewHistory(s)
	l := loop.New(16)
	t.Cleanup(l.Close)
	return New(h, l, opts), s
}

func TestStatusBands(t *testing.T) {
	tests := []struct {
		name string
		u    float64
		want models.Status
		ttl  int
	}{
		{"offline", 0.005, models.StatusOffline, 6},
		{"fault", 0.015, models.StatusFault, 4},
		{"blocked", 0.02, models.StatusBlocked, 3},
		{"calm", 0.5, models.StatusNormal, 0},
		{"band edge", 0.026, models.StatusNormal, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim, s := newSim(t, Options{Rand: &seqRand{draws: []float64{tt.u}}})
			id := s.CreateEntity(models.DeviceTypeProductionLine, models.ElementPatch{})

			sim.Tick()

			el, _ := s.Element(id)
			assert.Equal(t, tt.want, el.Status)
			if tt.ttl > 0 {
				require.NotNil(t, el.Meta.Sim)
				assert.Equal(t, tt.ttl, el.Meta.Sim.StatusTTL)
			}
		})
	}
}

func TestFaultLastsFourTicks(t *testing.T) {
	r := &seqRand{draws: []float64{0.015}}
	var seen []Transition
	sim, s := newSim(t, Options{Rand: r, Sink: sinkFunc(func(tr Transition) { seen = append(seen, tr) })})
	id := s.CreateEntity(models.DeviceTypeStackerCrane, models.ElementPatch{})

	sim.Tick()
	el, _ := s.Element(id)
	require.Equal(t, models.StatusFault, el.Status)

	for i := 0; i < 3; i++ {
		sim.Tick()
		el, _ = s.Element(id)
		assert.Equal(t, models.StatusFault, el.Status, "tick %d", i+2)
	}
	sim.Tick()
	el, _ = s.Element(id)
	assert.Equal(t, models.StatusNormal, el.Status)
	assert.Equal(t, 0, el.Meta.Sim.StatusTTL)

	// One draw for the event, none while it was active.
	assert.Equal(t, 1, r.calls)

	require.Len(t, seen, 2)
	assert.Equal(t, models.StatusFault, seen[0].To)
	assert.Equal(t, uint64(1), seen[0].Tick)
	assert.Equal(t, models.StatusNormal, seen[1].To)
	assert.Equal(t, uint64(5), seen[1].Tick)
}

func TestRouteWraparound(t *testing.T) {
	// speed*dt = 30 over a 100-unit segment gives a step of 0.3.
	sim, s := newSim(t, Options{Rand: &seqRand{}, Speed: 60, DT: 0.5})
	rid := s.AddRoute(models.Route{Points: []models.Point{{X: 0, Y: 0}, {X: 100, Y: 0}}})
	id := s.AddEntity(models.Element{
		Type:    models.DeviceTypeAGV,
		W:       40,
		H:       24,
		RouteID: rid,
		Meta:    models.Meta{Sim: &models.SimState{RouteIdx: 0, T: 0.9}},
	})

	sim.Tick()

	el, _ := s.Element(id)
	require.NotNil(t, el.Meta.Sim)
	assert.InDelta(t, 0.2, el.Meta.Sim.T, 1e-9)
	assert.Equal(t, 1, el.Meta.Sim.RouteIdx)
	c := el.Center()
	assert.InDelta(t, 80, c.X, 1e-9)
	assert.InDelta(t, 0, c.Y, 1e-9)
}

func TestDenseRouteStaysOnRoute(t *testing.T) {
	// Default travel (50 per tick) spans several 20-unit segments.
	sim, s := newSim(t, Options{Rand: &seqRand{}})
	rid := s.AddRoute(models.Route{
		Points: []models.Point{{X: 0, Y: 0}, {X: 20, Y: 0}, {X: 20, Y: 20}, {X: 0, Y: 20}},
		Closed: true,
	})
	id := s.AddEntity(models.Element{Type: models.DeviceTypeAGV, W: 40, H: 24, RouteID: rid})

	sim.Tick()
	el, _ := s.Element(id)
	assert.Equal(t, 2, el.Meta.Sim.RouteIdx)
	assert.InDelta(t, 0.5, el.Meta.Sim.T, 1e-9)
	assert.InDelta(t, 10, el.Center().X, 1e-9)
	assert.InDelta(t, 20, el.Center().Y, 1e-9)

	for i := 0; i < 25; i++ {
		sim.Tick()
		el, _ = s.Element(id)
		require.NotNil(t, el.Meta.Sim)
		assert.GreaterOrEqual(t, el.Meta.Sim.T, 0.0)
		assert.Less(t, el.Meta.Sim.T, 1.0)
		c := el.Center()
		assert.True(t, c.X >= -1e-9 && c.X <= 20+1e-9, "x=%v off route", c.X)
		assert.True(t, c.Y >= -1e-9 && c.Y <= 20+1e-9, "y=%v off route", c.Y)
	}
}

func TestLongTravelWrapsWholeLaps(t *testing.T) {
	// 10 units of travel laps a 4-unit route twice and stops at the far end.
	sim, s := newSim(t, Options{Rand: &seqRand{}, Speed: 20, DT: 0.5})
	rid := s.AddRoute(models.Route{Points: []models.Point{{X: 0, Y: 0}, {X: 2, Y: 0}}})
	id := s.AddEntity(models.Element{Type: models.DeviceTypeAGV, W: 40, H: 24, RouteID: rid})

	sim.Tick()

	el, _ := s.Element(id)
	assert.Equal(t, 1, el.Meta.Sim.RouteIdx)
	assert.InDelta(t, 0, el.Meta.Sim.T, 1e-9)
	assert.InDelta(t, 2, el.Center().X, 1e-9)
}

func TestMotionDefaults(t *testing.T) {
	sim, s := newSim(t, Options{Rand: &seqRand{}})
	rid := s.AddRoute(models.Route{Points: []models.Point{{X: 0, Y: 0}, {X: 200, Y: 0}, {X: 200, Y: 200}}})
	id := s.AddEntity(models.Element{Type: models.DeviceTypeAGV, W: 40, H: 24, RouteID: rid})

	sim.Tick()

	el, _ := s.Element(id)
	assert.InDelta(t, 0.25, el.Meta.Sim.T, 1e-9)
	c := el.Center()
	assert.InDelta(t, 50, c.X, 1e-9)
}

func TestStaleRouteIndexWraps(t *testing.T) {
	sim, s := newSim(t, Options{Rand: &seqRand{}})
	rid := s.AddRoute(models.Route{Points: []models.Point{{X: 0, Y: 0}, {X: 100, Y: 0}}})
	id := s.AddEntity(models.Element{
		Type: models.DeviceTypeAGV, W: 40, H: 24, RouteID: rid,
		Meta: models.Meta{Sim: &models.SimState{RouteIdx: 7}},
	})

	sim.Tick()

	el, _ := s.Element(id)
	assert.Equal(t, 1, el.Meta.Sim.RouteIdx)
	assert.InDelta(t, 50, el.Center().X, 1e-9)
}

func TestInertEntities(t *testing.T) {
	sim, s := newSim(t, Options{Rand: &seqRand{}})
	short := s.AddRoute(models.Route{Points: []models.Point{{X: 5, Y: 5}}})
	long := s.AddRoute(models.Route{Points: []models.Point{{X: 0, Y: 0}, {X: 100, Y: 0}}})

	ids := []string{
		s.AddEntity(models.Element{Type: models.DeviceTypeAGV, X: 1, Y: 2, W: 40, H: 24}),
		s.AddEntity(models.Element{Type: models.DeviceTypeAGV, X: 1, Y: 2, W: 40, H: 24, RouteID: short}),
		s.AddEntity(models.Element{Type: models.DeviceTypeAGV, X: 1, Y: 2, W: 40, H: 24, RouteID: "route_missing"}),
		s.AddEntity(models.Element{Type: models.DeviceTypeRGV, X: 1, Y: 2, W: 40, H: 24, RouteID: long}),
	}

	sim.Tick()

	for _, id := range ids {
		el, _ := s.Element(id)
		assert.Equal(t, 1.0, el.X, id)
		assert.Equal(t, 2.0, el.Y, id)
	}
}

func TestTickNeverRecordsHistory(t *testing.T) {
	s := state.NewStore()
	h := state.NewHistory(s)
	l := loop.New(4)
	defer l.Close()
	sim := New(h, l, Options{Rand: &seqRand{draws: []float64{0.001}}})
	s.CreateEntity(models.DeviceTypeAGV, models.ElementPatch{})
	var reasons []state.Reason
	s.Subscribe(func(r state.Reason, _ state.View) { reasons = append(reasons, r) })

	sim.Tick()
	assert.False(t, h.CanUndo())
	assert.Equal(t, []state.Reason{state.ReasonSimulation}, reasons)
}

func TestStartStopIdempotent(t *testing.T) {
	s := state.NewStore()
	h := state.NewHistory(s)
	l := loop.New(16)
	defer l.Close()
	sim := New(h, l, Options{Interval: 5 * time.Millisecond, Rand: &seqRand{}})

	require.NoError(t, l.Do(func() {
		sim.Start()
		sim.Start()
		assert.True(t, s.Running())
	}))

	assert.Eventually(t, func() bool {
		var n uint64
		_ = l.Do(func() { n = sim.Ticks() })
		return n >= 2
	}, time.Second, 5*time.Millisecond)

	var stoppedAt uint64
	require.NoError(t, l.Do(func() {
		sim.Stop()
		sim.Stop()
		stoppedAt = sim.Ticks()
		assert.False(t, s.Running())
	}))

	time.Sleep(30 * time.Millisecond)
	require.NoError(t, l.Do(func() {
		assert.Equal(t, stoppedAt, sim.Ticks(), "no tick after stop")
	}))
}

func TestQueuedTickDroppedAfterStop(t *testing.T) {
	s := state.NewStore()
	h := state.NewHistory(s)
	l := loop.New(16)
	defer l.Close()
	sim := New(h, l, Options{Interval: time.Millisecond, Rand: &seqRand{}})

	// Block the loop so ticks pile up, then stop inside the same task.
	require.NoError(t, l.Do(func() {
		sim.Start()
		time.Sleep(20 * time.Millisecond)
		sim.Stop()
	}))
	require.NoError(t, l.Do(func() {}))
	require.NoError(t, l.Do(func() {
		assert.Equal(t, uint64(0), sim.Ticks())
	}))
}
