// Package simulator drives the mock realtime feed: random status events and
// AGVs following their routes, both applied as non-committing updates.
package simulator

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/plc-visualizer/twin-editor/internal/logs"
	"github.com/plc-visualizer/twin-editor/internal/loop"
	"github.com/plc-visualizer/twin-editor/internal/metrics"
	"github.com/plc-visualizer/twin-editor/internal/models"
	"github.com/plc-visualizer/twin-editor/internal/state"
)

const (
	DefaultInterval = 500 * time.Millisecond
	DefaultSpeed    = 100.0 // canvas units per second
)

// Rand is the randomness source for status events.
type Rand interface {
	Float64() float64
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

// Transition is one simulated status change.
type Transition struct {
	ElementID string        `json:"elementId"`
	Name      string        `json:"name"`
	From      models.Status `json:"from"`
	To        models.Status `json:"to"`
	Tick      uint64        `json:"tick"`
	At        time.Time     `json:"at"`
}

// TransitionSink receives status changes as they are applied.
type TransitionSink interface {
	Record(t Transition)
}

// Options tunes a Simulator. Zero values take the defaults.
type Options struct {
	Interval time.Duration
	Speed    float64
	// DT is the simulated seconds per tick; defaults to Interval.
	DT   float64
	Rand Rand
	Sink TransitionSink
}

// Simulator ticks a store at a fixed rate. Start, Stop and Tick must run on
// the workspace loop; the ticker goroutine only posts.
type Simulator struct {
	history *state.History
	poster  loop.Poster
	opts    Options

	running bool
	gen     uint64
	ticks   uint64
	stop    chan struct{}
}

// New creates a stopped simulator that posts ticks to poster.
func New(h *state.History, poster loop.Poster, opts Options) *Simulator {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Speed <= 0 {
		opts.Speed = DefaultSpeed
	}
	if opts.DT <= 0 {
		opts.DT = opts.Interval.Seconds()
	}
	if opts.Rand == nil {
		opts.Rand = &lockedRand{r: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
	}
	return &Simulator{history: h, poster: poster, opts: opts}
}

// Running reports whether the ticker is active.
func (s *Simulator) Running() bool {
	return s.running
}

// Ticks returns the number of ticks executed so far.
func (s *Simulator) Ticks() uint64 {
	return s.ticks
}

// Start begins ticking. Starting a running simulator is a no-op.
func (s *Simulator) Start() {
	if s.running {
		return
	}
	s.running = true
	s.gen++
	gen := s.gen
	stop := make(chan struct{})
	s.stop = stop
	s.history.Store().SetRunning(true)

	go func() {
		ticker := time.NewTicker(s.opts.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				ok := s.poster.Post(func() {
					// A tick queued before Stop must not run.
					if s.running && s.gen == gen {
						s.Tick()
					}
				})
				if !ok {
					return
				}
			}
		}
	}()
	logs.For("simulator").Infof("[Simulator] started (interval=%s)", s.opts.Interval)
}

// Stop halts ticking. Stopping a stopped simulator is a no-op.
func (s *Simulator) Stop() {
	if !s.running {
		return
	}
	s.running = false
	close(s.stop)
	s.stop = nil
	s.history.Store().SetRunning(false)
	logs.For("simulator").Infof("[Simulator] stopped after %d ticks", s.ticks)
}

// Tick runs one status pass and one motion pass. Both passes read the
// elements as they were before the tick.
func (s *Simulator) Tick() {
	s.ticks++
	metrics.Ticks.Inc()
	store := s.history.Store()
	before := store.Elements()

	routes := make(map[string]models.Route)
	for _, r := range store.Routes() {
		routes[r.ID] = r
	}

	now := time.Now()
	for _, el := range before {
		sim := models.SimState{}
		if el.Meta.Sim != nil {
			sim = *el.Meta.Sim
		}

		status := s.evolveStatus(el, &sim)
		pos, moved := s.advance(el, routes, &sim)

		simChanged := el.Meta.Sim == nil && sim != (models.SimState{}) ||
			el.Meta.Sim != nil && *el.Meta.Sim != sim
		if status == el.Status && !moved && !simChanged {
			continue
		}

		patch := models.ElementPatch{}
		if status != el.Status {
			patch.Status = models.Ptr(status)
		}
		if moved {
			patch.X = models.Ptr(pos.X - el.W/2)
			patch.Y = models.Ptr(pos.Y - el.H/2)
		}
		if simChanged {
			meta := el.Meta.Clone()
			meta.Sim = &sim
			patch.Meta = &meta
		}
		store.SimulateEntity(el.ID, patch)

		if status != el.Status {
			s.report(Transition{
				ElementID: el.ID,
				Name:      el.Name,
				From:      el.Status,
				To:        status,
				Tick:      s.ticks,
				At:        now,
			})
		}
	}
}

func (s *Simulator) report(t Transition) {
	metrics.StatusTransitions.WithLabelValues(string(t.To)).Inc()
	if s.opts.Sink != nil {
		s.opts.Sink.Record(t)
	}
}
