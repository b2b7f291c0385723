// Package autosave writes the current layout to storage shortly after edits stop.
package autosave

import (
	"sync"
	"time"

	"github.com/plc-visualizer/twin-editor/internal/logs"
	"github.com/plc-visualizer/twin-editor/internal/loop"
	"github.com/plc-visualizer/twin-editor/internal/metrics"
	"github.com/plc-visualizer/twin-editor/internal/models"
	"github.com/plc-visualizer/twin-editor/internal/state"
	"github.com/plc-visualizer/twin-editor/internal/storage"
)

// DefaultDelay is the quiet period after the last change before saving.
const DefaultDelay = 300 * time.Millisecond

// Options configures a Saver.
type Options struct {
	// ID and Name identify the layout in storage. The same id is overwritten on every save.
	ID   string
	Name string
	// Delay defaults to DefaultDelay.
	Delay time.Duration
	// Backend labels the save metric.
	Backend string
	// OnSave is called on the loop after every attempt.
	OnSave func(info *models.LayoutInfo, err error)
}

// Saver debounces store notifications into storage writes.
type Saver struct {
	poster loop.Poster
	store  *state.Store
	target storage.Store
	opts   Options

	mu          sync.Mutex
	timer       *time.Timer
	gen         uint64
	stopped     bool
	unsubscribe func()
}

// New creates a saver. Call Attach from the loop to start observing.
func New(poster loop.Poster, store *state.Store, target storage.Store, opts Options) *Saver {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.Name == "" {
		opts.Name = "Autosave"
	}
	if opts.ID == "" {
		opts.ID = "autosave"
	}
	return &Saver{poster: poster, store: store, target: target, opts: opts}
}

// Attach subscribes to the store. Must run on the loop.
func (s *Saver) Attach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsubscribe != nil || s.stopped {
		return
	}
	s.unsubscribe = s.store.Subscribe(func(reason state.Reason, _ state.View) {
		// Selection, mode and simulator ticks are not autosaved.
		switch reason {
		case state.ReasonSelection, state.ReasonMode, state.ReasonSimulation:
			return
		}
		s.schedule()
	})
}

func (s *Saver) schedule() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.gen++
	gen := s.gen
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.opts.Delay, func() {
		s.poster.Post(func() {
			if s.current(gen) {
				s.SaveNow()
			}
		})
	})
}

func (s *Saver) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.stopped && s.gen == gen
}

// SaveNow writes the layout immediately. Must run on the loop.
func (s *Saver) SaveNow() (*models.LayoutInfo, error) {
	doc := s.store.Serialize()
	info, err := s.target.Put(s.opts.ID, s.opts.Name, doc)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		logs.For("autosave").Warnf("[Autosave] save %s failed: %v", s.opts.ID, err)
	}
	metrics.Saves.WithLabelValues(s.opts.Backend, outcome).Inc()
	if s.opts.OnSave != nil {
		s.opts.OnSave(info, err)
	}
	return info, err
}

// Stop unsubscribes and cancels any pending save. Must run on the loop.
func (s *Saver) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}
