package session

import (
	"time"

	"github.com/plc-visualizer/twin-editor/internal/autosave"
	"github.com/plc-visualizer/twin-editor/internal/editor"
	"github.com/plc-visualizer/twin-editor/internal/eventlog"
	"github.com/plc-visualizer/twin-editor/internal/logs"
	"github.com/plc-visualizer/twin-editor/internal/loop"
	"github.com/plc-visualizer/twin-editor/internal/models"
	"github.com/plc-visualizer/twin-editor/internal/routes"
	"github.com/plc-visualizer/twin-editor/internal/simulator"
	"github.com/plc-visualizer/twin-editor/internal/state"
	"github.com/plc-visualizer/twin-editor/internal/storage"
	"github.com/plc-visualizer/twin-editor/internal/viewport"
)

// ViewState is the full editor state sent to clients.
type ViewState struct {
	models.Document
	Selection string      `json:"selection"`
	Mode      models.Mode `json:"mode"`
	Running   bool        `json:"running"`
	CanUndo   bool        `json:"canUndo"`
	CanRedo   bool        `json:"canRedo"`
}

// Options configures new workspaces.
type Options struct {
	MaxSessions     int
	HistoryCapacity int
	QueueDepth      int

	// Storage receives autosaves when AutosaveDelay is positive.
	Storage       storage.Store
	Backend       string
	AutosaveDelay time.Duration

	// EventDir holds one DuckDB transition log per workspace. Empty disables the log.
	EventDir string

	Simulator simulator.Options
}

// Workspace is one independent editor: its own store, history, viewport,
// interaction engines and simulator, all owned by a single loop goroutine.
//
// Fields other than ID, CreatedAt, Feed and Events must only be used inside Do.
type Workspace struct {
	ID        string
	CreatedAt time.Time

	Store   *state.Store
	History *state.History
	Mapper  *viewport.Mapper
	Engine  *editor.Engine
	Routes  *routes.Editor
	Sim     *simulator.Simulator
	Saver   *autosave.Saver
	Events  *eventlog.DuckStore
	Feed    *Hub

	loop        *loop.Loop
	unsubscribe func()
}

// NewWorkspace builds and starts a workspace. When seed is set the sample
// layout is loaded.
func NewWorkspace(id string, opts Options, seed bool) (*Workspace, error) {
	w := &Workspace{
		ID:        id,
		CreatedAt: time.Now(),
		Feed:      NewHub(),
		loop:      loop.New(opts.QueueDepth),
	}

	w.Store = state.NewStore()
	if opts.HistoryCapacity > 0 {
		w.History = state.NewHistoryWithCapacity(w.Store, opts.HistoryCapacity)
	} else {
		w.History = state.NewHistory(w.Store)
	}
	w.Mapper = viewport.NewMapper()
	w.Engine = editor.New(w.History, w.Mapper)
	w.Routes = routes.New(w.History, w.Mapper)

	simOpts := opts.Simulator
	if opts.EventDir != "" {
		events, err := eventlog.NewDuckStore(opts.EventDir, id)
		if err != nil {
			w.loop.Close()
			return nil, err
		}
		w.Events = events
		simOpts.Sink = events
	}
	w.Sim = simulator.New(w.History, w.loop, simOpts)

	if opts.Storage != nil && opts.AutosaveDelay > 0 {
		w.Saver = autosave.New(w.loop, w.Store, opts.Storage, autosave.Options{
			ID:      "autosave-" + id,
			Name:    "Autosave " + shortID(id),
			Delay:   opts.AutosaveDelay,
			Backend: opts.Backend,
		})
	}

	err := w.Do(func() {
		if seed {
			w.History.Load(SampleLayout())
		}
		w.unsubscribe = w.Store.Subscribe(w.publish)
		if w.Saver != nil {
			w.Saver.Attach()
		}
	})
	if err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Do runs fn on the workspace loop and waits for it.
func (w *Workspace) Do(fn func()) error {
	return w.loop.Do(fn)
}

// Poster exposes the loop for components that post work themselves.
func (w *Workspace) Poster() loop.Poster {
	return w.loop
}

// View returns the current state. Must run on the loop.
func (w *Workspace) View() *ViewState {
	return &ViewState{
		Document:  w.Store.Serialize(),
		Selection: w.Store.Selection(),
		Mode:      w.Store.Mode(),
		Running:   w.Store.Running(),
		CanUndo:   w.History.CanUndo(),
		CanRedo:   w.History.CanRedo(),
	}
}

func (w *Workspace) publish(reason state.Reason, _ state.View) {
	if w.Feed.Len() == 0 {
		return
	}
	dropped := w.Feed.Publish(Notification{
		Type:      "state",
		Reason:    string(reason),
		Timestamp: time.Now().UnixMilli(),
		Payload:   w.View(),
	})
	if dropped > 0 {
		logs.For("session").Debugf("[Workspace %s] %d subscriber(s) dropped a %s update", shortID(w.ID), dropped, reason)
	}
}

// PointerDown offers the event to the interaction engine, then to the route editor.
// Must run on the loop, as must the other input methods.
func (w *Workspace) PointerDown(ev editor.PointerEvent) bool {
	if w.Engine.PointerDown(ev) {
		return true
	}
	return w.Routes.PointerDown(ev)
}

func (w *Workspace) PointerMove(ev editor.PointerEvent) bool {
	if w.Engine.PointerMove(ev) {
		return true
	}
	return w.Routes.PointerMove(ev)
}

func (w *Workspace) PointerUp(ev editor.PointerEvent) bool {
	if w.Engine.PointerUp(ev) {
		return true
	}
	return w.Routes.PointerUp(ev)
}

// Undo abandons any gesture in progress and steps back once.
func (w *Workspace) Undo() bool {
	w.abortGestures()
	return w.History.Undo()
}

// Redo abandons any gesture in progress and steps forward once.
func (w *Workspace) Redo() bool {
	w.abortGestures()
	return w.History.Redo()
}

func (w *Workspace) abortGestures() {
	w.Engine.Abort()
	w.Routes.Abort()
}

// KeyDown passes the key to the interaction engine. Undo and redo chords
// also drop a route vertex drag.
func (w *Workspace) KeyDown(ev editor.KeyEvent) bool {
	if editor.IsHistoryChord(ev) {
		w.Routes.Abort()
	}
	return w.Engine.KeyDown(ev)
}

// SetMode switches modes. Leaving route mode finishes the active route.
func (w *Workspace) SetMode(m models.Mode) {
	if !m.Valid() {
		return
	}
	if m != models.ModeRoute {
		w.Routes.Finish()
	}
	w.Store.SetMode(m)
}

// Close stops the simulator and autosave, flushes the event log and stops the loop.
func (w *Workspace) Close() {
	_ = w.Do(func() {
		w.Sim.Stop()
		if w.Saver != nil {
			w.Saver.Stop()
		}
		if w.unsubscribe != nil {
			w.unsubscribe()
		}
	})
	w.loop.Close()
	w.Feed.Close()
	if w.Events != nil {
		if err := w.Events.Close(); err != nil {
			logs.For("session").Warnf("[Workspace %s] closing event log: %v", shortID(w.ID), err)
		}
	}
}
