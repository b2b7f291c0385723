// Package editor turns pointer and keyboard input into store mutations:
// drag, anchored resize, snapped rotation, z-order and shortcuts.
package editor

import (
	"github.com/plc-visualizer/twin-editor/internal/models"
	"github.com/plc-visualizer/twin-editor/internal/state"
	"github.com/plc-visualizer/twin-editor/internal/viewport"
)

// GestureKind is the engine's interaction state.
type GestureKind string

const (
	GestureIdle     GestureKind = "idle"
	GestureDragging GestureKind = "dragging"
	GestureResizing GestureKind = "resizing"
	GestureRotating GestureKind = "rotating"
)

type gesture struct {
	kind   GestureKind
	id     string
	anchor models.Point // canvas point at pointer-down
	init   Rect
	initR  float64
	handle Handle

	center     models.Point
	startAngle float64
}

// Engine is the interaction state machine. One gesture at a time.
type Engine struct {
	history *state.History
	mapper  *viewport.Mapper

	active *gesture

	panning   bool
	lastPan   models.Point
	spaceHeld bool
}

// New creates an engine mutating through h and converting points with m.
func New(h *state.History, m *viewport.Mapper) *Engine {
	return &Engine{history: h, mapper: m}
}

// Gesture returns the current interaction state.
func (e *Engine) Gesture() GestureKind {
	if e.active == nil {
		return GestureIdle
	}
	return e.active.kind
}

// Panning reports whether a pan drag is in progress.
func (e *Engine) Panning() bool {
	return e.panning
}

func (e *Engine) store() *state.Store {
	return e.history.Store()
}

func (e *Engine) snapPoint(p models.Point) models.Point {
	s := e.store().Settings()
	if !s.SnapToGrid {
		return p
	}
	return models.Point{X: Snap(p.X, s.GridSize), Y: Snap(p.Y, s.GridSize)}
}

func (e *Engine) snap(v float64) float64 {
	s := e.store().Settings()
	if !s.SnapToGrid {
		return v
	}
	return Snap(v, s.GridSize)
}

// PointerDown starts a pan or a gesture. It reports false when the event is
// left for another handler (route mode).
func (e *Engine) PointerDown(ev PointerEvent) bool {
	if e.active != nil || e.panning {
		return true
	}
	if ev.Button == ButtonMiddle || ev.Button == ButtonSecondary || e.spaceHeld {
		e.panning = true
		e.lastPan = models.Point{X: ev.X, Y: ev.Y}
		return true
	}
	if e.store().Mode() == models.ModeRoute {
		return false
	}

	p := e.mapper.ToCanvas(ev.X, ev.Y)
	switch ev.Target.Kind {
	case TargetEntity:
		return e.startDrag(ev, p)
	case TargetResize:
		return e.startResize(ev.Target.Handle, p)
	case TargetRotate:
		return e.startRotate(p)
	default:
		if ev.Button == ButtonPrimary {
			e.store().ClearSelection()
		}
		return true
	}
}

func (e *Engine) startDrag(ev PointerEvent, p models.Point) bool {
	el, ok := e.store().Element(ev.Target.ID)
	if !ok {
		return false
	}
	e.store().Select(el.ID)
	if ev.Button != ButtonPrimary {
		return true
	}
	e.history.Begin()
	e.active = &gesture{kind: GestureDragging, id: el.ID, anchor: p, init: rectOf(el), initR: el.R}
	return true
}

// selected returns the selected element, which handle gestures act on.
func (e *Engine) selected() (models.Element, bool) {
	id := e.store().Selection()
	if id == "" {
		return models.Element{}, false
	}
	return e.store().Element(id)
}

func (e *Engine) startResize(h Handle, p models.Point) bool {
	el, ok := e.selected()
	if !ok || !h.Valid() {
		return false
	}
	e.history.Begin()
	e.active = &gesture{kind: GestureResizing, id: el.ID, anchor: p, init: rectOf(el), initR: el.R, handle: h}
	return true
}

func (e *Engine) startRotate(p models.Point) bool {
	el, ok := e.selected()
	if !ok {
		return false
	}
	c := el.Center()
	e.history.Begin()
	e.active = &gesture{
		kind:       GestureRotating,
		id:         el.ID,
		anchor:     p,
		init:       rectOf(el),
		initR:      el.R,
		center:     c,
		startAngle: angleDeg(c, p) - el.R,
	}
	return true
}

// PointerMove updates the active pan or gesture with non-committing mutations.
func (e *Engine) PointerMove(ev PointerEvent) bool {
	if e.panning {
		e.mapper.Pan(ev.X-e.lastPan.X, ev.Y-e.lastPan.Y)
		e.lastPan = models.Point{X: ev.X, Y: ev.Y}
		return true
	}
	g := e.active
	if g == nil {
		return false
	}
	if !e.store().HasEntity(g.id) {
		return true
	}

	p := e.mapper.ToCanvas(ev.X, ev.Y)
	var patch models.ElementPatch
	switch g.kind {
	case GestureDragging:
		patch.X = models.Ptr(e.snap(g.init.X + p.X - g.anchor.X))
		patch.Y = models.Ptr(e.snap(g.init.Y + p.Y - g.anchor.Y))
	case GestureResizing:
		r := ResizeRect(g.init, g.handle, e.snapPoint(p))
		patch.X, patch.Y, patch.W, patch.H = &r.X, &r.Y, &r.W, &r.H
	case GestureRotating:
		patch.R = models.Ptr(SnapRotation(angleDeg(g.center, p) - g.startAngle))
	}
	e.history.UpdateEntity(g.id, patch, false)
	return true
}

// PointerUp ends a pan, or seals the gesture into exactly one undo step.
func (e *Engine) PointerUp(PointerEvent) bool {
	if e.panning {
		e.panning = false
		return true
	}
	g := e.active
	if g == nil {
		return false
	}
	e.active = nil
	if !e.store().HasEntity(g.id) {
		e.history.Cancel()
		return true
	}
	e.history.UpdateEntity(g.id, models.ElementPatch{}, true)
	return true
}

// Wheel zooms around the event position.
func (e *Engine) Wheel(ev WheelEvent) {
	e.mapper.ZoomStep(models.Point{X: ev.X, Y: ev.Y}, ev.DeltaY, ev.Fine)
}

// Abort drops the active gesture without committing it and puts the element
// back where the gesture found it.
func (e *Engine) Abort() {
	g := e.active
	if g == nil {
		return
	}
	e.active = nil
	r := g.init
	e.history.UpdateEntity(g.id, models.ElementPatch{X: &r.X, Y: &r.Y, W: &r.W, H: &r.H, R: &g.initR}, false)
	e.history.Cancel()
}

// BringToFront puts the selected element above all others.
func (e *Engine) BringToFront() bool {
	el, ok := e.selected()
	if !ok {
		return false
	}
	e.history.Reorder(el.ID, e.store().MaxZ()+1, true)
	return true
}

// SendToBack puts the selected element below all others.
func (e *Engine) SendToBack() bool {
	el, ok := e.selected()
	if !ok {
		return false
	}
	e.history.Reorder(el.ID, e.store().MinZ()-1, true)
	return true
}

// DeleteSelection removes the selected element as one undo step.
func (e *Engine) DeleteSelection() bool {
	el, ok := e.selected()
	if !ok {
		return false
	}
	e.Abort()
	_, removed := e.history.RemoveEntity(el.ID, true)
	return removed
}
