// Package routes edits AGV route polylines while the canvas is in route mode.
package routes

import (
	"fmt"

	"github.com/plc-visualizer/twin-editor/internal/editor"
	"github.com/plc-visualizer/twin-editor/internal/models"
	"github.com/plc-visualizer/twin-editor/internal/state"
	"github.com/plc-visualizer/twin-editor/internal/viewport"
)

type vertexDrag struct {
	routeID string
	index   int
	orig    models.Point
}

// Editor appends route points on canvas clicks and drags existing vertices.
type Editor struct {
	history *state.History
	mapper  *viewport.Mapper

	active string
	drag   *vertexDrag
}

// New creates a route editor.
func New(h *state.History, m *viewport.Mapper) *Editor {
	return &Editor{history: h, mapper: m}
}

// Active returns the id of the route receiving new points, if any.
func (e *Editor) Active() string {
	return e.active
}

// SetActive makes id the route receiving new points.
func (e *Editor) SetActive(id string) bool {
	if !e.history.Store().HasRoute(id) {
		return false
	}
	e.active = id
	return true
}

// Finish closes the active route; the next click starts a new one.
func (e *Editor) Finish() {
	e.active = ""
}

// Abort drops a vertex drag without committing it and restores the vertex.
func (e *Editor) Abort() {
	d := e.drag
	if d == nil {
		return
	}
	e.drag = nil
	if r, ok := e.history.Store().Route(d.routeID); ok && d.index < len(r.Points) {
		r.Points[d.index] = d.orig
		e.history.UpdateRoute(r.ID, models.RoutePatch{Points: r.Points}, false)
	}
	e.history.Cancel()
}

// PointerDown appends a point or grabs a vertex. Outside route mode it does nothing.
func (e *Editor) PointerDown(ev editor.PointerEvent) bool {
	store := e.history.Store()
	if store.Mode() != models.ModeRoute || e.drag != nil {
		return false
	}
	if ev.Button != editor.ButtonPrimary {
		return false
	}

	if ev.Target.Kind == editor.TargetVertex {
		r, ok := store.Route(ev.Target.ID)
		if !ok || ev.Target.Index < 0 || ev.Target.Index >= len(r.Points) {
			return false
		}
		e.history.Begin()
		e.drag = &vertexDrag{routeID: r.ID, index: ev.Target.Index, orig: r.Points[ev.Target.Index]}
		return true
	}

	p := e.mapper.ToCanvas(ev.X, ev.Y)
	e.Append(p)
	return true
}

// Append adds p to the active route, creating "Route N" first when needed.
// Each append is its own undo step.
func (e *Editor) Append(p models.Point) string {
	store := e.history.Store()
	if e.active == "" || !store.HasRoute(e.active) {
		name := fmt.Sprintf("Route %d", len(store.Routes())+1)
		e.active = e.history.AddRoute(models.Route{Name: name, Points: []models.Point{}}, true)
	}
	r, _ := store.Route(e.active)
	pts := append(r.Points, p)
	e.history.UpdateRoute(e.active, models.RoutePatch{Points: pts}, true)
	return e.active
}

// PointerMove drags the grabbed vertex without committing.
func (e *Editor) PointerMove(ev editor.PointerEvent) bool {
	if e.drag == nil {
		return false
	}
	r, ok := e.history.Store().Route(e.drag.routeID)
	if !ok || e.drag.index >= len(r.Points) {
		return true
	}
	r.Points[e.drag.index] = e.mapper.ToCanvas(ev.X, ev.Y)
	e.history.UpdateRoute(r.ID, models.RoutePatch{Points: r.Points}, false)
	return true
}

// PointerUp commits a vertex drag as one undo step.
func (e *Editor) PointerUp(editor.PointerEvent) bool {
	if e.drag == nil {
		return false
	}
	d := e.drag
	e.drag = nil
	if !e.history.Store().HasRoute(d.routeID) {
		e.history.Cancel()
		return true
	}
	e.history.UpdateRoute(d.routeID, models.RoutePatch{}, true)
	return true
}

// AssignRoute binds an element to a route as one undo step. An empty id unbinds it.
func (e *Editor) AssignRoute(elementID, routeID string) bool {
	store := e.history.Store()
	if !store.HasEntity(elementID) || (routeID != "" && !store.HasRoute(routeID)) {
		return false
	}
	e.history.UpdateEntity(elementID, models.ElementPatch{RouteID: models.Ptr(routeID)}, true)
	return true
}
