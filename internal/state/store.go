// Package state holds the editor's single source of truth: the Entity Store
// and the snapshot-based History that wraps it.
package state

import (
	"fmt"
	"math"

	"github.com/plc-visualizer/twin-editor/internal/models"
)

// Reason tags a change notification.
type Reason string

const (
	ReasonEntities  Reason = "entities"
	ReasonRoutes    Reason = "routes"
	ReasonSelection Reason = "selection"
	ReasonSettings  Reason = "settings"
	ReasonMode      Reason = "mode"
	ReasonReplace   Reason = "replace"

	// ReasonSimulation marks element updates made by the motion simulator.
	ReasonSimulation Reason = "simulation"
)

// View is the read-only face of the store handed to observers.
// Every accessor returns copies.
type View interface {
	Elements() []models.Element
	Element(id string) (models.Element, bool)
	Routes() []models.Route
	Route(id string) (models.Route, bool)
	Settings() models.Settings
	Selection() string
	Mode() models.Mode
	Running() bool
	FindByIDOrName(target string) (models.Element, bool)
	Alerts() []models.Alert
}

// Listener is invoked synchronously after every mutation.
type Listener func(reason Reason, v View)

type listenerEntry struct {
	id int
	fn Listener
}

// Store is the Entity Store. It has no lock: callers serialize access
// (see internal/loop).
type Store struct {
	settings  models.Settings
	elements  []models.Element
	routes    []models.Route
	selection string
	mode      models.Mode
	running   bool

	seq       int
	listeners []listenerEntry
	nextSub   int
}

// NewStore creates an empty store with default settings in select mode.
func NewStore() *Store {
	return &Store{
		settings: models.DefaultSettings(),
		mode:     models.ModeSelect,
	}
}

// Subscribe registers fn and returns a function that removes it.
// Listeners run in registration order.
func (s *Store) Subscribe(fn Listener) func() {
	s.nextSub++
	id := s.nextSub
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: fn})
	return func() {
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) notify(reason Reason) {
	// Snapshot the slice so listeners may (un)subscribe while being notified.
	ls := s.listeners
	for _, l := range ls {
		l.fn(reason, s)
	}
}

// GenID returns a fresh id "<prefix>_<n>" that is not used by any element or route.
func (s *Store) GenID(prefix string) string {
	for {
		s.seq++
		id := fmt.Sprintf("%s_%d", prefix, s.seq)
		if !s.idInUse(id) {
			return id
		}
	}
}

func (s *Store) idInUse(id string) bool {
	return s.indexOfElement(id) >= 0 || s.indexOfRoute(id) >= 0
}

func (s *Store) indexOfElement(id string) int {
	for i := range s.elements {
		if s.elements[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) indexOfRoute(id string) int {
	for i := range s.routes {
		if s.routes[i].ID == id {
			return i
		}
	}
	return -1
}

// normalizeElement enforces the geometric and enum invariants on e.
func normalizeElement(e *models.Element) {
	if !(e.W > 0) {
		e.W = e.Type.DefaultSize().W
	}
	if !(e.H > 0) {
		e.H = e.Type.DefaultSize().H
	}
	e.Status = models.NormalizeStatus(e.Status)
}

// AddEntity inserts e and returns its id. A missing or colliding id is replaced
// by a generated one. The z value is kept as given.
func (s *Store) AddEntity(e models.Element) string {
	e = e.Clone()
	if e.ID == "" || s.indexOfElement(e.ID) >= 0 {
		e.ID = s.GenID(e.Type.IDPrefix())
	}
	normalizeElement(&e)
	s.elements = append(s.elements, e)
	s.notify(ReasonEntities)
	return e.ID
}

// CreateEntity builds an element of type t from props and adds it.
// When props carries no z the entity count before insertion is used.
func (s *Store) CreateEntity(t models.DeviceType, props models.ElementPatch) string {
	e := models.NewElement(t, props)
	if props.Z == nil {
		e.Z = len(s.elements)
	}
	return s.AddEntity(e)
}

// HasEntity reports whether an element with the id exists.
func (s *Store) HasEntity(id string) bool {
	return s.indexOfElement(id) >= 0
}

// UpdateEntity merges patch into the element. Non-positive sizes are clamped
// to 1. Unknown ids are ignored without notification.
func (s *Store) UpdateEntity(id string, patch models.ElementPatch) {
	s.updateEntity(id, patch, ReasonEntities)
}

// SimulateEntity is UpdateEntity for simulator-driven changes; listeners see
// ReasonSimulation. It never touches history.
func (s *Store) SimulateEntity(id string, patch models.ElementPatch) {
	s.updateEntity(id, patch, ReasonSimulation)
}

func (s *Store) updateEntity(id string, patch models.ElementPatch, reason Reason) {
	i := s.indexOfElement(id)
	if i < 0 {
		return
	}
	e := &s.elements[i]
	patch.Apply(e)
	if !(e.W > 0) {
		e.W = 1
	}
	if !(e.H > 0) {
		e.H = 1
	}
	e.Status = models.NormalizeStatus(e.Status)
	s.notify(reason)
}

// RemoveEntity deletes the element and returns it. The selection is cleared
// when it pointed at the removed element.
func (s *Store) RemoveEntity(id string) (models.Element, bool) {
	i := s.indexOfElement(id)
	if i < 0 {
		return models.Element{}, false
	}
	removed := s.elements[i]
	s.elements = append(s.elements[:i:i], s.elements[i+1:]...)
	if s.selection == id {
		s.selection = ""
	}
	s.notify(ReasonEntities)
	return removed, true
}

// Reorder sets the element's z directly. Duplicate z values are allowed.
func (s *Store) Reorder(id string, z int) {
	i := s.indexOfElement(id)
	if i < 0 {
		return
	}
	s.elements[i].Z = z
	s.notify(ReasonEntities)
}

// MaxZ returns the largest z, or 0 for an empty store.
func (s *Store) MaxZ() int {
	if len(s.elements) == 0 {
		return 0
	}
	z := math.MinInt
	for _, e := range s.elements {
		z = max(z, e.Z)
	}
	return z
}

// MinZ returns the smallest z, or 0 for an empty store.
func (s *Store) MinZ() int {
	if len(s.elements) == 0 {
		return 0
	}
	z := math.MaxInt
	for _, e := range s.elements {
		z = min(z, e.Z)
	}
	return z
}

// Select sets the single selection. Selecting "" clears it.
func (s *Store) Select(id string) {
	s.selection = id
	s.notify(ReasonSelection)
}

// ClearSelection drops the selection.
func (s *Store) ClearSelection() {
	s.selection = ""
	s.notify(ReasonSelection)
}

// SetMode switches the interaction mode. Unknown modes are ignored.
func (s *Store) SetMode(m models.Mode) {
	if !m.Valid() {
		return
	}
	s.mode = m
	s.notify(ReasonMode)
}

// SetSettings merges patch into the settings. A non-positive grid size is ignored.
func (s *Store) SetSettings(patch models.SettingsPatch) {
	if patch.GridSize != nil && !(*patch.GridSize > 0) {
		patch.GridSize = nil
	}
	patch.Apply(&s.settings)
	s.notify(ReasonSettings)
}

// SetRunning records whether the simulator is running. It is never part of a snapshot.
func (s *Store) SetRunning(running bool) {
	s.running = running
}

// AddRoute inserts r and returns its id.
func (s *Store) AddRoute(r models.Route) string {
	r = r.Clone()
	if r.ID == "" || s.indexOfRoute(r.ID) >= 0 {
		r.ID = s.GenID("route")
	}
	s.routes = append(s.routes, r)
	s.notify(ReasonRoutes)
	return r.ID
}

// HasRoute reports whether a route with the id exists.
func (s *Store) HasRoute(id string) bool {
	return s.indexOfRoute(id) >= 0
}

// UpdateRoute merges patch into the route. Unknown ids are ignored.
func (s *Store) UpdateRoute(id string, patch models.RoutePatch) {
	i := s.indexOfRoute(id)
	if i < 0 {
		return
	}
	patch.Apply(&s.routes[i])
	s.notify(ReasonRoutes)
}

// RemoveRoute deletes the route. Elements referencing it become inert for motion.
func (s *Store) RemoveRoute(id string) bool {
	i := s.indexOfRoute(id)
	if i < 0 {
		return false
	}
	s.routes = append(s.routes[:i:i], s.routes[i+1:]...)
	s.notify(ReasonRoutes)
	return true
}

// Serialize returns an independent copy of the persisted document.
func (s *Store) Serialize() models.Document {
	return models.Document{
		Settings: s.settings,
		Elements: s.Elements(),
		Routes:   s.Routes(),
	}
}

// Snapshot returns an independent copy of everything history restores.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Document:  s.Serialize(),
		Selection: s.selection,
		Mode:      s.mode,
	}
}

// BulkReplace swaps in snap atomically and notifies once with ReasonReplace.
// Missing ids are synthesized and missing values defaulted.
func (s *Store) BulkReplace(snap Snapshot) {
	snap = snap.Clone()
	if !(snap.Settings.GridSize > 0) {
		snap.Settings.GridSize = models.DefaultSettings().GridSize
	}
	if !snap.Mode.Valid() {
		snap.Mode = models.ModeSelect
	}

	s.settings = snap.Settings
	s.elements = snap.Elements
	s.routes = snap.Routes
	s.selection = snap.Selection
	s.mode = snap.Mode

	for i := range s.elements {
		e := &s.elements[i]
		if e.ID == "" {
			e.ID = s.GenID(e.Type.IDPrefix())
		}
		if !(e.W > 0) {
			e.W = models.FallbackSize.W
		}
		if !(e.H > 0) {
			e.H = models.FallbackSize.H
		}
		e.Status = models.NormalizeStatus(e.Status)
	}
	for i := range s.routes {
		if s.routes[i].ID == "" {
			s.routes[i].ID = s.GenID("route")
		}
	}
	s.notify(ReasonReplace)
}

// Elements returns a deep copy of the elements in insertion order.
func (s *Store) Elements() []models.Element {
	out := make([]models.Element, len(s.elements))
	for i, e := range s.elements {
		out[i] = e.Clone()
	}
	return out
}

// Element returns a copy of the element with the id.
func (s *Store) Element(id string) (models.Element, bool) {
	i := s.indexOfElement(id)
	if i < 0 {
		return models.Element{}, false
	}
	return s.elements[i].Clone(), true
}

// Routes returns a deep copy of the routes in insertion order.
func (s *Store) Routes() []models.Route {
	out := make([]models.Route, len(s.routes))
	for i, r := range s.routes {
		out[i] = r.Clone()
	}
	return out
}

// Route returns a copy of the route with the id.
func (s *Store) Route(id string) (models.Route, bool) {
	i := s.indexOfRoute(id)
	if i < 0 {
		return models.Route{}, false
	}
	return s.routes[i].Clone(), true
}

func (s *Store) Settings() models.Settings { return s.settings }
func (s *Store) Selection() string         { return s.selection }
func (s *Store) Mode() models.Mode         { return s.mode }
func (s *Store) Running() bool             { return s.running }

// FindByIDOrName resolves target against element ids first, then names.
func (s *Store) FindByIDOrName(target string) (models.Element, bool) {
	if e, ok := s.Element(target); ok {
		return e, true
	}
	for _, e := range s.elements {
		if e.Name != "" && e.Name == target {
			return e.Clone(), true
		}
	}
	return models.Element{}, false
}

// Alerts lists the elements whose status is not normal, in insertion order.
func (s *Store) Alerts() []models.Alert {
	var out []models.Alert
	for _, e := range s.elements {
		if e.Status == models.StatusNormal {
			continue
		}
		name := e.Name
		if name == "" {
			name = e.ID
		}
		out = append(out, models.Alert{ID: e.ID, Name: name, Status: e.Status, Color: e.Status.Color()})
	}
	return out
}
