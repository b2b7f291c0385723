package state

import (
	"github.com/plc-visualizer/twin-editor/internal/metrics"
	"github.com/plc-visualizer/twin-editor/internal/models"
)

// DefaultCapacity is the undo depth kept by NewHistory.
const DefaultCapacity = 100

// History wraps a Store with linear, snapshot-based undo/redo.
//
// Every mutation takes a commit flag. A committing call pushes the state as it
// was before the mutation (or before the gesture opened with Begin) and clears
// the redo stack. Non-committing calls only touch the store.
type History struct {
	store    *Store
	capacity int
	undo     []Snapshot
	redo     []Snapshot
	pending  *Snapshot
}

// NewHistory wraps store with DefaultCapacity.
func NewHistory(store *Store) *History {
	return NewHistoryWithCapacity(store, DefaultCapacity)
}

// NewHistoryWithCapacity wraps store with a custom undo depth.
func NewHistoryWithCapacity(store *Store, capacity int) *History {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &History{store: store, capacity: capacity}
}

// Store returns the wrapped store.
func (h *History) Store() *Store {
	return h.store
}

// Begin marks the start of a gesture. The next commit records the state as it
// is now, so the in-progress non-committing updates collapse into one step.
func (h *History) Begin() {
	snap := h.store.Snapshot()
	h.pending = &snap
}

// Cancel drops a baseline taken by Begin without recording it.
func (h *History) Cancel() {
	h.pending = nil
}

func (h *History) record() {
	var snap Snapshot
	if h.pending != nil {
		snap = *h.pending
		h.pending = nil
	} else {
		snap = h.store.Snapshot()
	}
	h.undo = append(h.undo, snap)
	if over := len(h.undo) - h.capacity; over > 0 {
		h.undo = append(h.undo[:0:0], h.undo[over:]...)
	}
	h.redo = nil
	metrics.Commits.Inc()
}

// AddEntity adds e, recording a step when commit is set.
func (h *History) AddEntity(e models.Element, commit bool) string {
	if commit {
		h.record()
	}
	return h.store.AddEntity(e)
}

// CreateEntity creates an element of type t from props.
func (h *History) CreateEntity(t models.DeviceType, props models.ElementPatch, commit bool) string {
	if commit {
		h.record()
	}
	return h.store.CreateEntity(t, props)
}

// UpdateEntity patches an element. Unknown ids record nothing.
func (h *History) UpdateEntity(id string, patch models.ElementPatch, commit bool) {
	if !h.store.HasEntity(id) {
		return
	}
	if commit {
		h.record()
	}
	h.store.UpdateEntity(id, patch)
}

// RemoveEntity deletes an element. Unknown ids record nothing.
func (h *History) RemoveEntity(id string, commit bool) (models.Element, bool) {
	if !h.store.HasEntity(id) {
		return models.Element{}, false
	}
	if commit {
		h.record()
	}
	return h.store.RemoveEntity(id)
}

// Reorder sets an element's z.
func (h *History) Reorder(id string, z int, commit bool) {
	if !h.store.HasEntity(id) {
		return
	}
	if commit {
		h.record()
	}
	h.store.Reorder(id, z)
}

// AddRoute adds a route.
func (h *History) AddRoute(r models.Route, commit bool) string {
	if commit {
		h.record()
	}
	return h.store.AddRoute(r)
}

// UpdateRoute patches a route. Unknown ids record nothing.
func (h *History) UpdateRoute(id string, patch models.RoutePatch, commit bool) {
	if !h.store.HasRoute(id) {
		return
	}
	if commit {
		h.record()
	}
	h.store.UpdateRoute(id, patch)
}

// RemoveRoute deletes a route. Unknown ids record nothing.
func (h *History) RemoveRoute(id string, commit bool) bool {
	if !h.store.HasRoute(id) {
		return false
	}
	if commit {
		h.record()
	}
	return h.store.RemoveRoute(id)
}

// Undo restores the most recent undo entry. It reports false on an empty stack.
func (h *History) Undo() bool {
	if len(h.undo) == 0 {
		return false
	}
	h.pending = nil
	h.redo = append(h.redo, h.store.Snapshot())
	last := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.Replace(last, false)
	metrics.Undos.Inc()
	return true
}

// Redo re-applies the most recently undone entry. It reports false on an empty stack.
func (h *History) Redo() bool {
	if len(h.redo) == 0 {
		return false
	}
	h.pending = nil
	h.undo = append(h.undo, h.store.Snapshot())
	last := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.Replace(last, false)
	metrics.Redos.Inc()
	return true
}

// Replace swaps in snap through the store's bulk replace. With recordHistory
// the current state becomes an undo step first.
func (h *History) Replace(snap Snapshot, recordHistory bool) {
	if recordHistory {
		h.record()
	}
	h.store.BulkReplace(snap)
}

// Load replaces the state with doc (no selection, select mode) and forgets
// both stacks.
func (h *History) Load(doc models.Document) {
	h.undo = nil
	h.redo = nil
	h.pending = nil
	h.store.BulkReplace(SnapshotOf(doc))
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Depth returns the sizes of the undo and redo stacks.
func (h *History) Depth() (undo, redo int) {
	return len(h.undo), len(h.redo)
}

// Capacity returns the maximum undo depth.
func (h *History) Capacity() int {
	return h.capacity
}
