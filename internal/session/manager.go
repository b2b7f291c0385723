// Package session manages the editor workspaces served over the API.
package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/plc-visualizer/twin-editor/internal/logs"
	"github.com/plc-visualizer/twin-editor/internal/metrics"
)

// MaxSessions limits concurrent workspaces to prevent memory exhaustion
const MaxSessions = 10

// SessionMaxAge is how long an idle workspace is kept before cleanup
const SessionMaxAge = 30 * time.Minute

// SessionKeepAliveWindow is how long to keep workspaces that are actively being used
const SessionKeepAliveWindow = 5 * time.Minute

// ErrTooManySessions is returned when every slot holds a recently used workspace.
var ErrTooManySessions = errors.New("too many active sessions")

// Info describes a workspace for listings.
type Info struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"createdAt"`
	LastAccessed time.Time `json:"lastAccessed"`
	Subscribers  int       `json:"subscribers"`
}

type entry struct {
	ws           *Workspace
	lastAccessed time.Time
}

// Manager handles active editor workspaces.
type Manager struct {
	mu         sync.RWMutex
	workspaces map[string]*entry
	opts       Options
}

// NewManager creates a workspace manager.
func NewManager(opts Options) *Manager {
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = MaxSessions
	}
	return &Manager{
		workspaces: make(map[string]*entry),
		opts:       opts,
	}
}

// Create starts a new workspace, evicting the least recently used idle one when at capacity.
func (m *Manager) Create(seed bool) (*Workspace, error) {
	if err := m.cleanupOldSessionsIfNeeded(); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	ws, err := NewWorkspace(id, m.opts, seed)
	if err != nil {
		return nil, fmt.Errorf("creating workspace: %w", err)
	}

	m.mu.Lock()
	m.workspaces[id] = &entry{ws: ws, lastAccessed: time.Now()}
	count := len(m.workspaces)
	m.mu.Unlock()

	metrics.Sessions.Set(float64(count))
	logs.For("session").Infof("[Manager] Created workspace %s (seed=%v)", shortID(id), seed)
	return ws, nil
}

// cleanupOldSessionsIfNeeded frees one slot when at capacity.
func (m *Manager) cleanupOldSessionsIfNeeded() error {
	m.mu.Lock()
	if len(m.workspaces) < m.opts.MaxSessions {
		m.mu.Unlock()
		return nil
	}

	keepAliveCutoff := time.Now().Add(-SessionKeepAliveWindow)
	var oldestID string
	var oldest time.Time
	for id, e := range m.workspaces {
		if e.lastAccessed.After(keepAliveCutoff) {
			continue
		}
		if oldestID == "" || e.lastAccessed.Before(oldest) {
			oldestID, oldest = id, e.lastAccessed
		}
	}
	if oldestID == "" {
		m.mu.Unlock()
		return ErrTooManySessions
	}
	victim := m.workspaces[oldestID]
	delete(m.workspaces, oldestID)
	count := len(m.workspaces)
	m.mu.Unlock()

	victim.ws.Close()
	metrics.Sessions.Set(float64(count))
	logs.For("session").Infof("[Manager] Cleaned up idle workspace %s to free a slot", shortID(oldestID))
	return nil
}

// CleanupOldSessions closes workspaces not accessed within maxAge.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) {
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	var victims []*entry
	for id, e := range m.workspaces {
		if e.lastAccessed.Before(cutoff) {
			victims = append(victims, e)
			delete(m.workspaces, id)
		}
	}
	count := len(m.workspaces)
	m.mu.Unlock()

	for _, e := range victims {
		e.ws.Close()
		logs.For("session").Infof("[Manager] Cleaned up aged workspace %s (last accessed: %s ago)",
			shortID(e.ws.ID), time.Since(e.lastAccessed).Round(time.Second))
	}
	metrics.Sessions.Set(float64(count))
}

// Get returns a workspace by ID.
func (m *Manager) Get(id string) (*Workspace, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.workspaces[id]
	if !ok {
		return nil, false
	}
	return e.ws, true
}

// TouchSession updates the LastAccessed timestamp for a workspace.
// This should be called whenever a workspace is actively being used
// to prevent it from being cleaned up.
func (m *Manager) TouchSession(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.workspaces[id]
	if !ok {
		return false
	}
	e.lastAccessed = time.Now()
	return true
}

// Delete closes and removes a workspace.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	e, ok := m.workspaces[id]
	if ok {
		delete(m.workspaces, id)
	}
	count := len(m.workspaces)
	m.mu.Unlock()

	if !ok {
		return false
	}
	e.ws.Close()
	metrics.Sessions.Set(float64(count))
	return true
}

// List returns every workspace, most recently used first.
func (m *Manager) List() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]Info, 0, len(m.workspaces))
	for id, e := range m.workspaces {
		list = append(list, Info{
			ID:           id,
			CreatedAt:    e.ws.CreatedAt,
			LastAccessed: e.lastAccessed,
			Subscribers:  e.ws.Feed.Len(),
		})
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].LastAccessed.After(list[j].LastAccessed)
	})
	return list
}

// Len returns the number of open workspaces.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.workspaces)
}

// Close shuts down every workspace.
func (m *Manager) Close() {
	m.mu.Lock()
	all := m.workspaces
	m.workspaces = make(map[string]*entry)
	m.mu.Unlock()

	for _, e := range all {
		e.ws.Close()
	}
	metrics.Sessions.Set(0)
}
