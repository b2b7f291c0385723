// mock_storage.go - Mock storage implementation for testing
package testutil

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/plc-visualizer/twin-editor/internal/models"
	"github.com/plc-visualizer/twin-editor/internal/storage"
)

// MockStorage implements storage.Store in memory for testing.
type MockStorage struct {
	mu      sync.RWMutex
	layouts map[string]*models.LayoutInfo
	docs    map[string]models.Document
	seq     int

	// PutCalls counts Save and Put calls.
	PutCalls int
	// FailPut makes Save and Put return this error when set.
	FailPut error
}

// NewMockStorage creates an empty mock storage.
func NewMockStorage() *MockStorage {
	return &MockStorage{
		layouts: make(map[string]*models.LayoutInfo),
		docs:    make(map[string]models.Document),
	}
}

func (m *MockStorage) Save(name string, doc models.Document) (*models.LayoutInfo, error) {
	m.mu.Lock()
	m.seq++
	id := fmt.Sprintf("test-%d", m.seq)
	m.mu.Unlock()
	return m.Put(id, name, doc)
}

func (m *MockStorage) Put(id, name string, doc models.Document) (*models.LayoutInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PutCalls++
	if m.FailPut != nil {
		return nil, m.FailPut
	}
	info := &models.LayoutInfo{
		ID:           id,
		Name:         name,
		SavedAt:      time.Now(),
		ElementCount: len(doc.Elements),
		RouteCount:   len(doc.Routes),
	}
	m.layouts[id] = info
	m.docs[id] = doc.Clone()
	copied := *info
	return &copied, nil
}

func (m *MockStorage) Get(id string) (*models.LayoutInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.layouts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	copied := *info
	return &copied, nil
}

func (m *MockStorage) Load(id string) (models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[id]
	if !ok {
		return models.Document{}, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	return doc.Clone(), nil
}

func (m *MockStorage) List(limit int) ([]*models.LayoutInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]*models.LayoutInfo, 0, len(m.layouts))
	for _, info := range m.layouts {
		copied := *info
		list = append(list, &copied)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].SavedAt.After(list[j].SavedAt) })
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (m *MockStorage) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.layouts[id]; !ok {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	delete(m.layouts, id)
	delete(m.docs, id)
	return nil
}

func (m *MockStorage) Rename(id string, newName string) (*models.LayoutInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, ok := m.layouts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	info.Name = newName
	copied := *info
	return &copied, nil
}

func (m *MockStorage) Close() error { return nil }

// Puts returns the number of Save/Put calls so far.
func (m *MockStorage) Puts() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.PutCalls
}

var _ storage.Store = (*MockStorage)(nil)
