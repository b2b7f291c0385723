package storage

import (
	"errors"
	"fmt"

	"github.com/plc-visualizer/twin-editor/internal/models"
)

// ErrNotFound is returned for unknown layout ids.
var ErrNotFound = errors.New("layout not found")

// Store defines the interface for saved layouts.
type Store interface {
	// Save stores doc under a new id.
	Save(name string, doc models.Document) (*models.LayoutInfo, error)
	// Put stores doc under id, replacing any previous layout with that id.
	Put(id, name string, doc models.Document) (*models.LayoutInfo, error)
	Get(id string) (*models.LayoutInfo, error)
	Load(id string) (models.Document, error)
	// List returns the most recently saved layouts first.
	List(limit int) ([]*models.LayoutInfo, error)
	Delete(id string) error
	Rename(id string, newName string) (*models.LayoutInfo, error)
	Close() error
}

// Backend names accepted by Open.
const (
	BackendLocal  = "local"
	BackendSQLite = "sqlite"
)

// Open creates the store selected by backend. For the local backend path is a
// directory; for sqlite it is the database file.
func Open(backend, path string) (Store, error) {
	switch backend {
	case "", BackendLocal:
		return NewLocalStore(path)
	case BackendSQLite:
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

func newInfo(id, name string, doc models.Document) *models.LayoutInfo {
	return &models.LayoutInfo{
		ID:           id,
		Name:         name,
		ElementCount: len(doc.Elements),
		RouteCount:   len(doc.Routes),
	}
}
