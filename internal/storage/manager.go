package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/plc-visualizer/twin-editor/internal/logs"
	"github.com/plc-visualizer/twin-editor/internal/models"
	"github.com/plc-visualizer/twin-editor/internal/parser"
)

const layoutExt = ".layout.json"

// envelope is the on-disk file: metadata plus the JSON document.
type envelope struct {
	Info     models.LayoutInfo `json:"info"`
	Document json.RawMessage   `json:"document"`
}

// LocalStore implements Store using one JSON file per layout in a directory.
type LocalStore struct {
	mu      sync.RWMutex
	dir     string
	layouts map[string]*models.LayoutInfo
	codec   *parser.JSONCodec
}

// NewLocalStore creates a new LocalStore and indexes the files already in dir.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating layout directory: %w", err)
	}

	s := &LocalStore{
		dir:     dir,
		layouts: make(map[string]*models.LayoutInfo),
		codec:   parser.NewJSONCodec(),
	}
	if err := s.index(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *LocalStore) index() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("reading layout directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), layoutExt) {
			continue
		}
		env, err := s.readEnvelope(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			logs.For("storage").Warnf("[LocalStore] skipping %s: %v", entry.Name(), err)
			continue
		}
		info := env.Info
		s.layouts[info.ID] = &info
	}
	return nil
}

func (s *LocalStore) path(id string) string {
	return filepath.Join(s.dir, id+layoutExt)
}

func (s *LocalStore) readEnvelope(path string) (*envelope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding layout file: %w", err)
	}
	return &env, nil
}

func (s *LocalStore) write(info *models.LayoutInfo, doc *models.Document) error {
	var payload json.RawMessage
	if doc != nil {
		var buf bytes.Buffer
		if err := s.codec.Encode(&buf, *doc); err != nil {
			return fmt.Errorf("encoding layout: %w", err)
		}
		payload = buf.Bytes()
	} else {
		env, err := s.readEnvelope(s.path(info.ID))
		if err != nil {
			return fmt.Errorf("reading layout: %w", err)
		}
		payload = env.Document
	}

	data, err := json.Marshal(envelope{Info: *info, Document: payload})
	if err != nil {
		return fmt.Errorf("encoding layout file: %w", err)
	}

	// Write to a temp file and rename so readers never see a partial layout.
	tmp := s.path(info.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing layout file: %w", err)
	}
	if err := os.Rename(tmp, s.path(info.ID)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing layout file: %w", err)
	}
	return nil
}

// Save stores a layout under a fresh uuid.
func (s *LocalStore) Save(name string, doc models.Document) (*models.LayoutInfo, error) {
	return s.Put(uuid.New().String(), name, doc)
}

// Put stores a layout under id.
func (s *LocalStore) Put(id, name string, doc models.Document) (*models.LayoutInfo, error) {
	info := newInfo(id, name, doc)
	info.SavedAt = time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(info, &doc); err != nil {
		return nil, err
	}
	s.layouts[id] = info
	copied := *info
	return &copied, nil
}

// Get retrieves layout metadata by ID.
func (s *LocalStore) Get(id string) (*models.LayoutInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.layouts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	copied := *info
	return &copied, nil
}

// Load reads and decodes a layout.
func (s *LocalStore) Load(id string) (models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.layouts[id]; !ok {
		return models.Document{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	env, err := s.readEnvelope(s.path(id))
	if err != nil {
		return models.Document{}, fmt.Errorf("reading layout: %w", err)
	}
	return s.codec.Decode(bytes.NewReader(env.Document))
}

// List returns the most recent layouts.
func (s *LocalStore) List(limit int) ([]*models.LayoutInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*models.LayoutInfo, 0, len(s.layouts))
	for _, info := range s.layouts {
		copied := *info
		list = append(list, &copied)
	}

	// Sort by SavedAt desc
	sort.Slice(list, func(i, j int) bool {
		return list[i].SavedAt.After(list[j].SavedAt)
	})

	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}

	return list, nil
}

// Delete removes a layout from storage.
func (s *LocalStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.layouts[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting layout file: %w", err)
	}

	delete(s.layouts, id)
	return nil
}

// Rename updates the display name of a layout.
func (s *LocalStore) Rename(id string, newName string) (*models.LayoutInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, ok := s.layouts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	renamed := *info
	renamed.Name = newName
	if err := s.write(&renamed, nil); err != nil {
		return nil, err
	}
	*info = renamed
	return &renamed, nil
}

// Close is a no-op for the local store.
func (s *LocalStore) Close() error {
	return nil
}
