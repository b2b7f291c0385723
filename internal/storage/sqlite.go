package storage

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/plc-visualizer/twin-editor/internal/models"
	"github.com/plc-visualizer/twin-editor/internal/parser"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// SQLiteStore keeps layouts in a single SQLite table as JSON payloads.
type SQLiteStore struct {
	db    *sql.DB
	path  string
	codec *parser.JSONCodec
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		path = "layouts.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; sqlite serializes anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS layouts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		saved_at INTEGER NOT NULL,
		element_count INTEGER NOT NULL,
		route_count INTEGER NOT NULL,
		payload BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create layouts table: %w", err)
	}
	return &SQLiteStore{db: db, path: path, codec: parser.NewJSONCodec()}, nil
}

// Save stores a layout under a fresh uuid.
func (s *SQLiteStore) Save(name string, doc models.Document) (*models.LayoutInfo, error) {
	return s.Put(uuid.New().String(), name, doc)
}

// Put upserts a layout under id.
func (s *SQLiteStore) Put(id, name string, doc models.Document) (*models.LayoutInfo, error) {
	var buf bytes.Buffer
	if err := s.codec.Encode(&buf, doc); err != nil {
		return nil, fmt.Errorf("encode layout: %w", err)
	}
	info := newInfo(id, name, doc)
	info.SavedAt = time.Now().UTC().Truncate(time.Microsecond)

	_, err := s.db.Exec(`INSERT INTO layouts (id, name, saved_at, element_count, route_count, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			saved_at = excluded.saved_at,
			element_count = excluded.element_count,
			route_count = excluded.route_count,
			payload = excluded.payload`,
		info.ID, info.Name, info.SavedAt.UnixMicro(), info.ElementCount, info.RouteCount, buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("upsert layout: %w", err)
	}
	return info, nil
}

func scanInfo(row interface{ Scan(...any) error }) (*models.LayoutInfo, error) {
	var info models.LayoutInfo
	var savedAt int64
	if err := row.Scan(&info.ID, &info.Name, &savedAt, &info.ElementCount, &info.RouteCount); err != nil {
		return nil, err
	}
	info.SavedAt = time.UnixMicro(savedAt).UTC()
	return &info, nil
}

// Get retrieves layout metadata by ID.
func (s *SQLiteStore) Get(id string) (*models.LayoutInfo, error) {
	row := s.db.QueryRow(`SELECT id, name, saved_at, element_count, route_count FROM layouts WHERE id = ?`, id)
	info, err := scanInfo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("select layout: %w", err)
	}
	return info, nil
}

// Load reads and decodes a layout.
func (s *SQLiteStore) Load(id string) (models.Document, error) {
	var payload []byte
	err := s.db.QueryRow(`SELECT payload FROM layouts WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Document{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return models.Document{}, fmt.Errorf("select payload: %w", err)
	}
	return s.codec.Decode(bytes.NewReader(payload))
}

// List returns the most recent layouts.
func (s *SQLiteStore) List(limit int) ([]*models.LayoutInfo, error) {
	query := `SELECT id, name, saved_at, element_count, route_count FROM layouts ORDER BY saved_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("select layouts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	list := []*models.LayoutInfo{}
	for rows.Next() {
		info, err := scanInfo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		list = append(list, info)
	}
	return list, rows.Err()
}

// Delete removes a layout.
func (s *SQLiteStore) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM layouts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete layout: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Rename updates the display name of a layout.
func (s *SQLiteStore) Rename(id string, newName string) (*models.LayoutInfo, error) {
	res, err := s.db.Exec(`UPDATE layouts SET name = ? WHERE id = ?`, newName, id)
	if err != nil {
		return nil, fmt.Errorf("rename layout: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.Get(id)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
