// Package eventlog keeps the simulated status transitions of a workspace in a
// DuckDB file so the alert history can be queried after the fact.
package eventlog

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/marcboeker/go-duckdb"
	"github.com/plc-visualizer/twin-editor/internal/logs"
	"github.com/plc-visualizer/twin-editor/internal/models"
	"github.com/plc-visualizer/twin-editor/internal/simulator"
)

const defaultBatchSize = 256

// DuckStore buffers transitions and appends them to DuckDB in batches.
type DuckStore struct {
	mu        sync.Mutex
	db        *sql.DB
	dbPath    string
	batch     []simulator.Transition
	batchSize int
	seq       int64
	lastError error
}

// NewDuckStore creates a transition log for a workspace in dir.
func NewDuckStore(dir string, workspaceID string) (*DuckStore, error) {
	return NewDuckStoreAtPath(filepath.Join(dir, fmt.Sprintf("events_%s.duckdb", workspaceID)))
}

// NewDuckStoreAtPath creates a transition log at a specific path.
// An empty path keeps the log in memory.
func NewDuckStoreAtPath(dbPath string) (*DuckStore, error) {
	log := logs.For("eventlog")
	if dbPath != "" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("creating event log directory: %w", err)
		}
	}

	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		pragmas := []string{
			"PRAGMA memory_limit='256MB'",
			"PRAGMA threads=1",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				log.Warnf("[DuckStore] pragma %q failed: %v", pragma, err)
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS transitions (
			seq         BIGINT NOT NULL,
			at_ms       BIGINT NOT NULL,
			tick        BIGINT NOT NULL,
			element_id  VARCHAR NOT NULL,
			name        VARCHAR,
			from_status VARCHAR NOT NULL,
			to_status   VARCHAR NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	var seq int64
	if err := db.QueryRow(`SELECT COALESCE(MAX(seq), 0) FROM transitions`).Scan(&seq); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read sequence: %w", err)
	}

	log.Debugf("[DuckStore] transition log ready at %q", dbPath)
	return &DuckStore{
		db:        db,
		dbPath:    dbPath,
		batch:     make([]simulator.Transition, 0, defaultBatchSize),
		batchSize: defaultBatchSize,
		seq:       seq,
	}, nil
}

// Record buffers a transition. Full batches are flushed immediately.
func (ds *DuckStore) Record(t simulator.Transition) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	ds.batch = append(ds.batch, t)
	if len(ds.batch) >= ds.batchSize {
		if err := ds.flushLocked(); err != nil {
			ds.lastError = err
			logs.For("eventlog").Errorf("[DuckStore] flush error: %v", err)
		}
	}
}

// LastError returns the last error that occurred during a batch flush.
func (ds *DuckStore) LastError() error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.lastError
}

// Flush writes any buffered transitions.
func (ds *DuckStore) Flush() error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.flushLocked()
}

// flushLocked writes the batch with the native Appender API.
func (ds *DuckStore) flushLocked() error {
	if len(ds.batch) == 0 {
		return nil
	}

	conn, err := ds.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	err = conn.Raw(func(driverConn interface{}) error {
		dConn, ok := driverConn.(*duckdb.Conn)
		if !ok {
			return fmt.Errorf("failed to cast to duckdb.Conn")
		}

		appender, err := duckdb.NewAppenderFromConn(dConn, "", "transitions")
		if err != nil {
			return fmt.Errorf("failed to create appender: %w", err)
		}
		defer appender.Close()

		for i, t := range ds.batch {
			err := appender.AppendRow(
				ds.seq+int64(i)+1,
				t.At.UnixMilli(),
				int64(t.Tick),
				t.ElementID,
				t.Name,
				string(t.From),
				string(t.To),
			)
			if err != nil {
				return fmt.Errorf("failed to append row %d: %w", i, err)
			}
		}
		return appender.Flush()
	})
	if err != nil {
		return fmt.Errorf("appender error: %w", err)
	}

	ds.seq += int64(len(ds.batch))
	ds.batch = ds.batch[:0]
	return nil
}

// Recent returns up to limit transitions, newest first.
func (ds *DuckStore) Recent(ctx context.Context, limit int) ([]simulator.Transition, error) {
	if err := ds.Flush(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := ds.db.QueryContext(ctx, `
		SELECT at_ms, tick, element_id, name, from_status, to_status
		FROM transitions
		ORDER BY seq DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	out := make([]simulator.Transition, 0, limit)
	for rows.Next() {
		var (
			atMs     int64
			tick     int64
			t        simulator.Transition
			from, to string
			name     sql.NullString
		)
		if err := rows.Scan(&atMs, &tick, &t.ElementID, &name, &from, &to); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		t.At = time.UnixMilli(atMs)
		t.Tick = uint64(tick)
		t.Name = name.String
		t.From = models.Status(from)
		t.To = models.Status(to)
		out = append(out, t)
	}
	return out, rows.Err()
}

// CountByStatus returns how many transitions entered each status.
func (ds *DuckStore) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	if err := ds.Flush(); err != nil {
		return nil, err
	}

	rows, err := ds.db.QueryContext(ctx, `SELECT to_status, COUNT(*) FROM transitions GROUP BY to_status`)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		counts[models.Status(status)] = n
	}
	return counts, rows.Err()
}

// Close flushes pending transitions and closes the database. The file is kept.
func (ds *DuckStore) Close() error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	err := ds.flushLocked()
	if cerr := ds.db.Close(); err == nil {
		err = cerr
	}
	return err
}

var _ simulator.TransitionSink = (*DuckStore)(nil)
