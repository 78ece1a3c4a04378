//go:build sqlite

package track

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists runs and metrics in a SQLite database file.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteStore creates a store backed by the database at path. The file
// is created on Init if it does not exist.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run Run) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	config, err := json.Marshal(run.Config)
	if err != nil {
		return fmt.Errorf("encode run config: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, name, started_at, config)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			started_at = excluded.started_at,
			config = excluded.config
	`, run.ID, run.Name, run.StartedAt.UnixNano(), string(config))
	return err
}

func (s *SQLiteStore) LogMetric(ctx context.Context, metric Metric) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	at := metric.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO metrics (run_id, name, step, value, at)
		VALUES (?, ?, ?, ?, ?)
	`, metric.RunID, metric.Name, metric.Step, metric.Value, at.UnixNano())
	return err
}

func (s *SQLiteStore) Metrics(ctx context.Context, runID, name string) ([]Metric, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT run_id, name, step, value, at
		FROM metrics
		WHERE run_id = ? AND name = ?
		ORDER BY step, at
	`, runID, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var series []Metric
	for rows.Next() {
		var m Metric
		var at int64
		if err := rows.Scan(&m.RunID, &m.Name, &m.Step, &m.Value, &at); err != nil {
			return nil, err
		}
		m.At = time.Unix(0, at).UTC()
		series = append(series, m)
	}
	return series, rows.Err()
}

func (s *SQLiteStore) Runs(ctx context.Context) ([]Run, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, name, started_at, config
		FROM runs
		ORDER BY started_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var startedAt int64
		var config string
		if err := rows.Scan(&run.ID, &run.Name, &startedAt, &config); err != nil {
			return nil, err
		}
		run.StartedAt = time.Unix(0, startedAt).UTC()
		if err := json.Unmarshal([]byte(config), &run.Config); err != nil {
			return nil, fmt.Errorf("decode run %s config: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			config TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS metrics (
			run_id TEXT NOT NULL,
			name TEXT NOT NULL,
			step INTEGER NOT NULL,
			value REAL NOT NULL,
			at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS metrics_by_series ON metrics (run_id, name, step);
	`)
	return err
}
