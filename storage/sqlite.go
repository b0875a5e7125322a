// Package storage indexes runs and their episodes in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pthm-cable/hummingbird/telemetry"
)

// Run is one invocation of the environment.
type Run struct {
	ID         string
	Mode       string
	Seed       int64
	Training   bool
	StartedAt  time.Time
	EndedAt    time.Time // zero while running
	ConfigYAML string
}

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

// Init opens the database and creates the schema. Calling it again is a no-op.
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
	// one writer; the environment loop is single threaded
	db.SetMaxOpenConns(1)

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

func (s *SQLiteStore) CreateRun(ctx context.Context, run Run) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, mode, seed, training, started_at, config_yaml)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, run.Mode, run.Seed, run.Training, formatTime(run.StartedAt), run.ConfigYAML)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return nil
}

func (s *SQLiteStore) FinishRun(ctx context.Context, id string, endedAt time.Time) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	res, err := db.ExecContext(ctx, `UPDATE runs SET ended_at = ? WHERE id = ?`, formatTime(endedAt), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (Run, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Run{}, false, err
	}

	row := db.QueryRowContext(ctx, `
		SELECT id, mode, seed, training, started_at, ended_at, config_yaml
		FROM runs WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, false, nil
		}
		return Run{}, false, err
	}
	return run, true, nil
}

// ListRuns returns all runs, most recent first.
func (s *SQLiteStore) ListRuns(ctx context.Context) ([]Run, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, mode, seed, training, started_at, ended_at, config_yaml
		FROM runs ORDER BY started_at DESC, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// SaveEpisode stores an episode summary. Saving the same episode twice
// replaces the earlier row.
func (s *SQLiteStore) SaveEpisode(ctx context.Context, runID string, r telemetry.EpisodeRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO episodes (
			run_id, episode, steps, nectar, reward, feed_events,
			boundary_hits, flowers_emptied, spawn, spawn_attempts, interrupted
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, episode) DO UPDATE SET
			steps = excluded.steps,
			nectar = excluded.nectar,
			reward = excluded.reward,
			feed_events = excluded.feed_events,
			boundary_hits = excluded.boundary_hits,
			flowers_emptied = excluded.flowers_emptied,
			spawn = excluded.spawn,
			spawn_attempts = excluded.spawn_attempts,
			interrupted = excluded.interrupted
	`, runID, r.Episode, r.Steps, r.NectarObtained, r.CumulativeReward, r.FeedEvents,
		r.BoundaryHits, r.FlowersEmptied, r.Spawn, r.SpawnAttempts, r.Interrupted)
	if err != nil {
		return fmt.Errorf("insert episode %d of run %s: %w", r.Episode, runID, err)
	}
	return nil
}

// ListEpisodes returns a run's episodes in episode order.
func (s *SQLiteStore) ListEpisodes(ctx context.Context, runID string) ([]telemetry.EpisodeRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT episode, steps, nectar, reward, feed_events, boundary_hits,
			flowers_emptied, spawn, spawn_attempts, interrupted
		FROM episodes WHERE run_id = ? ORDER BY episode
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []telemetry.EpisodeRecord
	for rows.Next() {
		var r telemetry.EpisodeRecord
		if err := rows.Scan(&r.Episode, &r.Steps, &r.NectarObtained, &r.CumulativeReward,
			&r.FeedEvents, &r.BoundaryHits, &r.FlowersEmptied, &r.Spawn,
			&r.SpawnAttempts, &r.Interrupted); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
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

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run     Run
		started string
		ended   sql.NullString
	)
	if err := row.Scan(&run.ID, &run.Mode, &run.Seed, &run.Training, &started, &ended, &run.ConfigYAML); err != nil {
		return Run{}, err
	}
	var err error
	if run.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return Run{}, fmt.Errorf("parse started_at of run %s: %w", run.ID, err)
	}
	if ended.Valid {
		if run.EndedAt, err = time.Parse(time.RFC3339Nano, ended.String); err != nil {
			return Run{}, fmt.Errorf("parse ended_at of run %s: %w", run.ID, err)
		}
	}
	return run, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			mode TEXT NOT NULL,
			seed INTEGER NOT NULL,
			training INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT,
			config_yaml TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS episodes (
			run_id TEXT NOT NULL REFERENCES runs(id),
			episode INTEGER NOT NULL,
			steps INTEGER NOT NULL,
			nectar REAL NOT NULL,
			reward REAL NOT NULL,
			feed_events INTEGER NOT NULL,
			boundary_hits INTEGER NOT NULL,
			flowers_emptied INTEGER NOT NULL,
			spawn TEXT NOT NULL,
			spawn_attempts INTEGER NOT NULL,
			interrupted INTEGER NOT NULL,
			PRIMARY KEY (run_id, episode)
		);
	`)
	return err
}
