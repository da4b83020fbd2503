// Package results persists benchmark runs and their per-trial timings in
// SQLite so that runs can be compared and charted later.
package results

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var (
	// ErrRunNotFound is returned when a run id matches nothing.
	ErrRunNotFound = errors.New("run not found")
	// ErrAmbiguousRunID is returned when a run id prefix matches several runs.
	ErrAmbiguousRunID = errors.New("run id prefix is ambiguous")
)

// Run is one stored benchmark run. Timings are in microseconds; the per-event
// figures are normalized by NormalizedBy events.
type Run struct {
	RunID          string    `json:"run_id"`
	InputPath      string    `json:"input_path"`
	Algorithm      string    `json:"algorithm"`
	Strategy       string    `json:"strategy"`
	Radius         float64   `json:"radius"`
	Power          float64   `json:"power"`
	SelectionMode  string    `json:"selection_mode"`
	SelectionValue float64   `json:"selection_value"`
	Trials         int       `json:"trials"`
	Events         int       `json:"events"`
	SkipEvents     int       `json:"skip_events"`
	Normalization  string    `json:"normalization"`
	NormalizedBy   int       `json:"normalized_by"`
	MeanTotalUs    float64   `json:"mean_total_us"`
	MeanUs         float64   `json:"mean_us"`
	StdDevUs       float64   `json:"stddev_us"`
	MinUs          float64   `json:"min_us"`
	Version        string    `json:"version"`
	CreatedAt      int64     `json:"created_at"`
	TrialUs        []float64 `json:"trial_us,omitempty"`
}

// Created returns CreatedAt as a time.
func (r *Run) Created() time.Time { return time.Unix(0, r.CreatedAt) }

// Store is a results database.
type Store struct {
	db   *sql.DB
	path string
}

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA foreign_keys=ON",
}

// Open opens (creating if needed) the database at path without touching the
// schema. Use MigrateUp before reading or writing runs.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open results database: %w", err)
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", p, err)
		}
	}
	return &Store{db: db, path: path}, nil
}

// OpenAndMigrate opens path and brings its schema up to date.
func OpenAndMigrate(path string) (*Store, error) {
	s, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := s.MigrateUp(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying handle for read-only tooling.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the database path the store was opened with.
func (s *Store) Path() string { return s.path }

// InsertRun persists run and its trial timings. If RunID is empty, a UUID is
// generated; if CreatedAt is zero, the current time is used.
func (s *Store) InsertRun(run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = time.Now().UnixNano()
	}

	return retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		_, err = tx.Exec(`
			INSERT INTO bench_runs (
				run_id, input_path, algorithm, strategy, radius, power,
				selection_mode, selection_value, trials, events, skip_events,
				normalization, normalized_by, mean_total_us, mean_us, stddev_us,
				min_us, version, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, run.InputPath, run.Algorithm, run.Strategy, run.Radius, run.Power,
			run.SelectionMode, run.SelectionValue, run.Trials, run.Events, run.SkipEvents,
			run.Normalization, run.NormalizedBy, run.MeanTotalUs, run.MeanUs, run.StdDevUs,
			run.MinUs, run.Version, run.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		stmt, err := tx.Prepare(`INSERT INTO bench_trials (run_id, trial, elapsed_us) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare trial insert: %w", err)
		}
		defer stmt.Close()
		for i, us := range run.TrialUs {
			if _, err := stmt.Exec(run.RunID, i, us); err != nil {
				return fmt.Errorf("insert trial %d: %w", i, err)
			}
		}
		return tx.Commit()
	})
}

const runColumns = `run_id, input_path, algorithm, strategy, radius, power,
	selection_mode, selection_value, trials, events, skip_events,
	normalization, normalized_by, mean_total_us, mean_us, stddev_us,
	min_us, version, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	err := row.Scan(
		&r.RunID, &r.InputPath, &r.Algorithm, &r.Strategy, &r.Radius, &r.Power,
		&r.SelectionMode, &r.SelectionValue, &r.Trials, &r.Events, &r.SkipEvents,
		&r.Normalization, &r.NormalizedBy, &r.MeanTotalUs, &r.MeanUs, &r.StdDevUs,
		&r.MinUs, &r.Version, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetRun returns one run with its trial timings. A unique prefix of the run
// id is accepted.
func (s *Store) GetRun(runID string) (*Run, error) {
	if runID == "" {
		return nil, fmt.Errorf("%w: empty run id", ErrRunNotFound)
	}
	rows, err := s.db.Query(`SELECT `+runColumns+` FROM bench_runs WHERE substr(run_id, 1, ?) = ? ORDER BY run_id LIMIT 2`,
		len(runID), runID)
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	var found []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan run: %w", err)
		}
		found = append(found, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch {
	case len(found) == 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	case len(found) > 1 && found[0].RunID != runID:
		return nil, fmt.Errorf("%w: %q", ErrAmbiguousRunID, runID)
	}

	run := found[0]
	if run.TrialUs, err = s.trialTimings(run.RunID); err != nil {
		return nil, err
	}
	return run, nil
}

func (s *Store) trialTimings(runID string) ([]float64, error) {
	rows, err := s.db.Query(`SELECT elapsed_us FROM bench_trials WHERE run_id = ? ORDER BY trial`, runID)
	if err != nil {
		return nil, fmt.Errorf("query trials: %w", err)
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var us float64
		if err := rows.Scan(&us); err != nil {
			return nil, fmt.Errorf("scan trial: %w", err)
		}
		out = append(out, us)
	}
	return out, rows.Err()
}

// ListRuns returns the most recent runs first, without trial timings. A
// non-positive limit returns every run.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM bench_runs ORDER BY created_at DESC, run_id`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run and its trials.
func (s *Store) DeleteRun(runID string) error {
	return retryOnBusy(func() error {
		result, err := s.db.Exec(`DELETE FROM bench_runs WHERE run_id = ?`, runID)
		if err != nil {
			return fmt.Errorf("delete run: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil
	})
}
