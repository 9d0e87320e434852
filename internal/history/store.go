// Package history persists completed searches to SQLite so that the HTTP API
// can list and replay them.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	apperrors "github.com/agbru/narrowfind/internal/errors"
	"github.com/agbru/narrowfind/internal/orchestration"
)

// Memory is the path of a private in-memory database.
const Memory = ":memory:"

// DefaultListLimit is used by List when limit is not positive.
const DefaultListLimit = 50

// MaxListLimit caps List.
const MaxListLimit = 500

// ErrNotFound is returned by Get for an unknown run id.
var ErrNotFound = errors.New("run not found")

// Run is one recorded search.
type Run struct {
	ID         string
	GroupPos   int
	A          float64
	B          float64
	Tolerance  float64
	X          float64
	Iterations int
	Lines      []string
	Duration   time.Duration
	Source     string
	CreatedAt  time.Time
}

// FromOutcome builds a Run from a completed search. ok is false when the
// request was rejected before the search started. Progress lines are not kept
// for a search stopped by its context.
func FromOutcome(o orchestration.Outcome, source string) (Run, bool) {
	if !o.Report.OK() {
		return Run{}, false
	}
	lines := o.Lines
	if apperrors.IsContextError(o.Err) {
		lines = nil
	}
	p := o.Report.Params
	return Run{
		ID:         o.ID,
		GroupPos:   p.GroupPos,
		A:          p.A,
		B:          p.B,
		Tolerance:  p.Tolerance,
		X:          o.Result.X,
		Iterations: o.Result.Iterations,
		Lines:      lines,
		Duration:   o.Duration,
		Source:     source,
		CreatedAt:  o.StartedAt,
	}, true
}

// Store handles SQLite persistence of runs.
// All methods are safe for concurrent use.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates a Store at dbPath, creating the schema when needed.
// File databases use WAL mode.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == Memory {
		// Each connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != Memory {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		group_pos INTEGER NOT NULL,
		left_bound REAL NOT NULL,
		right_bound REAL NOT NULL,
		tolerance REAL NOT NULL,
		x REAL,
		iterations INTEGER NOT NULL,
		lines TEXT NOT NULL,
		duration_ns INTEGER NOT NULL,
		source TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Save inserts run. Saving an existing id replaces it.
func (s *Store) Save(ctx context.Context, run Run) error {
	if run.ID == "" {
		return errors.New("save run: empty id")
	}
	lines, err := json.Marshal(run.Lines)
	if err != nil {
		return fmt.Errorf("encode lines: %w", err)
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, group_pos, left_bound, right_bound, tolerance, x, iterations, lines, duration_ns, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			x = excluded.x,
			iterations = excluded.iterations,
			lines = excluded.lines,
			duration_ns = excluded.duration_ns
	`,
		run.ID, run.GroupPos, run.A, run.B, run.Tolerance, nullableFloat(run.X),
		run.Iterations, string(lines), int64(run.Duration), run.Source, run.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

// List returns the most recent runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	limit = min(limit, MaxListLimit)

	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, group_pos, left_bound, right_bound, tolerance, x, iterations, lines, duration_ns, source, created_at
		FROM runs
		ORDER BY created_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Get returns the run with the given id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx, `
		SELECT id, group_pos, left_bound, right_bound, tolerance, x, iterations, lines, duration_ns, source, created_at
		FROM runs
		WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	return run, err
}

// Count returns the number of stored runs.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs").Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run       Run
		x         sql.NullFloat64
		lines     string
		duration  int64
		createdAt int64
	)
	err := sc.Scan(&run.ID, &run.GroupPos, &run.A, &run.B, &run.Tolerance, &x,
		&run.Iterations, &lines, &duration, &run.Source, &createdAt)
	if err != nil {
		return Run{}, err
	}
	run.X = math.NaN()
	if x.Valid {
		run.X = x.Float64
	}
	if err := json.Unmarshal([]byte(lines), &run.Lines); err != nil {
		return Run{}, fmt.Errorf("decode lines of run %s: %w", run.ID, err)
	}
	run.Duration = time.Duration(duration)
	run.CreatedAt = time.Unix(0, createdAt)
	return run, nil
}

// nullableFloat stores NaN as NULL since SQLite has no NaN.
func nullableFloat(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}
