// File: internal/journal/journal.go
// Brief: SQLite run journal.

// Package journal persists one row per restack invocation so operators
// can answer "what restarted this stack, when, and how did it go"
// without scraping terminal history.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const journalRelPath = ".restack/state.sqlite"

// Store is the journal database handle.
type Store struct {
	db   *sql.DB
	path string
}

// Entry is one recorded invocation.
type Entry struct {
	ID        int64
	StartedAt time.Time
	Project   string
	Strategy  string
	DryRun    bool
	Targets   []string
	Outcome   string
	Error     string
	Elapsed   time.Duration
}

// Open opens (or creates) the journal under root.
func Open(root string) (*Store, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(absRoot, journalRelPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &Store{db: db, path: path}
	if err := s.initSchema(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA synchronous=NORMAL;`,
		`PRAGMA busy_timeout=5000;`,
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at TEXT NOT NULL,
			project TEXT NOT NULL,
			strategy TEXT NOT NULL,
			dry_run INTEGER NOT NULL,
			targets TEXT NOT NULL,
			outcome TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			elapsed_ms INTEGER NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init journal schema: %w", err)
		}
	}
	return nil
}

// Record appends one invocation to the journal.
func (s *Store) Record(ctx context.Context, e Entry) error {
	targets, err := json.Marshal(e.Targets)
	if err != nil {
		return fmt.Errorf("encode targets: %w", err)
	}
	dryRun := 0
	if e.DryRun {
		dryRun = 1
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (started_at, project, strategy, dry_run, targets, outcome, error, elapsed_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?);`,
		e.StartedAt.UTC().Format(time.RFC3339), e.Project, e.Strategy, dryRun,
		string(targets), e.Outcome, e.Error, e.Elapsed.Milliseconds())
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// Recent returns the most recent entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, project, strategy, dry_run, targets, outcome, error, elapsed_ms
		 FROM runs ORDER BY id DESC LIMIT ?;`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var startedAt, targets string
		var dryRun int
		var elapsedMS int64
		if err := rows.Scan(&e.ID, &startedAt, &e.Project, &e.Strategy, &dryRun, &targets, &e.Outcome, &e.Error, &elapsedMS); err != nil {
			return nil, err
		}
		if ts, err := time.Parse(time.RFC3339, startedAt); err == nil {
			e.StartedAt = ts
		}
		e.DryRun = dryRun != 0
		e.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		if err := json.Unmarshal([]byte(targets), &e.Targets); err != nil {
			return nil, fmt.Errorf("decode targets for run %d: %w", e.ID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
