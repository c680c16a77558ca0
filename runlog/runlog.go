// Package runlog persists scrape and airdrop run history in SQLite so
// operators can audit what was extracted and what was sent.
package runlog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Run kinds.
const (
	KindScrape  = "scrape"
	KindAirdrop = "airdrop"
)

// Run is one recorded run of either kind. Detail carries a JSON blob
// whose shape depends on Kind: the commenter list for scrapes, the
// distribution plan summary for airdrops.
type Run struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	PageURL    string `json:"pageUrl,omitempty"`
	Strategy   string `json:"strategy,omitempty"`
	Commenters int    `json:"commenters,omitempty"`
	Resolved   int    `json:"resolved,omitempty"`
	Detail     string `json:"detail,omitempty"`
	CreatedAt  int64  `json:"createdAt"`
}

// Batch is one transaction batch outcome attached to an airdrop run.
type Batch struct {
	RunID     string `json:"runId"`
	Index     int    `json:"index"`
	Signature string `json:"signature,omitempty"`
	Confirmed bool   `json:"confirmed"`
	Error     string `json:"error,omitempty"`
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	page_url    TEXT NOT NULL DEFAULT '',
	strategy    TEXT NOT NULL DEFAULT '',
	commenters  INTEGER NOT NULL DEFAULT 0,
	resolved    INTEGER NOT NULL DEFAULT 0,
	detail      TEXT NOT NULL DEFAULT '',
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);

CREATE TABLE IF NOT EXISTS batches (
	run_id     TEXT NOT NULL REFERENCES runs(id),
	batch_idx  INTEGER NOT NULL,
	signature  TEXT NOT NULL DEFAULT '',
	confirmed  INTEGER NOT NULL DEFAULT 0,
	error      TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, batch_idx)
);
`

// Store is the run history store. Safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the run store at path. Parent
// directories are created. ":memory:" works for tests.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("runlog: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("runlog: open: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("runlog: %s: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("runlog: schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun inserts a run and returns its ID. An empty ID is assigned
// a time-ordered UUID so runs sort naturally.
func (s *Store) RecordRun(r Run) (string, error) {
	if r.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return "", fmt.Errorf("runlog: run id: %w", err)
		}
		r.ID = id.String()
	}
	if r.CreatedAt == 0 {
		r.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.Exec(
		`INSERT INTO runs (id, kind, page_url, strategy, commenters, resolved, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Kind, r.PageURL, r.Strategy, r.Commenters, r.Resolved, r.Detail, r.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("runlog: insert run: %w", err)
	}
	return r.ID, nil
}

// RecordBatches attaches batch outcomes to an airdrop run.
func (s *Store) RecordBatches(runID string, batches []Batch) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("runlog: begin: %w", err)
	}
	defer tx.Rollback()

	for i, b := range batches {
		if _, err := tx.Exec(
			`INSERT INTO batches (run_id, batch_idx, signature, confirmed, error)
			 VALUES (?, ?, ?, ?, ?)`,
			runID, i, b.Signature, boolInt(b.Confirmed), b.Error,
		); err != nil {
			return fmt.Errorf("runlog: insert batch %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("runlog: commit: %w", err)
	}
	return nil
}

// RecentRuns returns the newest runs first, capped at limit.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	rows, err := s.db.Query(
		`SELECT id, kind, page_url, strategy, commenters, resolved, detail, created_at
		 FROM runs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("runlog: list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Kind, &r.PageURL, &r.Strategy,
			&r.Commenters, &r.Resolved, &r.Detail, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("runlog: scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Batches returns the batch outcomes for a run in batch order.
func (s *Store) Batches(runID string) ([]Batch, error) {
	rows, err := s.db.Query(
		`SELECT run_id, batch_idx, signature, confirmed, error
		 FROM batches WHERE run_id = ? ORDER BY batch_idx`, runID)
	if err != nil {
		return nil, fmt.Errorf("runlog: list batches: %w", err)
	}
	defer rows.Close()

	batches := []Batch{}
	for rows.Next() {
		var b Batch
		var confirmed int
		if err := rows.Scan(&b.RunID, &b.Index, &b.Signature, &confirmed, &b.Error); err != nil {
			return nil, fmt.Errorf("runlog: scan batch: %w", err)
		}
		b.Confirmed = confirmed != 0
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
