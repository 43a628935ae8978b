// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package journal keeps a SQLite log of extraction runs and the outcome of
// every file they touched. It is an audit trail only; runs never consult it
// to skip or deduplicate files.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/invoice-dataset/pkg/types"
)

// Journal wraps the journal database.
type Journal struct {
	db *sql.DB
}

// Open opens or creates the journal database at path, creating parent
// directories and the schema as needed.
func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	j := &Journal{db: db}
	if err := j.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return j, nil
}

// Close releases the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			input_dir TEXT,
			sink TEXT,
			output TEXT,
			model TEXT,
			extracted INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS files (
			run_id TEXT NOT NULL REFERENCES runs(id),
			seq INTEGER NOT NULL,
			file_name TEXT NOT NULL,
			status TEXT NOT NULL,
			detail TEXT,
			elapsed_ms INTEGER,
			PRIMARY KEY (run_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_files_file_name ON files(file_name)`,
	}

	for _, stmt := range statements {
		if _, err := j.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RunInfo describes a run when it starts.
type RunInfo struct {
	InputDir string
	Sink     types.SinkKind
	Output   string
	Model    string
}

// Run is one journaled extraction run.
type Run struct {
	j  *Journal
	ID string
}

// Begin records the start of a run and returns its handle.
func (j *Journal) Begin(ctx context.Context, info RunInfo) (*Run, error) {
	id := uuid.NewString()
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, input_dir, sink, output, model) VALUES (?, ?, ?, ?, ?, ?)`,
		id, now(), info.InputDir, string(info.Sink), info.Output, info.Model,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting run: %w", err)
	}
	return &Run{j: j, ID: id}, nil
}

// RecordFile stores one file outcome.
func (r *Run) RecordFile(ctx context.Context, o types.FileOutcome) error {
	_, err := r.j.db.ExecContext(ctx,
		`INSERT INTO files (run_id, seq, file_name, status, detail, elapsed_ms) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, o.Seq, o.FileName, string(o.Status), o.Detail, o.Elapsed.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("inserting outcome for %s: %w", o.FileName, err)
	}
	return nil
}

// Finish stores the run totals.
func (r *Run) Finish(ctx context.Context, extracted, skipped, failed int) error {
	_, err := r.j.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, extracted = ?, skipped = ?, failed = ? WHERE id = ?`,
		now(), extracted, skipped, failed, r.ID,
	)
	if err != nil {
		return fmt.Errorf("finishing run %s: %w", r.ID, err)
	}
	return nil
}

// RunSummary is a journaled run as listed by Recent.
type RunSummary struct {
	ID         string     `json:"id" yaml:"id"`
	StartedAt  time.Time  `json:"started_at" yaml:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	InputDir   string     `json:"input_dir" yaml:"input_dir"`
	Sink       string     `json:"sink" yaml:"sink"`
	Output     string     `json:"output" yaml:"output"`
	Model      string     `json:"model" yaml:"model"`
	Extracted  int        `json:"extracted" yaml:"extracted"`
	Skipped    int        `json:"skipped" yaml:"skipped"`
	Failed     int        `json:"failed" yaml:"failed"`
}

// Recent returns up to limit runs, newest first. A limit of 0 returns all runs.
func (j *Journal) Recent(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, input_dir, sink, output, model, extracted, skipped, failed
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var (
			rs       RunSummary
			started  string
			finished sql.NullString
		)
		if err := rows.Scan(&rs.ID, &started, &finished, &rs.InputDir, &rs.Sink, &rs.Output,
			&rs.Model, &rs.Extracted, &rs.Skipped, &rs.Failed); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		t, err := time.Parse(timeLayout, started)
		if err != nil {
			return nil, fmt.Errorf("parsing start time of run %s: %w", rs.ID, err)
		}
		rs.StartedAt = t
		if finished.Valid {
			t, err := time.Parse(timeLayout, finished.String)
			if err != nil {
				return nil, fmt.Errorf("parsing finish time of run %s: %w", rs.ID, err)
			}
			rs.FinishedAt = &t
		}
		runs = append(runs, rs)
	}
	return runs, rows.Err()
}

// Files returns the outcomes recorded for a run, in processing order.
func (j *Journal) Files(ctx context.Context, runID string) ([]types.FileOutcome, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT seq, file_name, status, detail, elapsed_ms FROM files WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying files: %w", err)
	}
	defer rows.Close()

	var out []types.FileOutcome
	for rows.Next() {
		var (
			o       types.FileOutcome
			status  string
			detail  sql.NullString
			elapsed int64
		)
		if err := rows.Scan(&o.Seq, &o.FileName, &status, &detail, &elapsed); err != nil {
			return nil, fmt.Errorf("scanning file outcome: %w", err)
		}
		o.Status = types.FileStatus(status)
		o.Detail = detail.String
		o.Elapsed = time.Duration(elapsed) * time.Millisecond
		o.Title = trimExt(o.FileName)
		out = append(out, o)
	}
	return out, rows.Err()
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func now() string {
	return time.Now().UTC().Format(timeLayout)
}
