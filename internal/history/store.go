// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history records strip runs in a SQLite ledger so repeated
// invocations against the same asset can be audited.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/alphastrip/pkg/types"
)

const defaultLimit = 20

// Store manages the history database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at cfg.Path and creates the schema
// if it does not exist.
func Open(cfg types.HistoryConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = types.DefaultHistoryPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			input TEXT NOT NULL,
			output TEXT NOT NULL,
			tool TEXT NOT NULL,
			status TEXT NOT NULL,
			error TEXT,
			input_sha256 TEXT,
			duration_ns INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_input ON runs(input)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record inserts a run and returns its ID. A zero CreatedAt is set to now.
func (s *Store) Record(ctx context.Context, run types.Run) (int64, error) {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (input, output, tool, status, error, input_sha256, duration_ns, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Input, run.Output, run.Tool, string(run.Status), run.Error, run.InputSHA256,
		int64(run.Duration), run.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}
	return id, nil
}

// List returns up to limit runs, newest first. limit <= 0 uses the default.
func (s *Store) List(ctx context.Context, limit int) ([]types.Run, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, input, output, tool, status, COALESCE(error, ''), COALESCE(input_sha256, ''), duration_ns, created_at
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []types.Run
	for rows.Next() {
		var (
			r         types.Run
			status    string
			durNS     int64
			createdAt string
		)
		if err := rows.Scan(&r.ID, &r.Input, &r.Output, &r.Tool, &status, &r.Error, &r.InputSHA256, &durNS, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Status = types.RunStatus(status)
		r.Duration = time.Duration(durNS)
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			r.CreatedAt = t
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}
