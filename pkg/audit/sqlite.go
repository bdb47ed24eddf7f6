// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"context"
	"database/sql"

	_ "modernc.org/sqlite"

	"github.com/jllopis/agentprompts/pkg/errors"
	"github.com/jllopis/agentprompts/pkg/resilience"
)

// SQLiteStore persists runs in SQLite.
type SQLiteStore struct {
	db    *sql.DB
	owned bool
}

// NewSQLiteStore wraps an open database and ensures the schema.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New(errors.CodeStoreError, "db is nil", nil)
	}
	if err := ensureRunSchema(db); err != nil {
		return nil, errors.New(errors.CodeStoreError, "create run schema", err)
	}
	return &SQLiteStore{db: db}, nil
}

// OpenSQLiteStore opens (or creates) the database at path.
// Close releases the database.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.New(errors.CodeStoreError, "open run history", err).WithContext("path", path)
	}
	store, err := NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	store.owned = true
	return store, nil
}

// Close closes the database when the store opened it.
func (s *SQLiteStore) Close() error {
	if s.owned {
		return s.db.Close()
	}
	return nil
}

// Record stores a single run.
func (s *SQLiteStore) Record(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversion_runs (
			run_id, input, output, format, blocks, records, skipped, status, error_code, error_text, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Input,
		run.Output,
		run.Format,
		run.Blocks,
		run.Records,
		run.Skipped,
		run.Status,
		run.ErrorCode,
		run.Error,
		normalizeTime(run.StartedAt),
		normalizeTime(run.FinishedAt),
	)
	if err != nil {
		return errors.New(errors.CodeStoreError, "record run", err).
			WithContext("run_id", run.ID).
			WithRecoverable(resilience.Transient(err))
	}
	return nil
}

// List returns runs matching the filter, newest first.
func (s *SQLiteStore) List(ctx context.Context, filter Filter) ([]Run, error) {
	query := `
		SELECT run_id, input, output, format, blocks, records, skipped, status, error_code, error_text, started_at, finished_at
		FROM conversion_runs
	`
	var args []any
	where := ""
	addFilter := func(clause string, value any) {
		if where == "" {
			where = " WHERE " + clause
		} else {
			where += " AND " + clause
		}
		args = append(args, value)
	}
	if filter.Input != "" {
		addFilter("input = ?", filter.Input)
	}
	if filter.Status != "" {
		addFilter("status = ?", filter.Status)
	}
	query += where + " ORDER BY started_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.New(errors.CodeStoreError, "list runs", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run      Run
			started  sql.NullTime
			finished sql.NullTime
		)
		if err := rows.Scan(
			&run.ID,
			&run.Input,
			&run.Output,
			&run.Format,
			&run.Blocks,
			&run.Records,
			&run.Skipped,
			&run.Status,
			&run.ErrorCode,
			&run.Error,
			&started,
			&finished,
		); err != nil {
			return nil, errors.New(errors.CodeStoreError, "scan run", err)
		}
		if started.Valid {
			run.StartedAt = started.Time
		}
		if finished.Valid {
			run.FinishedAt = finished.Time
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.New(errors.CodeStoreError, "list runs", err)
	}
	return runs, nil
}

func ensureRunSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS conversion_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL UNIQUE,
			input TEXT NOT NULL,
			output TEXT NOT NULL DEFAULT '',
			format TEXT NOT NULL DEFAULT '',
			blocks INTEGER NOT NULL DEFAULT 0,
			records INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			error_code TEXT NOT NULL DEFAULT '',
			error_text TEXT NOT NULL DEFAULT '',
			started_at TIMESTAMP,
			finished_at TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_conversion_runs_input ON conversion_runs(input);
		CREATE INDEX IF NOT EXISTS idx_conversion_runs_status ON conversion_runs(status);
	`)
	return err
}
