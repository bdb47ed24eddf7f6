// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/jllopis/agentprompts/pkg/prompts"
)

// SQLiteSink replaces the agent_records table of a SQLite database on every write.
type SQLiteSink struct {
	Path string
}

func (s *SQLiteSink) Write(ctx context.Context, records []prompts.AgentRecord) (int, error) {
	db, err := sql.Open("sqlite", s.Path)
	if err != nil {
		return 0, failure(s.Path, err)
	}
	defer db.Close()

	n, err := WriteRecords(ctx, db, records)
	if err != nil {
		return 0, failure(s.Path, err)
	}
	return n, nil
}

func (s *SQLiteSink) Location() string { return s.Path }

// WriteRecords stores records in agent_records inside one transaction,
// replacing previous contents. position keeps document order.
func WriteRecords(ctx context.Context, db *sql.DB, records []prompts.AgentRecord) (int, error) {
	if err := ensureRecordSchema(ctx, db); err != nil {
		return 0, err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM agent_records`); err != nil {
		return 0, err
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO agent_records (
			position, slug, name, role_definition, custom_instructions, groups_json, source
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for i, rec := range records {
		groups, err := json.Marshal(rec.Groups)
		if err != nil {
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx,
			i,
			rec.Slug,
			rec.Name,
			rec.RoleDefinition,
			rec.CustomInstructions,
			string(groups),
			rec.Source,
		); err != nil {
			return 0, fmt.Errorf("insert record %d (%s): %w", i, rec.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(records), nil
}

// ReadRecords loads the stored records in document order.
func ReadRecords(ctx context.Context, db *sql.DB) ([]prompts.AgentRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT slug, name, role_definition, custom_instructions, groups_json, source
		FROM agent_records
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []prompts.AgentRecord
	for rows.Next() {
		var (
			rec    prompts.AgentRecord
			groups string
		)
		if err := rows.Scan(&rec.Slug, &rec.Name, &rec.RoleDefinition, &rec.CustomInstructions, &groups, &rec.Source); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(groups), &rec.Groups); err != nil {
			return nil, fmt.Errorf("decode groups for %s: %w", rec.Name, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func ensureRecordSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS agent_records (
			position INTEGER PRIMARY KEY,
			slug TEXT NOT NULL,
			name TEXT NOT NULL,
			role_definition TEXT NOT NULL,
			custom_instructions TEXT NOT NULL,
			groups_json TEXT NOT NULL,
			source TEXT NOT NULL
		)
	`)
	return err
}
