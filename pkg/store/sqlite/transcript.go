// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlite persists run transcripts in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jllopis/autoagents/pkg/errors"
	"github.com/jllopis/autoagents/pkg/resilience"
	"github.com/jllopis/autoagents/pkg/sink"
)

// Transcript is a sink that stores every record of a run.
type Transcript struct {
	db      *sql.DB
	timeout time.Duration
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(ctx context.Context, path string) (*Transcript, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.New(errors.CodeInternal, "open transcript database", err).WithContext("path", path)
	}
	// modernc sqlite serialises writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	t, err := New(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return t, nil
}

// New wraps an open database and ensures the schema.
func New(ctx context.Context, db *sql.DB) (*Transcript, error) {
	if db == nil {
		return nil, errors.New(errors.CodeInvalidInput, "db is nil", nil)
	}
	if err := ensureSchema(ctx, db); err != nil {
		return nil, errors.New(errors.CodeInternal, "transcript schema", err)
	}
	return &Transcript{db: db, timeout: 5 * time.Second}, nil
}

func (t *Transcript) Name() string { return "sqlite" }

// Enqueue stores env synchronously, bounded by the transcript timeout.
func (t *Transcript) Enqueue(env sink.Envelope) error {
	return resilience.WithTimeout(context.Background(), resilience.TimeoutConfig{Duration: t.timeout},
		func(ctx context.Context) error { return t.Record(ctx, env) })
}

// Record stores env under ctx.
func (t *Transcript) Record(ctx context.Context, env sink.Envelope) error {
	raw, err := json.Marshal(env)
	if err != nil {
		return errors.New(errors.CodeInternal, "encode transcript record", err)
	}
	msg := env.Data.TaskMessage
	var fileType, fileData sql.NullString
	if msg.File != nil {
		fileType = sql.NullString{String: msg.File.FileType, Valid: true}
		fileData = sql.NullString{String: msg.File.FileData, Valid: true}
	}
	_, err = t.db.ExecContext(ctx, `
		INSERT INTO transcript_records (
			task_id, action, timestamp, role, content, file_type, file_data, envelope_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		env.Data.TaskID,
		env.Action,
		msg.Timestamp,
		msg.Role,
		msg.Content,
		fileType,
		fileData,
		string(raw),
	)
	if err != nil {
		slog.Default().WarnContext(ctx, "transcript.record.failed",
			slog.String("task_id", env.Data.TaskID),
			slog.String("error", err.Error()),
		)
		return errors.New(errors.CodeInternal, "insert transcript record", err)
	}
	return nil
}

// List returns the records of taskID in insertion order. limit <= 0 returns
// all of them.
func (t *Transcript) List(ctx context.Context, taskID string, limit int) ([]sink.Envelope, error) {
	query := `
		SELECT envelope_json
		FROM transcript_records
		WHERE task_id = ?
		ORDER BY id ASC
	`
	args := []any{taskID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.New(errors.CodeInternal, "query transcript", err)
	}
	defer rows.Close()

	var out []sink.Envelope
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, errors.New(errors.CodeInternal, "scan transcript record", err)
		}
		var env sink.Envelope
		if err := json.Unmarshal([]byte(raw), &env); err != nil {
			return nil, errors.New(errors.CodeInternal, "decode transcript record", err)
		}
		out = append(out, env)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.New(errors.CodeInternal, "iterate transcript", err)
	}
	return out, nil
}

// Close closes the database.
func (t *Transcript) Close() error {
	return t.db.Close()
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS transcript_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			task_id TEXT NOT NULL,
			action TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			file_type TEXT,
			file_data TEXT,
			envelope_json TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_transcript_task ON transcript_records(task_id);
	`)
	return err
}

var _ sink.Sink = (*Transcript)(nil)
