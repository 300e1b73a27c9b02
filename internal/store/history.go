package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/crush/internal/value"
)

// Status values of a history entry.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Entry is one executed pipeline.
type Entry struct {
	Seq       int64
	ID        string
	Pipeline  string
	Status    string
	Error     string
	CreatedAt time.Time
}

// HistorySchema is the row schema produced by HistoryRows.
var HistorySchema = value.Schema{
	value.Column("seq", value.TypeInteger),
	value.Column("id", value.TypeText),
	value.Column("pipeline", value.TypeText),
	value.Column("status", value.TypeText),
	value.Column("error", value.TypeText),
}

// Row converts the entry to a row of HistorySchema.
func (e Entry) Row() value.Row {
	return value.NewRow(
		value.Integer(e.Seq),
		value.NewText(e.ID),
		value.NewText(e.Pipeline),
		value.NewText(e.Status),
		value.NewText(e.Error),
	)
}

// RecordPipeline appends a history entry. seq is assigned by the database.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are
// silently ignored.
func (s *Store) RecordPipeline(ctx context.Context, id, pipeline string, runErr error) error {
	if s.readOnly {
		return fmt.Errorf("record pipeline: store is read-only")
	}

	status, message := StatusOK, ""
	if runErr != nil {
		status, message = StatusError, runErr.Error()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO history (id, pipeline, status, error, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		id,
		pipeline,
		status,
		message,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record pipeline: %w", err)
	}
	return nil
}

// History returns the most recent entries in seq order, oldest first.
// limit <= 0 returns every entry.
func (s *Store) History(ctx context.Context, limit int) ([]Entry, error) {
	query := `
		SELECT seq, id, pipeline, status, error, created_at FROM (
			SELECT * FROM history
			ORDER BY seq DESC, id COLLATE BINARY DESC
			LIMIT ?
		)
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			created string
		)
		if err := rows.Scan(&e.Seq, &e.ID, &e.Pipeline, &e.Status, &e.Error, &created); err != nil {
			return nil, fmt.Errorf("read history: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			e.CreatedAt = t
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	return entries, nil
}
