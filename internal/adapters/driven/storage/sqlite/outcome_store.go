package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// OutcomeStore implements driven.OutcomeStore on the ingest_outcomes table.
type OutcomeStore struct {
	store *Store
}

var _ driven.OutcomeStore = (*OutcomeStore)(nil)

// Record appends an outcome to the history.
func (s *OutcomeStore) Record(ctx context.Context, outcome domain.IngestOutcome) error {
	rec := domain.RecordOf(outcome)
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO ingest_outcomes
			(document_id, document_name, extension, state, kind, reason, chunks, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.DocumentID, rec.DocumentName, rec.Extension, string(rec.State),
		nullString(rec.Kind), nullString(rec.Reason), rec.Chunks,
		formatNullableTime(rec.StartedAt), formatNullableTime(rec.FinishedAt))
	if err != nil {
		return fmt.Errorf("recording ingest outcome: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first. A non-positive limit returns all.
func (s *OutcomeStore) Recent(ctx context.Context, limit int) ([]domain.IngestRecord, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT document_id, document_name, extension, state, kind, reason, chunks, started_at, finished_at
		FROM ingest_outcomes
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying ingest history: %w", err)
	}
	defer rows.Close()

	var records []domain.IngestRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ingest history: %w", err)
	}
	return records, nil
}

func scanRecord(rows *sql.Rows) (domain.IngestRecord, error) {
	var rec domain.IngestRecord
	var state string
	var kind, reason, startedAt, finishedAt sql.NullString

	if err := rows.Scan(&rec.DocumentID, &rec.DocumentName, &rec.Extension, &state,
		&kind, &reason, &rec.Chunks, &startedAt, &finishedAt); err != nil {
		return rec, fmt.Errorf("scanning ingest outcome: %w", err)
	}

	rec.State = domain.IngestState(state)
	rec.Kind = kind.String
	rec.Reason = reason.String
	rec.StartedAt = parseNullableTime(startedAt)
	rec.FinishedAt = parseNullableTime(finishedAt)
	return rec, nil
}

// formatNullableTime formats a time as RFC3339 with nanoseconds, or nil for zero time.
func formatNullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseNullableTime(ns sql.NullString) time.Time {
	if !ns.Valid {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, ns.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
