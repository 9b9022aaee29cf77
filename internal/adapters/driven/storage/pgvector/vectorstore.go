// Package pgvector provides a vector store on PostgreSQL with the pgvector
// extension, accessed through bun.
package pgvector

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// Config configures the pgvector store.
type Config struct {
	// DSN is the postgres connection string.
	DSN string

	// Table holds the chunks. It is created if missing.
	Table string

	// Debug logs every query.
	Debug bool
}

// chunkRow is one embedded chunk.
type chunkRow struct {
	bun.BaseModel `bun:"alias:c"`

	ID            string            `bun:"id,pk"`
	DocumentID    string            `bun:"document_id,notnull"`
	SequenceIndex int               `bun:"sequence_index,notnull"`
	Text          string            `bun:"text,notnull"`
	ExtractedAt   time.Time         `bun:"extracted_at,notnull"`
	Attributes    map[string]string `bun:"attributes,type:jsonb,notnull"`
	Embedding     Vector            `bun:"embedding,type:vector,notnull"`
	Score         float32           `bun:"score,scanonly"`
}

// VectorStore implements driven.VectorStore on a postgres table.
// Cosine distance is computed by pgvector's <=> operator.
type VectorStore struct {
	db    *bun.DB
	table string
}

// NewVectorStore connects and creates the extension and table if needed.
func NewVectorStore(ctx context.Context, cfg Config) (*VectorStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%w: pgvector needs a DSN", domain.ErrInvalidConfig)
	}
	if cfg.Table == "" {
		cfg.Table = "sercha_chunks"
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
	db := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	s := &VectorStore{db: db, table: cfg.Table}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *VectorStore) migrate(ctx context.Context) error {
	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		`CREATE TABLE IF NOT EXISTS ? (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			sequence_index INTEGER NOT NULL,
			text TEXT NOT NULL,
			extracted_at TIMESTAMPTZ NOT NULL,
			attributes JSONB NOT NULL,
			embedding vector NOT NULL
		)`,
		"CREATE INDEX IF NOT EXISTS ? ON ? (document_id, sequence_index)",
	}
	args := [][]any{
		nil,
		{bun.Ident(s.table)},
		{bun.Ident(s.table + "_document_idx"), bun.Ident(s.table)},
	}
	for i, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt, args[i]...); err != nil {
			return wrap("migrate", err)
		}
	}
	return nil
}

// Upsert stores or replaces records by ID in one statement.
func (s *VectorStore) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]chunkRow, len(records))
	for i, r := range records {
		rows[i] = toRow(r)
	}

	_, err := s.db.NewInsert().
		Model(&rows).
		ModelTableExpr("? AS c", bun.Ident(s.table)).
		On("CONFLICT (id) DO UPDATE").
		Set("document_id = EXCLUDED.document_id").
		Set("sequence_index = EXCLUDED.sequence_index").
		Set("text = EXCLUDED.text").
		Set("extracted_at = EXCLUDED.extracted_at").
		Set("attributes = EXCLUDED.attributes").
		Set("embedding = EXCLUDED.embedding").
		Exec(ctx)
	if err != nil {
		return wrap("upsert", err)
	}
	return nil
}

// Query returns the topK most similar records that match filter.
func (s *VectorStore) Query(ctx context.Context, vector []float32, topK int, filter domain.Filter) ([]domain.ScoredRecord, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be positive, got %d", domain.ErrInvalidArgument, topK)
	}

	q := Vector(vector)
	var rows []chunkRow
	sel := s.db.NewSelect().
		Model(&rows).
		ModelTableExpr("? AS c", bun.Ident(s.table)).
		Column("id", "document_id", "sequence_index", "text", "extracted_at", "attributes", "embedding").
		ColumnExpr("1 - (embedding <=> ?) AS score", q).
		OrderExpr("embedding <=> ?", q).
		OrderExpr("sequence_index ASC").
		OrderExpr("document_id ASC").
		Limit(topK)

	if len(filter) > 0 {
		raw, err := filterJSON(filter)
		if err != nil {
			return nil, err
		}
		sel = sel.Where("attributes @> ?::jsonb", raw)
	}

	if err := sel.Scan(ctx); err != nil {
		return nil, wrap("query", err)
	}

	results := make([]domain.ScoredRecord, len(rows))
	for i, row := range rows {
		results[i] = domain.ScoredRecord{Record: fromRow(row), Score: row.Score}
	}
	return domain.RankRecords(results, topK), nil
}

// Delete removes every record of a document.
func (s *VectorStore) Delete(ctx context.Context, documentID string) error {
	_, err := s.db.NewDelete().
		TableExpr("?", bun.Ident(s.table)).
		Where("document_id = ?", documentID).
		Exec(ctx)
	if err != nil {
		return wrap("delete", err)
	}
	return nil
}

// DeleteFrom removes the records of a document at or after fromIndex.
func (s *VectorStore) DeleteFrom(ctx context.Context, documentID string, fromIndex int) error {
	_, err := s.db.NewDelete().
		TableExpr("?", bun.Ident(s.table)).
		Where("document_id = ?", documentID).
		Where("sequence_index >= ?", fromIndex).
		Exec(ctx)
	if err != nil {
		return wrap("delete tail", err)
	}
	return nil
}

// Close closes the database handle.
func (s *VectorStore) Close() error {
	return s.db.Close()
}

func toRow(r domain.VectorRecord) chunkRow {
	return chunkRow{
		ID:            r.ID,
		DocumentID:    r.DocumentID,
		SequenceIndex: r.SequenceIndex,
		Text:          r.Text,
		ExtractedAt:   r.ExtractedAt.UTC(),
		Attributes:    r.Attributes(),
		Embedding:     Vector(r.Vector),
	}
}

func fromRow(row chunkRow) domain.VectorRecord {
	meta := maps.Clone(row.Attributes)
	if meta == nil {
		meta = map[string]string{}
	}
	delete(meta, domain.MetaDocumentID)
	delete(meta, domain.MetaSequenceIndex)
	delete(meta, domain.MetaExtractedAt)

	return domain.VectorRecord{
		ID:            row.ID,
		Vector:        []float32(row.Embedding),
		DocumentID:    row.DocumentID,
		SequenceIndex: row.SequenceIndex,
		Text:          row.Text,
		ExtractedAt:   row.ExtractedAt.UTC(),
		Metadata:      meta,
	}
}

// filterJSON encodes an equality filter for jsonb containment.
func filterJSON(f domain.Filter) (string, error) {
	raw, err := json.Marshal(map[string]string(f))
	if err != nil {
		return "", fmt.Errorf("%w: encoding filter: %w", domain.ErrInvalidArgument, err)
	}
	return string(raw), nil
}

func wrap(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	wrapped := fmt.Errorf("%w: pgvector %s: %w", domain.ErrVectorStore, op, err)

	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		switch pgErr.Field('C') {
		case "22000": // data_exception: pgvector reports "different vector dimensions"
			return fmt.Errorf("%w: %w", wrapped, domain.ErrDimensionMismatch)
		case "57P01", "57P03", "53300", "40001": // admin shutdown, cannot connect now, too many connections, serialization failure
			return domain.Transient(wrapped)
		}
		return wrapped
	}
	// Anything that is not a server error is a connection problem.
	return domain.Transient(wrapped)
}
