package pgvector

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestNewVectorStore_RequiresDSN(t *testing.T) {
	_, err := NewVectorStore(context.Background(), Config{})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestRow_RoundTrip(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rec := domain.NewVectorRecord(
		domain.DocumentRef{ID: "d1", Name: "notes.md", Extension: "md"},
		domain.Chunk{DocumentID: "d1", SequenceIndex: 2, Text: "body"},
		[]float32{0.1, 0.2},
		at,
	)

	row := toRow(rec)
	assert.Equal(t, "d1", row.Attributes[domain.MetaDocumentID])
	assert.Equal(t, "2", row.Attributes[domain.MetaSequenceIndex])

	got := fromRow(row)
	assert.Equal(t, rec, got)
}

func TestFilterJSON(t *testing.T) {
	raw, err := filterJSON(domain.Filter{domain.MetaExtension: "pdf"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"extension":"pdf"}`, raw)
}

func TestWrap(t *testing.T) {
	assert.Equal(t, context.Canceled, wrap("q", context.Canceled))

	err := wrap("q", errors.New("dial tcp: connection refused"))
	assert.ErrorIs(t, err, domain.ErrVectorStore)
	assert.True(t, domain.IsTransient(err))
}

// TestVectorStore_Postgres runs against a real database when SERCHA_TEST_PG_DSN is set.
func TestVectorStore_Postgres(t *testing.T) {
	dsn := os.Getenv("SERCHA_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("SERCHA_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	table := "sercha_test_" + time.Now().Format("150405")

	s, err := NewVectorStore(ctx, Config{DSN: dsn, Table: table})
	require.NoError(t, err)
	defer func() {
		_, _ = s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table)
		_ = s.Close()
	}()

	at := time.Now().UTC().Truncate(time.Microsecond)
	mk := func(doc string, seq int, vec ...float32) domain.VectorRecord {
		return domain.NewVectorRecord(
			domain.DocumentRef{ID: doc, Name: doc + ".txt", Extension: "txt"},
			domain.Chunk{DocumentID: doc, SequenceIndex: seq, Text: doc},
			vec, at,
		)
	}
	require.NoError(t, s.Upsert(ctx, []domain.VectorRecord{mk("a", 0, 1, 0), mk("a", 1, 0.8, 0.6), mk("b", 0, 0, 1)}))
	require.NoError(t, s.Upsert(ctx, []domain.VectorRecord{mk("a", 0, 1, 0)}))

	results, err := s.Query(ctx, []float32{1, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 0, results[0].Record.SequenceIndex)
	assert.InDelta(t, 1.0, results[0].Score, 1e-5)

	results, err = s.Query(ctx, []float32{1, 0}, 5, domain.Filter{domain.MetaDocumentID: "b"})
	require.NoError(t, err)
	require.Len(t, results, 1)

	require.NoError(t, s.DeleteFrom(ctx, "a", 1))
	require.NoError(t, s.Delete(ctx, "b"))
	results, err = s.Query(ctx, []float32{1, 0}, 5, nil)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}
