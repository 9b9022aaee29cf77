package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func record(docID string, idx int, vec ...float32) domain.VectorRecord {
	ref := domain.DocumentRef{ID: docID, Name: docID + ".txt", Extension: "txt"}
	chunk := domain.Chunk{DocumentID: docID, SequenceIndex: idx, Text: "text"}
	return domain.NewVectorRecord(ref, chunk, vec, time.Unix(0, 0))
}

func TestNewVectorStore(t *testing.T) {
	store := NewVectorStore()
	require.NotNil(t, store)
	assert.Equal(t, 0, store.Count(""))
}

func TestVectorStore_Upsert_Idempotent(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()

	recs := []domain.VectorRecord{record("a", 0, 1, 0), record("a", 1, 0, 1)}
	require.NoError(t, store.Upsert(ctx, recs))
	require.NoError(t, store.Upsert(ctx, recs))

	assert.Equal(t, 2, store.Count("a"))
}

func TestVectorStore_Upsert_Replaces(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []domain.VectorRecord{record("a", 0, 1, 0)}))
	updated := record("a", 0, 0, 1)
	updated.Text = "new text"
	require.NoError(t, store.Upsert(ctx, []domain.VectorRecord{updated}))

	res, err := store.Query(ctx, []float32{0, 1}, 1, nil)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "new text", res[0].Record.Text)
	assert.InDelta(t, 1.0, res[0].Score, 1e-6)
}

func TestVectorStore_Upsert_DimensionMismatch(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []domain.VectorRecord{record("a", 0, 1, 0)}))
	err := store.Upsert(ctx, []domain.VectorRecord{record("b", 0, 1, 0, 0)})

	assert.ErrorIs(t, err, domain.ErrVectorStore)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Equal(t, 0, store.Count("b"))
}

func TestVectorStore_Query_RanksByCosine(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []domain.VectorRecord{
		record("a", 0, 1, 0),
		record("b", 0, 0.7, 0.7),
		record("c", 0, 0, 1),
	}))

	res, err := store.Query(ctx, []float32{1, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "a", res[0].Record.DocumentID)
	assert.Equal(t, "b", res[1].Record.DocumentID)
	assert.Greater(t, res[0].Score, res[1].Score)
}

func TestVectorStore_Query_TieBreak(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []domain.VectorRecord{
		record("b", 1, 1, 0),
		record("b", 0, 1, 0),
		record("a", 1, 1, 0),
	}))

	res, err := store.Query(ctx, []float32{1, 0}, 3, nil)
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, "b", res[0].Record.DocumentID)
	assert.Equal(t, 0, res[0].Record.SequenceIndex)
	assert.Equal(t, "a", res[1].Record.DocumentID)
	assert.Equal(t, "b", res[2].Record.DocumentID)
}

func TestVectorStore_Query_Filter(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []domain.VectorRecord{record("a", 0, 1, 0), record("b", 0, 1, 0)}))

	res, err := store.Query(ctx, []float32{1, 0}, 5, domain.Filter{domain.MetaDocumentID: "b"})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "b", res[0].Record.DocumentID)
}

func TestVectorStore_Query_InvalidTopK(t *testing.T) {
	_, err := NewVectorStore().Query(context.Background(), []float32{1}, 0, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestVectorStore_Query_Empty(t *testing.T) {
	res, err := NewVectorStore().Query(context.Background(), []float32{1, 0}, 3, nil)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestVectorStore_Query_ReturnsCopies(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, []domain.VectorRecord{record("a", 0, 1, 0)}))

	res, err := store.Query(ctx, []float32{1, 0}, 1, nil)
	require.NoError(t, err)
	res[0].Record.Vector[0] = 42
	res[0].Record.Metadata[domain.MetaDocumentName] = "changed"

	again, err := store.Query(ctx, []float32{1, 0}, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, float32(1), again[0].Record.Vector[0])
	assert.Equal(t, "a.txt", again[0].Record.Metadata[domain.MetaDocumentName])
}

func TestVectorStore_Delete(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, []domain.VectorRecord{record("a", 0, 1, 0), record("b", 0, 1, 0)}))

	require.NoError(t, store.Delete(ctx, "a"))
	require.NoError(t, store.Delete(ctx, "missing"))

	assert.Equal(t, 0, store.Count("a"))
	assert.Equal(t, 1, store.Count("b"))
}

func TestVectorStore_DeleteFrom(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, []domain.VectorRecord{
		record("a", 0, 1, 0), record("a", 1, 1, 0), record("a", 2, 1, 0), record("a", 3, 1, 0),
	}))

	require.NoError(t, store.DeleteFrom(ctx, "a", 2))
	assert.Equal(t, 2, store.Count("a"))

	require.NoError(t, store.DeleteFrom(ctx, "a", 0))
	assert.Equal(t, 0, store.Count(""))

	require.NoError(t, store.DeleteFrom(ctx, "missing", 0))
}

func TestVectorStore_Concurrency(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.Upsert(ctx, []domain.VectorRecord{record("doc", i%5, 1, 0)})
			_, _ = store.Query(ctx, []float32{1, 0}, 3, nil)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, store.Count("doc"))
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, cosine([]float32{2, 0}, []float32{5, 0}), 1e-6)
	assert.InDelta(t, 0.0, cosine([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.InDelta(t, -1.0, cosine([]float32{1, 0}, []float32{-1, 0}), 1e-6)
	assert.Equal(t, float32(0), cosine([]float32{0, 0}, []float32{1, 0}))
}
