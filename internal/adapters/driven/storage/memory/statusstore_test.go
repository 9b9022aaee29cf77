package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestStatusStore_DefaultsFalse(t *testing.T) {
	flag, err := NewStatusStore().GetFlag(context.Background())
	require.NoError(t, err)
	assert.False(t, flag)
}

func TestStatusStore_SetFlag(t *testing.T) {
	store := NewStatusStore()
	ctx := context.Background()

	require.NoError(t, store.SetFlag(ctx, true))
	flag, err := store.GetFlag(ctx)
	require.NoError(t, err)
	assert.True(t, flag)

	require.NoError(t, store.SetFlag(ctx, false))
	flag, err = store.GetFlag(ctx)
	require.NoError(t, err)
	assert.False(t, flag)
}

func TestOutcomeStore_Recent(t *testing.T) {
	store := NewOutcomeStore()
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Record(ctx, domain.IngestOutcome{
			Ref:   domain.DocumentRef{ID: id},
			State: domain.IngestIndexed,
		}))
	}
	require.NoError(t, store.Record(ctx, domain.IngestOutcome{
		Ref:    domain.DocumentRef{ID: "d"},
		State:  domain.IngestFailed,
		Reason: errors.Join(domain.ErrExtraction, errors.New("bad pdf")),
	}))

	recent, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "d", recent[0].DocumentID)
	assert.Equal(t, "extraction_error", recent[0].Kind)
	assert.Equal(t, "c", recent[1].DocumentID)

	all, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}
