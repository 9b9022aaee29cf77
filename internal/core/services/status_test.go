package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestStatusTracker_DefaultsFalse(t *testing.T) {
	tr := NewStatusTracker(&mockStatusStore{})

	ready, err := tr.Initialized(context.Background())

	require.NoError(t, err)
	assert.False(t, ready)
}

func TestStatusTracker_SetAndGet(t *testing.T) {
	db := &mockStatusStore{}
	tr := NewStatusTracker(db)
	ctx := context.Background()

	require.NoError(t, tr.Set(ctx, true))
	got, err := tr.Get(ctx)
	require.NoError(t, err)
	assert.True(t, got)

	require.NoError(t, tr.Set(ctx, false))
	got, err = tr.Get(ctx)
	require.NoError(t, err)
	assert.False(t, got)
	assert.Equal(t, 2, db.writes)
}

func TestStatusTracker_MarkInitialized_WritesOnce(t *testing.T) {
	db := &mockStatusStore{}
	tr := NewStatusTracker(db)
	ctx := context.Background()

	require.NoError(t, tr.MarkInitialized(ctx))
	require.NoError(t, tr.MarkInitialized(ctx))

	assert.True(t, db.flag)
	assert.Equal(t, 1, db.writes)
}

func TestStatusTracker_MarkInitialized_Concurrent(t *testing.T) {
	db := &mockStatusStore{}
	tr := NewStatusTracker(db)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, tr.MarkInitialized(context.Background()))
		}()
	}
	wg.Wait()

	assert.True(t, db.flag)
	assert.Equal(t, 1, db.writes)
}

func TestStatusTracker_Errors(t *testing.T) {
	ctx := context.Background()

	tr := NewStatusTracker(&mockStatusStore{getErr: errors.New("locked")})
	_, err := tr.Initialized(ctx)
	assert.ErrorIs(t, err, domain.ErrStatusStore)
	assert.ErrorIs(t, tr.MarkInitialized(ctx), domain.ErrStatusStore)

	tr = NewStatusTracker(&mockStatusStore{setErr: errors.New("read-only")})
	assert.ErrorIs(t, tr.Set(ctx, true), domain.ErrStatusStore)
	assert.ErrorIs(t, tr.MarkInitialized(ctx), domain.ErrStatusStore)
}
