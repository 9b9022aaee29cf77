package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure StatusTracker implements the interface.
var _ driving.StatusService = (*StatusTracker)(nil)

// StatusTracker owns the process-wide index-initialised flag.
// All access goes through one mutex so concurrent batches cannot interleave
// a read and a write; the flag itself lives in a durable StatusStore.
type StatusTracker struct {
	mu    sync.Mutex
	store driven.StatusStore
}

// NewStatusTracker creates a tracker over store.
func NewStatusTracker(store driven.StatusStore) *StatusTracker {
	return &StatusTracker{store: store}
}

// Initialized reads the flag from the store.
func (t *StatusTracker) Initialized(ctx context.Context) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	flag, err := t.store.GetFlag(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: read index status: %w", domain.ErrStatusStore, err)
	}
	return flag, nil
}

// Get returns the flag. It implements driving.StatusService.
func (t *StatusTracker) Get(ctx context.Context) (bool, error) {
	return t.Initialized(ctx)
}

// Set overrides the flag. It is the operator path; ingestion only ever
// calls MarkInitialized.
func (t *StatusTracker) Set(ctx context.Context, initialized bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.SetFlag(ctx, initialized); err != nil {
		return fmt.Errorf("%w: write index status: %w", domain.ErrStatusStore, err)
	}
	logger.Info("Index status set to %t", initialized)
	return nil
}

// MarkInitialized moves the flag from false to true. It never writes when
// the flag is already true and never sets it back to false.
func (t *StatusTracker) MarkInitialized(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	flag, err := t.store.GetFlag(ctx)
	if err != nil {
		return fmt.Errorf("%w: read index status: %w", domain.ErrStatusStore, err)
	}
	if flag {
		return nil
	}
	if err := t.store.SetFlag(ctx, true); err != nil {
		return fmt.Errorf("%w: write index status: %w", domain.ErrStatusStore, err)
	}
	logger.Info("Index marked initialised")
	return nil
}
