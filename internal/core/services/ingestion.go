package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
	"github.com/custodia-labs/sercha-rag/internal/retry"
)

// Ensure IngestionCoordinator implements the interface.
var _ driving.IngestionService = (*IngestionCoordinator)(nil)

// DefaultIngestConcurrency is the number of documents processed at once
// when no option overrides it.
const DefaultIngestConcurrency = 4

// IngestionCoordinator runs Fetch, Load, Chunk, Embed, Upsert and Prune for
// each document. Failures are isolated per document. Documents with the same
// ID never run concurrently.
type IngestionCoordinator struct {
	source   driven.DocumentSource
	loader   driven.DocumentLoader
	chunker  driven.Chunker
	embedder *Embedder
	store    driven.VectorStore
	status   *StatusTracker

	outcomes    driven.OutcomeStore
	policy      retry.Policy
	concurrency int
	locks       *keyLock
	now         func() time.Time
}

// IngestionOption configures the coordinator.
type IngestionOption func(*IngestionCoordinator)

// WithOutcomeStore records every outcome into store.
func WithOutcomeStore(store driven.OutcomeStore) IngestionOption {
	return func(c *IngestionCoordinator) {
		c.outcomes = store
	}
}

// WithStorePolicy sets the retry policy for source and vector store calls.
func WithStorePolicy(p retry.Policy) IngestionOption {
	return func(c *IngestionCoordinator) {
		c.policy = p
	}
}

// WithIngestConcurrency sets how many documents are processed at once.
func WithIngestConcurrency(n int) IngestionOption {
	return func(c *IngestionCoordinator) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// withClock overrides the time source in tests.
func withClock(now func() time.Time) IngestionOption {
	return func(c *IngestionCoordinator) {
		c.now = now
	}
}

// NewIngestionCoordinator creates a coordinator.
func NewIngestionCoordinator(
	source driven.DocumentSource,
	loader driven.DocumentLoader,
	chunker driven.Chunker,
	embedder *Embedder,
	store driven.VectorStore,
	status *StatusTracker,
	opts ...IngestionOption,
) *IngestionCoordinator {
	c := &IngestionCoordinator{
		source:      source,
		loader:      loader,
		chunker:     chunker,
		embedder:    embedder,
		store:       store,
		status:      status,
		policy:      retry.NoRetry(),
		concurrency: DefaultIngestConcurrency,
		locks:       newKeyLock(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IngestDocument ingests one document. The returned error is the outcome's
// failure reason, or nil when the document was indexed.
func (c *IngestionCoordinator) IngestDocument(ctx context.Context, ref domain.DocumentRef) (domain.IngestOutcome, error) {
	outcome := c.IngestBatch(ctx, []domain.DocumentRef{ref})[0]
	return outcome, outcome.Reason
}

// IngestBatch ingests refs concurrently and returns one outcome per ref in
// input order. The index is marked initialised when at least one document
// was indexed with content.
func (c *IngestionCoordinator) IngestBatch(ctx context.Context, refs []domain.DocumentRef) []domain.IngestOutcome {
	outcomes := make([]domain.IngestOutcome, len(refs))
	if len(refs) == 0 {
		return outcomes
	}

	logger.Section("Ingest")
	logger.Info("Ingesting %d document(s) from %s", len(refs), c.source.Name())

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, ref := range refs {
		outcomes[i] = domain.IngestOutcome{Ref: ref, State: domain.IngestPending}
		if ctx.Err() != nil {
			outcomes[i] = c.fail(outcomes[i], cancelled(ctx, nil))
			continue
		}
		g.Go(func() error {
			outcomes[i] = c.ingest(ctx, ref)
			return nil
		})
	}
	_ = g.Wait()

	// Bookkeeping must still happen when the batch was cancelled.
	bg := context.WithoutCancel(ctx)
	c.record(bg, outcomes)

	summary := domain.Summarise(outcomes)
	logger.Info("Ingest finished: %d indexed, %d failed, %d chunks", summary.Indexed, summary.Failed, summary.Chunks)

	for _, o := range outcomes {
		if o.HasContent() {
			if err := c.status.MarkInitialized(bg); err != nil {
				logger.Error("Mark index initialised: %v", err)
			}
			break
		}
	}
	return outcomes
}

// IngestAll lists the source with filter and ingests every match.
func (c *IngestionCoordinator) IngestAll(ctx context.Context, filter domain.SourceFilter) ([]domain.IngestOutcome, error) {
	var refs []domain.DocumentRef
	err := c.policy.Do(ctx, "list "+c.source.Name(), func(ctx context.Context) error {
		var err error
		refs, err = c.source.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.source.Name(), err)
	}
	if len(refs) == 0 {
		logger.Warn("No documents found in %s", c.source.Name())
		return []domain.IngestOutcome{}, nil
	}
	return c.IngestBatch(ctx, refs), nil
}

// Initialize ingests every document the source lists.
func (c *IngestionCoordinator) Initialize(ctx context.Context) ([]domain.IngestOutcome, error) {
	return c.IngestAll(ctx, domain.SourceFilter{})
}

// ingest runs one document through the pipeline while holding its lock.
//
//nolint:gocyclo // Sequential pipeline steps, each with its own failure state
func (c *IngestionCoordinator) ingest(ctx context.Context, ref domain.DocumentRef) domain.IngestOutcome {
	out := domain.IngestOutcome{Ref: ref, State: domain.IngestPending, StartedAt: c.now()}

	id, err := c.canonicalID(ref.ID)
	if err != nil {
		out.State = domain.IngestLoading
		return c.fail(out, err)
	}
	ref.ID = id
	out.Ref.ID = id

	unlock, err := c.locks.Lock(ctx, id)
	if err != nil {
		return c.fail(out, cancelled(ctx, err))
	}
	defer unlock()

	// Loading
	out.State = domain.IngestLoading
	logger.Debug("%s: loading", id)
	var doc *domain.Document
	err = c.policy.Do(ctx, "fetch "+id, func(ctx context.Context) error {
		var err error
		doc, err = c.source.Fetch(ctx, id)
		return err
	})
	if err != nil {
		return c.fail(out, c.reason(ctx, fmt.Errorf("fetch: %w", err)))
	}
	out.Ref = resolveRef(ref, doc)

	text, err := c.loader.Load(ctx, doc.Content, out.Ref.Extension)
	if err != nil {
		return c.fail(out, c.reason(ctx, fmt.Errorf("load %s: %w", out.Ref.Name, err)))
	}

	// Chunking
	out.State = domain.IngestChunking
	chunks := c.chunker.Chunk(id, text)
	logger.Debug("%s: %d chunk(s)", id, len(chunks))

	// Embedding
	out.State = domain.IngestEmbedding
	var records []domain.VectorRecord
	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, ch := range chunks {
			texts[i] = ch.Text
		}
		vectors, err := c.embedder.Embed(ctx, texts)
		if err != nil {
			return c.fail(out, c.reason(ctx, err))
		}

		extractedAt := c.now()
		records = make([]domain.VectorRecord, len(chunks))
		for i, ch := range chunks {
			records[i] = domain.NewVectorRecord(out.Ref, ch, vectors[i], extractedAt)
		}

		if err := c.storeCall(ctx, "upsert "+id, func(ctx context.Context) error {
			return c.store.Upsert(ctx, records)
		}); err != nil {
			return c.fail(out, c.reason(ctx, err))
		}
	}

	// Chunks past the new count belong to an older, longer version.
	if err := c.storeCall(ctx, "prune "+id, func(ctx context.Context) error {
		return c.store.DeleteFrom(ctx, id, len(chunks))
	}); err != nil {
		return c.fail(out, c.reason(ctx, err))
	}

	out.State = domain.IngestIndexed
	out.Chunks = len(chunks)
	out.FinishedAt = c.now()
	logger.Info("Indexed %s (%d chunks) in %s", out.Ref.Name, out.Chunks, out.Duration().Round(time.Millisecond))
	return out
}

// canonicalID maps id to the form the source stores it under. Sources
// without a canonical form use the id as given.
func (c *IngestionCoordinator) canonicalID(id string) (string, error) {
	if cn, ok := c.source.(driven.IDCanonicaliser); ok {
		return cn.CanonicalID(id)
	}
	return id, nil
}

// storeCall runs a vector store call under the store policy and ensures the
// error carries the vector store kind.
func (c *IngestionCoordinator) storeCall(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	err := c.policy.Do(ctx, op, fn)
	if err == nil || ctx.Err() != nil || errors.Is(err, domain.ErrVectorStore) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrVectorStore, op, err)
}

// reason converts a step error into the outcome reason. Any failure after
// the batch context ended is reported as cancelled.
func (c *IngestionCoordinator) reason(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return cancelled(ctx, err)
	}
	return err
}

func (c *IngestionCoordinator) fail(out domain.IngestOutcome, reason error) domain.IngestOutcome {
	out.FailedAt = out.State
	out.State = domain.IngestFailed
	out.Reason = reason
	if out.StartedAt.IsZero() {
		out.StartedAt = c.now()
	}
	out.FinishedAt = c.now()
	logger.Warn("Failed %s during %s: %v", out.Ref.ID, out.FailedAt, reason)
	return out
}

func (c *IngestionCoordinator) record(ctx context.Context, outcomes []domain.IngestOutcome) {
	if c.outcomes == nil {
		return
	}
	for _, o := range outcomes {
		if err := c.outcomes.Record(ctx, o); err != nil {
			logger.Warn("Record outcome for %s: %v", o.Ref.ID, err)
		}
	}
}

// cancelled builds a reason of kind ErrCancelled that still matches the
// context error.
func cancelled(ctx context.Context, cause error) error {
	ctxErr := ctx.Err()
	if ctxErr == nil {
		ctxErr = context.Canceled
	}
	if cause == nil || errors.Is(cause, ctxErr) {
		return fmt.Errorf("%w: %w", domain.ErrCancelled, ctxErr)
	}
	return fmt.Errorf("%w: %w (%v)", domain.ErrCancelled, ctxErr, cause)
}

// resolveRef fills in the name and extension of ref from the fetched document.
// An extension on the ref takes precedence.
func resolveRef(ref domain.DocumentRef, doc *domain.Document) domain.DocumentRef {
	if ref.Name == "" {
		ref.Name = doc.Name
	}
	if ref.Name == "" {
		ref.Name = ref.ID
	}
	if ref.Extension == "" {
		ref.Extension = doc.Extension
	}
	if ref.Extension == "" {
		ref.Extension = domain.ExtensionOf(ref.Name)
	}
	ref.Extension = domain.NormaliseExtension(ref.Extension)
	return ref
}
