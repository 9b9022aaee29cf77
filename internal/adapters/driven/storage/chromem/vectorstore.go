// Package chromem provides an embedded, file-persisted vector store built on
// chromem-go. It is the default backend: no external service is needed.
package chromem

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/philippgille/chromem-go"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// Config configures the chromem store.
type Config struct {
	// Path is the persistence directory. Empty keeps the store in memory.
	Path string

	// Collection is the collection name.
	Collection string

	// Compress gzips persisted documents.
	Compress bool
}

// VectorStore implements driven.VectorStore on a chromem-go collection.
// Every record attribute is stored as chromem metadata so filters are
// evaluated by chromem's where clause.
type VectorStore struct {
	db         *chromem.DB
	collection *chromem.Collection

	// mu orders writes against DeleteFrom's probe so a concurrent upsert of
	// the same document cannot interleave with it.
	mu sync.RWMutex
}

// NewVectorStore opens or creates the collection.
func NewVectorStore(cfg Config) (*VectorStore, error) {
	if cfg.Collection == "" {
		return nil, fmt.Errorf("%w: chromem collection name is empty", domain.ErrInvalidConfig)
	}

	var (
		db  *chromem.DB
		err error
	)
	if cfg.Path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(cfg.Path, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("%w: opening chromem db at %s: %w", domain.ErrVectorStore, cfg.Path, err)
		}
	}

	// Vectors always arrive precomputed, so no embedding func is needed.
	c, err := db.GetOrCreateCollection(cfg.Collection, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: opening collection %s: %w", domain.ErrVectorStore, cfg.Collection, err)
	}
	return &VectorStore{db: db, collection: c}, nil
}

// Upsert stores or replaces records by ID.
func (s *VectorStore) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(records))
	for i, r := range records {
		if len(r.Vector) == 0 {
			return fmt.Errorf("%w: record %s has no vector", domain.ErrVectorStore, r.ID)
		}
		if i > 0 && len(r.Vector) != len(records[0].Vector) {
			return fmt.Errorf("%w: record %s has dimension %d, batch has %d: %w",
				domain.ErrVectorStore, r.ID, len(r.Vector), len(records[0].Vector), domain.ErrDimensionMismatch)
		}
		docs[i] = toDocument(r)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Documents are added in sequence order so a failure part way leaves
	// the document's indices contiguous, which DeleteFrom relies on.
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.collection.AddDocument(ctx, doc); err != nil {
			return wrap("upsert", err)
		}
	}
	return nil
}

// Query returns the topK most similar records that match filter.
func (s *VectorStore) Query(ctx context.Context, vector []float32, topK int, filter domain.Filter) ([]domain.ScoredRecord, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be positive, got %d", domain.ErrInvalidArgument, topK)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// chromem rejects nResults larger than the collection
	n := s.collection.Count()
	if n == 0 {
		return nil, nil
	}

	var where map[string]string
	if len(filter) > 0 {
		where = map[string]string(filter)
	}

	// chromem picks arbitrarily among equal similarities, so the ranking
	// over-fetches until the cutoff tie is fully included.
	return domain.RankWithTies(topK, n, func(limit int) ([]domain.ScoredRecord, error) {
		results, err := s.collection.QueryEmbedding(ctx, vector, limit, where, nil)
		if err != nil {
			return nil, wrap("query", err)
		}
		scored := make([]domain.ScoredRecord, 0, len(results))
		for _, res := range results {
			scored = append(scored, domain.ScoredRecord{
				Record: fromResult(res),
				Score:  res.Similarity,
			})
		}
		return scored, nil
	})
}

// Delete removes every record of a document.
func (s *VectorStore) Delete(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.collection.Count() == 0 {
		return nil
	}
	if err := s.collection.Delete(ctx, map[string]string{domain.MetaDocumentID: documentID}, nil); err != nil {
		return wrap("delete", err)
	}
	return nil
}

// DeleteFrom removes the records of a document at or after fromIndex.
// chromem has no range filter, so IDs are probed upward from fromIndex.
// Upsert writes a document's chunks in order and ingestion numbers them
// contiguously from 0, so the first missing index ends the tail.
func (s *VectorStore) DeleteFrom(ctx context.Context, documentID string, fromIndex int) error {
	if fromIndex < 0 {
		fromIndex = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for i := fromIndex; ; i++ {
		id := domain.RecordID(documentID, i)
		if _, err := s.collection.GetByID(ctx, id); err != nil {
			break
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil
	}
	if err := s.collection.Delete(ctx, nil, nil, ids...); err != nil {
		return wrap("delete tail", err)
	}
	return nil
}

// Count returns the number of records in the collection.
func (s *VectorStore) Count() int {
	return s.collection.Count()
}

// Close is a no-op; persistent collections are written on every upsert.
func (s *VectorStore) Close() error {
	return nil
}

func toDocument(r domain.VectorRecord) chromem.Document {
	return chromem.Document{
		ID:        r.ID,
		Content:   r.Text,
		Metadata:  r.Attributes(),
		Embedding: append([]float32(nil), r.Vector...),
	}
}

func fromResult(res chromem.Result) domain.VectorRecord {
	meta := make(map[string]string, len(res.Metadata))
	rec := domain.VectorRecord{
		ID:       res.ID,
		Vector:   res.Embedding,
		Text:     res.Content,
		Metadata: meta,
	}
	for k, v := range res.Metadata {
		switch k {
		case domain.MetaDocumentID:
			rec.DocumentID = v
		case domain.MetaSequenceIndex:
			rec.SequenceIndex, _ = strconv.Atoi(v)
		case domain.MetaExtractedAt:
			rec.ExtractedAt, _ = time.Parse(time.RFC3339Nano, v)
		default:
			meta[k] = v
		}
	}
	return rec
}

func wrap(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: chromem %s: %w", domain.ErrVectorStore, op, err)
}
