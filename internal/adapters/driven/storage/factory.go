// Package storage builds the vector, status and history stores selected by settings.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/chromem"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/pgvector"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/qdrant"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/redis"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Stores holds the opened storage adapters.
type Stores struct {
	Vectors  driven.VectorStore
	Status   driven.StatusStore
	Outcomes driven.OutcomeStore

	closers []io.Closer
}

// Close closes every opened store.
func (s *Stores) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i].Close())
	}
	s.closers = nil
	return errors.Join(errs...)
}

// Open opens the configured stores. On failure, anything already opened is closed.
func Open(ctx context.Context, vs domain.VectorStoreSettings, st domain.StatusSettings) (*Stores, error) {
	stores := &Stores{}

	if err := stores.openStatus(st); err != nil {
		_ = stores.Close()
		return nil, err
	}

	vectors, err := NewVectorStore(ctx, vs)
	if err != nil {
		_ = stores.Close()
		return nil, err
	}
	stores.Vectors = vectors
	stores.closers = append(stores.closers, vectors)
	return stores, nil
}

// openStatus opens the status flag and the outcome history. History lives in
// sqlite whenever a database path is configured, even with a redis flag.
func (s *Stores) openStatus(st domain.StatusSettings) error {
	if st.Backend == domain.StatusBackendMemory {
		s.Status = memory.NewStatusStore()
		s.Outcomes = memory.NewOutcomeStore()
		return nil
	}

	var db *sqlite.Store
	if st.Path != "" {
		var err error
		db, err = sqlite.NewStore(st.Path)
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrStatusStore, err)
		}
		s.closers = append(s.closers, db)
		s.Outcomes = db.OutcomeStore()
	} else {
		s.Outcomes = memory.NewOutcomeStore()
	}

	switch st.Backend {
	case domain.StatusBackendSQLite:
		if db == nil {
			return fmt.Errorf("%w: sqlite status needs a path", domain.ErrInvalidConfig)
		}
		s.Status = db.StatusStore()
	case domain.StatusBackendRedis:
		rs, err := redis.NewStatusStore(redis.Options{Addr: st.Addr, Key: st.Key})
		if err != nil {
			return err
		}
		s.closers = append(s.closers, rs)
		s.Status = rs
	default:
		return fmt.Errorf("%w: unsupported status backend: %s", domain.ErrInvalidConfig, st.Backend)
	}
	return nil
}

// NewVectorStore opens the vector store backend selected by settings.
func NewVectorStore(ctx context.Context, vs domain.VectorStoreSettings) (driven.VectorStore, error) {
	switch vs.Backend {
	case domain.VectorBackendMemory:
		return memory.NewVectorStore(), nil
	case domain.VectorBackendChromem:
		return chromem.NewVectorStore(chromem.Config{Path: vs.Path, Collection: vs.Collection})
	case domain.VectorBackendQdrant:
		return qdrant.NewVectorStore(qdrant.Config{Addr: vs.Addr, Collection: vs.Collection})
	case domain.VectorBackendPgvector:
		return pgvector.NewVectorStore(ctx, pgvector.Config{DSN: vs.DSN, Table: vs.Collection, Debug: vs.Debug})
	default:
		return nil, fmt.Errorf("%w: unsupported vector backend: %s", domain.ErrInvalidConfig, vs.Backend)
	}
}
