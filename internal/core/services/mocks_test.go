package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/normalisers"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/plaintext"
	"github.com/custodia-labs/sercha-rag/internal/postprocessors/chunker"
	"github.com/custodia-labs/sercha-rag/internal/retry"
)

// --- Mock implementations ---

// mockSource implements driven.DocumentSource over an in-memory map.
type mockSource struct {
	mu        sync.Mutex
	docs      map[string]*domain.Document
	fetchErrs map[string][]error // consumed one per Fetch call
	listErr   error
	fetches   map[string]int
	delay     time.Duration

	active    map[string]int
	maxActive int
}

func newMockSource() *mockSource {
	return &mockSource{
		docs:      make(map[string]*domain.Document),
		fetchErrs: make(map[string][]error),
		fetches:   make(map[string]int),
		active:    make(map[string]int),
	}
}

func (m *mockSource) put(id, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[id] = &domain.Document{
		ID:        id,
		Name:      id,
		Extension: domain.ExtensionOf(id),
		Content:   []byte(content),
	}
}

func (m *mockSource) Name() string { return "mock" }

func (m *mockSource) Fetch(ctx context.Context, id string) (*domain.Document, error) {
	m.mu.Lock()
	m.fetches[id]++
	m.active[id]++
	if m.active[id] > m.maxActive {
		m.maxActive = m.active[id]
	}
	var err error
	if errs := m.fetchErrs[id]; len(errs) > 0 {
		err, m.fetchErrs[id] = errs[0], errs[1:]
	}
	doc, ok := m.docs[id]
	delay := m.delay
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.active[id]--
		m.mu.Unlock()
	}()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	cp := *doc
	return &cp, nil
}

func (m *mockSource) List(_ context.Context, filter domain.SourceFilter) ([]domain.DocumentRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var refs []domain.DocumentRef
	for _, d := range m.docs {
		ref := d.Ref()
		if filter.Matches(ref) {
			refs = append(refs, ref)
		}
	}
	return refs, nil
}

// mockEmbeddingProvider implements driven.EmbeddingProvider with
// letter-frequency vectors, so similar texts get similar vectors.
type mockEmbeddingProvider struct {
	mu       sync.Mutex
	calls    int
	inputs   [][]string
	errs     []error // consumed one per call
	dims     int     // reported by Dimensions()
	override func(texts []string) ([][]float32, error)
	block    func(ctx context.Context, texts []string) error
	delay    time.Duration

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

const letterDims = 26

func letterVector(text string) []float32 {
	v := make([]float32, letterDims)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			v[r-'a']++
		} else if unicode.IsDigit(r) {
			v[0] += 0.1
		}
	}
	// Keep the vector non-zero so cosine is defined.
	v[letterDims-1] += 0.01
	return v
}

func (m *mockEmbeddingProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		cur := m.maxInFlight.Load()
		if n <= cur || m.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}

	m.mu.Lock()
	m.calls++
	m.inputs = append(m.inputs, append([]string(nil), texts...))
	var err error
	if len(m.errs) > 0 {
		err, m.errs = m.errs[0], m.errs[1:]
	}
	m.mu.Unlock()

	if m.block != nil {
		if err := m.block(ctx, texts); err != nil {
			return nil, err
		}
	}
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if err != nil {
		return nil, err
	}
	if m.override != nil {
		return m.override(texts)
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = letterVector(t)
	}
	return out, nil
}

func (m *mockEmbeddingProvider) Dimensions() int   { return m.dims }
func (m *mockEmbeddingProvider) ModelName() string { return "mock-embed" }
func (m *mockEmbeddingProvider) Close() error      { return nil }

func (m *mockEmbeddingProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockLLM implements driven.LLMProvider.
type mockLLM struct {
	mu      sync.Mutex
	prompts []string
	answer  string
	errs    []error
}

func (m *mockLLM) Complete(_ context.Context, prompt string, _ int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		if err != nil {
			return "", err
		}
	}
	return m.answer, nil
}

func (m *mockLLM) ModelName() string { return "mock-llm" }
func (m *mockLLM) Close() error      { return nil }

// mockPromptStore implements driven.PromptStore with short templates.
type mockPromptStore struct {
	missing bool
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.missing {
		return "", errors.New("prompt not found")
	}
	switch name {
	case driven.PromptAnswer:
		return "CONTEXT:\n%s\nQUESTION: %s", nil
	case driven.PromptAnswerNoContext:
		return "NO CONTEXT. QUESTION: %s", nil
	}
	return "", fmt.Errorf("unknown prompt %q", name)
}

func (m *mockPromptStore) Reload() {}

// mockStatusStore implements driven.StatusStore and counts writes.
type mockStatusStore struct {
	mu      sync.Mutex
	flag    bool
	writes  int
	getErr  error
	setErr  error
	onWrite func()
}

func (m *mockStatusStore) GetFlag(_ context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flag, m.getErr
}

func (m *mockStatusStore) SetFlag(_ context.Context, v bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.writes++
	m.flag = v
	if m.onWrite != nil {
		m.onWrite()
	}
	return nil
}

// spyStore wraps the memory vector store and counts mutations.
type spyStore struct {
	*memory.VectorStore
	upserts    atomic.Int32
	deletes    atomic.Int32
	upsertErrs []error
	mu         sync.Mutex
}

func newSpyStore() *spyStore {
	return &spyStore{VectorStore: memory.NewVectorStore()}
}

func (s *spyStore) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	s.upserts.Add(1)
	s.mu.Lock()
	var err error
	if len(s.upsertErrs) > 0 {
		err, s.upsertErrs = s.upsertErrs[0], s.upsertErrs[1:]
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.VectorStore.Upsert(ctx, records)
}

func (s *spyStore) DeleteFrom(ctx context.Context, documentID string, fromIndex int) error {
	s.deletes.Add(1)
	return s.VectorStore.DeleteFrom(ctx, documentID, fromIndex)
}

// --- Fixtures ---

func fastPolicy(attempts int) retry.Policy {
	return retry.Policy{MaxAttempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

type fixture struct {
	source   *mockSource
	provider *mockEmbeddingProvider
	store    *spyStore
	statusDB *mockStatusStore
	status   *StatusTracker
	embedder *Embedder
	chunker  *chunker.Chunker
	coord    *IngestionCoordinator
}

func newFixture(size, overlap int, opts ...IngestionOption) *fixture {
	ch, err := chunker.New(size, overlap)
	if err != nil {
		panic(err)
	}
	f := &fixture{
		source:   newMockSource(),
		provider: &mockEmbeddingProvider{},
		store:    newSpyStore(),
		statusDB: &mockStatusStore{},
		chunker:  ch,
	}
	f.status = NewStatusTracker(f.statusDB)
	f.embedder = NewEmbedder(f.provider, domain.EmbeddingSettings{MaxBatchSize: 8, Concurrency: 2}, retry.NoRetry())
	loader := normalisers.NewRegistry(plaintext.WithExtensions("txt"))
	f.coord = NewIngestionCoordinator(f.source, loader, ch, f.embedder, f.store, f.status, opts...)
	return f
}

func refs(ids ...string) []domain.DocumentRef {
	out := make([]domain.DocumentRef, len(ids))
	for i, id := range ids {
		out[i] = domain.DocumentRef{ID: id}
	}
	return out
}
