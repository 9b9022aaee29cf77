package cli

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// mockIngestion implements driving.IngestionService for testing.
type mockIngestion struct {
	documentErr error
	listErr     error
	refs        []domain.DocumentRef
	filter      domain.SourceFilter
	initialized bool
}

func (m *mockIngestion) outcome(ref domain.DocumentRef) domain.IngestOutcome {
	if ref.Name == "" {
		ref.Name = ref.ID
	}
	if ref.ID == "bad.bin" {
		return domain.IngestOutcome{
			Ref:      ref,
			State:    domain.IngestFailed,
			FailedAt: domain.IngestLoading,
			Reason:   domain.ErrUnsupportedFormat,
		}
	}
	return domain.IngestOutcome{Ref: ref, State: domain.IngestIndexed, Chunks: 3}
}

func (m *mockIngestion) IngestDocument(_ context.Context, ref domain.DocumentRef) (domain.IngestOutcome, error) {
	m.refs = append(m.refs, ref)
	out := m.outcome(ref)
	if m.documentErr != nil {
		out.State = domain.IngestFailed
		out.Reason = m.documentErr
		return out, m.documentErr
	}
	return out, out.Reason
}

func (m *mockIngestion) IngestBatch(_ context.Context, refs []domain.DocumentRef) []domain.IngestOutcome {
	m.refs = append(m.refs, refs...)
	outcomes := make([]domain.IngestOutcome, 0, len(refs))
	for _, ref := range refs {
		outcomes = append(outcomes, m.outcome(ref))
	}
	return outcomes
}

func (m *mockIngestion) IngestAll(_ context.Context, filter domain.SourceFilter) ([]domain.IngestOutcome, error) {
	m.filter = filter
	if m.listErr != nil {
		return nil, m.listErr
	}
	return []domain.IngestOutcome{
		m.outcome(domain.DocumentRef{ID: "a.pdf"}),
		m.outcome(domain.DocumentRef{ID: "bad.bin"}),
	}, nil
}

func (m *mockIngestion) Initialize(ctx context.Context) ([]domain.IngestOutcome, error) {
	m.initialized = true
	return m.IngestAll(ctx, domain.SourceFilter{})
}

// mockQuery implements driving.QueryService for testing.
type mockQuery struct {
	answer   *domain.Answer
	err      error
	question string
	topK     int
}

func (m *mockQuery) Answer(_ context.Context, query string, topK int) (*domain.Answer, error) {
	m.question, m.topK = query, topK
	if m.err != nil {
		return nil, m.err
	}
	return m.answer, nil
}

// mockStatus implements driving.StatusService for testing.
type mockStatus struct {
	value bool
	err   error
}

func (m *mockStatus) Get(context.Context) (bool, error) {
	return m.value, m.err
}

func (m *mockStatus) Set(_ context.Context, v bool) error {
	if m.err != nil {
		return m.err
	}
	m.value = v
	return nil
}

// mockSource implements driven.DocumentSource for testing.
type mockSource struct {
	refs   []domain.DocumentRef
	err    error
	filter domain.SourceFilter
}

func (m *mockSource) Name() string { return "mock" }

func (m *mockSource) Fetch(context.Context, string) (*domain.Document, error) {
	return nil, domain.ErrNotFound
}

func (m *mockSource) List(_ context.Context, filter domain.SourceFilter) ([]domain.DocumentRef, error) {
	m.filter = filter
	return m.refs, m.err
}

// mockOutcomes implements driven.OutcomeStore for testing.
type mockOutcomes struct {
	records []domain.IngestRecord
	limit   int
}

func (m *mockOutcomes) Record(context.Context, domain.IngestOutcome) error { return nil }

func (m *mockOutcomes) Recent(_ context.Context, limit int) ([]domain.IngestRecord, error) {
	m.limit = limit
	return m.records, nil
}

// mockConfigStore implements driven.ConfigStore over a map.
type mockConfigStore struct {
	data map[string]any
}

var _ driven.ConfigStore = (*mockConfigStore)(nil)

func newMockConfigStore() *mockConfigStore {
	return &mockConfigStore{data: map[string]any{}}
}

func (m *mockConfigStore) Get(key string) (any, bool) {
	v, ok := m.data[key]
	return v, ok
}

func (m *mockConfigStore) GetString(key string) string {
	s, _ := m.data[key].(string)
	return s
}

func (m *mockConfigStore) GetInt(key string) int {
	i, _ := m.data[key].(int)
	return i
}

func (m *mockConfigStore) GetBool(key string) bool {
	b, _ := m.data[key].(bool)
	return b
}

func (m *mockConfigStore) GetStringSlice(key string) []string {
	s, _ := m.data[key].([]string)
	return s
}

func (m *mockConfigStore) Set(key string, value any) error {
	if key == "" {
		return errors.New("empty key")
	}
	m.data[key] = value
	return nil
}

func (m *mockConfigStore) Save() error  { return nil }
func (m *mockConfigStore) Load() error  { return nil }
func (m *mockConfigStore) Path() string { return "/tmp/sercha/config.toml" }

func (m *mockConfigStore) Keys() []string {
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// fakeBootstrap records what the commands asked it to build.
type fakeBootstrap struct {
	services    *Services
	servicesErr error
	config      driven.ConfigStore
	checks      []Check

	configCalls   int
	servicesCalls int
	withLLM       bool
	configDir     string
}

func (f *fakeBootstrap) Config(dir string) (driven.ConfigStore, error) {
	f.configCalls++
	f.configDir = dir
	return f.config, nil
}

func (f *fakeBootstrap) Services(_ context.Context, dir string, withLLM bool) (*Services, error) {
	f.servicesCalls++
	f.configDir = dir
	f.withLLM = withLLM
	if f.servicesErr != nil {
		return nil, f.servicesErr
	}
	return f.services, nil
}

func (f *fakeBootstrap) Checks(context.Context, string) ([]Check, error) {
	return f.checks, nil
}

// withServices installs s for one test and resets command state afterwards.
func withServices(t *testing.T, s *Services) {
	t.Helper()
	resetState()
	SetServices(s)
	t.Cleanup(resetState)
}

func resetState() {
	SetServices(&Services{})
	configStore = nil
	bootstrap = nil

	verbose = false
	configDir = ""
	ingestExt = ""
	populateName, populateFolder, populateExts = "", "", nil
	askTopK, askJSON = DefaultTopK, false
	sourcesName, sourcesFolder, sourcesExts = "", "", nil
	historyLimit = 20
}

// execute runs the root command with args and returns its combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}
