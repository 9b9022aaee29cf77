package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// SourceType identifies where documents are fetched from.
type SourceType string

// Available document sources.
const (
	SourceFilesystem  SourceType = "filesystem"
	SourceGoogleDrive SourceType = "drive"
	SourceS3          SourceType = "s3"
)

// VectorBackend identifies the vector store implementation.
type VectorBackend string

// Available vector store backends.
const (
	VectorBackendMemory   VectorBackend = "memory"
	VectorBackendChromem  VectorBackend = "chromem"
	VectorBackendQdrant   VectorBackend = "qdrant"
	VectorBackendPgvector VectorBackend = "pgvector"
)

// StatusBackend identifies the index status persistence.
type StatusBackend string

// Available status backends.
const (
	StatusBackendMemory StatusBackend = "memory"
	StatusBackendSQLite StatusBackend = "sqlite"
	StatusBackendRedis  StatusBackend = "redis"
)

// SourceSettings configures the external document source.
type SourceSettings struct {
	Type SourceType

	// Root is the directory scanned by the filesystem source.
	Root string

	// FolderID is the Drive folder listed by default ("root" for My Drive).
	FolderID string

	// CredentialsFile is the OAuth client JSON for Drive.
	CredentialsFile string

	// TokenFile holds the externally obtained OAuth token for Drive.
	TokenFile string

	// Bucket, Prefix, Region and Endpoint configure the S3 source.
	Bucket   string
	Prefix   string
	Region   string
	Endpoint string

	// AccessKey and SecretKey are read from the environment for S3.
	AccessKey string
	SecretKey string
}

// ChunkingSettings configures the sliding-window chunker. Units are runes.
type ChunkingSettings struct {
	Size    int
	Overlap int
}

// Validate fails fast on windows that cannot advance.
func (c ChunkingSettings) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfig, c.Size)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("%w: chunk overlap must not be negative, got %d", ErrInvalidConfig, c.Overlap)
	}
	if c.Overlap >= c.Size {
		return fmt.Errorf("%w: chunk overlap (%d) must be smaller than size (%d)", ErrInvalidConfig, c.Overlap, c.Size)
	}
	return nil
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// LangChain routes the provider through langchaingo instead of the native client.
	LangChain bool

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions is the expected vector size. 0 learns it from the first response.
	Dimensions int

	// MaxBatchSize bounds the texts sent in one provider call.
	MaxBatchSize int

	// Concurrency caps simultaneous provider batches across all documents.
	Concurrency int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// LangChain routes the provider through langchaingo instead of the native client.
	LangChain bool

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// MaxOutput is the completion token limit.
	MaxOutput int

	// ContextBudget is the maximum number of characters of retrieved context in a prompt.
	ContextBudget int
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// RetrySettings shapes the backoff applied to every provider call.
type RetrySettings struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Timeout     time.Duration
}

// VectorStoreSettings configures the vector store backend.
type VectorStoreSettings struct {
	Backend VectorBackend

	// Path is the chromem persistence directory.
	Path string

	// Collection is the chromem collection, qdrant collection or pgvector table.
	Collection string

	// Addr is the qdrant gRPC address.
	Addr string

	// DSN is the Postgres connection string for pgvector.
	DSN string

	// Debug enables query logging where the backend supports it.
	Debug bool
}

// StatusSettings configures index status persistence.
type StatusSettings struct {
	Backend StatusBackend

	// Path is the sqlite database file.
	Path string

	// Addr and Key configure the redis backend.
	Addr string
	Key  string
}

// IngestSettings configures the ingestion coordinator.
type IngestSettings struct {
	// Concurrency caps documents processed at once.
	Concurrency int
}

// Settings holds all application settings.
type Settings struct {
	Source      SourceSettings
	Chunking    ChunkingSettings
	Embedding   EmbeddingSettings
	LLM         LLMSettings
	Retry       RetrySettings
	VectorStore VectorStoreSettings
	Status      StatusSettings
	Ingest      IngestSettings
}

// DefaultSettings returns settings with sensible defaults.
// They work out of the box against a local Ollama instance.
func DefaultSettings() Settings {
	return Settings{
		Source: SourceSettings{
			Type:     SourceFilesystem,
			Root:     ".",
			FolderID: "root",
		},
		Chunking: ChunkingSettings{
			Size:    1000,
			Overlap: 200,
		},
		Embedding: EmbeddingSettings{
			Provider:     AIProviderOllama,
			Model:        DefaultEmbeddingModels()[AIProviderOllama],
			MaxBatchSize: 32,
			Concurrency:  4,
		},
		LLM: LLMSettings{
			Provider:      AIProviderOllama,
			Model:         DefaultLLMModels()[AIProviderOllama],
			MaxOutput:     1024,
			ContextBudget: 12000,
		},
		Retry: RetrySettings{
			MaxAttempts: 4,
			BaseDelay:   500 * time.Millisecond,
			MaxDelay:    10 * time.Second,
			Timeout:     60 * time.Second,
		},
		VectorStore: VectorStoreSettings{
			Backend:    VectorBackendChromem,
			Collection: "sercha",
			Addr:       "localhost:6334",
		},
		Status: StatusSettings{
			Backend: StatusBackendSQLite,
			Addr:    "localhost:6379",
			Key:     "sercha:index:initialized",
		},
		Ingest: IngestSettings{
			Concurrency: 4,
		},
	}
}

// Validate checks the settings that must fail fast at startup.
func (s Settings) Validate() error {
	if err := s.Chunking.Validate(); err != nil {
		return err
	}
	switch s.Source.Type {
	case SourceFilesystem, SourceGoogleDrive, SourceS3:
	default:
		return fmt.Errorf("%w: unknown source type %q", ErrInvalidConfig, s.Source.Type)
	}
	switch s.VectorStore.Backend {
	case VectorBackendMemory, VectorBackendChromem, VectorBackendQdrant, VectorBackendPgvector:
	default:
		return fmt.Errorf("%w: unknown vector store backend %q", ErrInvalidConfig, s.VectorStore.Backend)
	}
	switch s.Status.Backend {
	case StatusBackendMemory, StatusBackendSQLite, StatusBackendRedis:
	default:
		return fmt.Errorf("%w: unknown status backend %q", ErrInvalidConfig, s.Status.Backend)
	}
	if s.Embedding.MaxBatchSize <= 0 {
		return fmt.Errorf("%w: embedding max_batch_size must be positive", ErrInvalidConfig)
	}
	if s.Embedding.Concurrency <= 0 || s.Ingest.Concurrency <= 0 {
		return fmt.Errorf("%w: concurrency must be positive", ErrInvalidConfig)
	}
	if s.Embedding.Dimensions < 0 {
		return fmt.Errorf("%w: embedding dimensions must not be negative", ErrInvalidConfig)
	}
	if s.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("%w: retry max_attempts must be positive", ErrInvalidConfig)
	}
	if s.LLM.ContextBudget <= 0 {
		return fmt.Errorf("%w: llm context_budget must be positive", ErrInvalidConfig)
	}
	return nil
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
