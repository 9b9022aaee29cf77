package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Environment variables holding secrets. They are never written to config.toml.
const (
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
	EnvPostgresDSN  = "SERCHA_PG_DSN"
	EnvAWSAccessKey = "AWS_ACCESS_KEY_ID"
	EnvAWSSecretKey = "AWS_SECRET_ACCESS_KEY"
)

// LoadSettings reads typed settings from store, fills defaults for missing
// keys and validates the result. Relative default paths are resolved against
// the directory holding the config file.
func LoadSettings(store driven.ConfigStore, getenv func(string) string) (domain.Settings, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	s := domain.DefaultSettings()
	baseDir := filepath.Dir(store.Path())

	r := reader{store: store}

	s.Source.Type = domain.SourceType(r.getString("source.type", string(s.Source.Type)))
	s.Source.Root = expandHome(r.getString("source.root", s.Source.Root))
	s.Source.FolderID = r.getString("source.folder_id", s.Source.FolderID)
	s.Source.CredentialsFile = expandHome(r.getString("source.credentials_file", ""))
	s.Source.TokenFile = expandHome(r.getString("source.token_file", ""))
	s.Source.Bucket = r.getString("source.bucket", "")
	s.Source.Prefix = r.getString("source.prefix", "")
	s.Source.Region = r.getString("source.region", "us-east-1")
	s.Source.Endpoint = r.getString("source.endpoint", "")
	s.Source.AccessKey = getenv(EnvAWSAccessKey)
	s.Source.SecretKey = getenv(EnvAWSSecretKey)

	s.Chunking.Size = r.getInt("chunking.size", s.Chunking.Size)
	s.Chunking.Overlap = r.getInt("chunking.overlap", s.Chunking.Overlap)

	s.Embedding.Provider = domain.AIProvider(r.getString("embedding.provider", string(s.Embedding.Provider)))
	s.Embedding.LangChain = r.getBool("embedding.langchain", false)
	s.Embedding.Model = r.getString("embedding.model", domain.DefaultEmbeddingModels()[s.Embedding.Provider])
	s.Embedding.BaseURL = r.getString("embedding.base_url", "")
	s.Embedding.Dimensions = r.getInt("embedding.dimensions", 0)
	s.Embedding.MaxBatchSize = r.getInt("embedding.max_batch_size", s.Embedding.MaxBatchSize)
	s.Embedding.Concurrency = r.getInt("embedding.concurrency", s.Embedding.Concurrency)
	s.Embedding.APIKey = apiKeyFor(s.Embedding.Provider, getenv)

	s.LLM.Provider = domain.AIProvider(r.getString("llm.provider", string(s.LLM.Provider)))
	s.LLM.LangChain = r.getBool("llm.langchain", false)
	s.LLM.Model = r.getString("llm.model", domain.DefaultLLMModels()[s.LLM.Provider])
	s.LLM.BaseURL = r.getString("llm.base_url", "")
	s.LLM.MaxOutput = r.getInt("llm.max_output", s.LLM.MaxOutput)
	s.LLM.ContextBudget = r.getInt("llm.context_budget", s.LLM.ContextBudget)
	s.LLM.APIKey = apiKeyFor(s.LLM.Provider, getenv)

	var err error
	s.Retry.MaxAttempts = r.getInt("retry.max_attempts", s.Retry.MaxAttempts)
	if s.Retry.BaseDelay, err = r.getDuration("retry.base_delay", s.Retry.BaseDelay); err != nil {
		return s, err
	}
	if s.Retry.MaxDelay, err = r.getDuration("retry.max_delay", s.Retry.MaxDelay); err != nil {
		return s, err
	}
	if s.Retry.Timeout, err = r.getDuration("retry.timeout", s.Retry.Timeout); err != nil {
		return s, err
	}

	s.VectorStore.Backend = domain.VectorBackend(r.getString("vectorstore.backend", string(s.VectorStore.Backend)))
	s.VectorStore.Path = expandHome(r.getString("vectorstore.path", filepath.Join(baseDir, "vectors")))
	s.VectorStore.Collection = r.getString("vectorstore.collection", s.VectorStore.Collection)
	s.VectorStore.Addr = r.getString("vectorstore.addr", s.VectorStore.Addr)
	s.VectorStore.DSN = r.getString("vectorstore.dsn", getenv(EnvPostgresDSN))
	s.VectorStore.Debug = r.getBool("vectorstore.debug", false)

	s.Status.Backend = domain.StatusBackend(r.getString("status.backend", string(s.Status.Backend)))
	s.Status.Path = expandHome(r.getString("status.path", filepath.Join(baseDir, "sercha.db")))
	s.Status.Addr = r.getString("status.addr", s.Status.Addr)
	s.Status.Key = r.getString("status.key", s.Status.Key)

	s.Ingest.Concurrency = r.getInt("ingest.concurrency", s.Ingest.Concurrency)

	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// reader applies defaults on top of a ConfigStore.
type reader struct {
	store driven.ConfigStore
}

func (r reader) getString(key, def string) string {
	if v := r.store.GetString(key); v != "" {
		return v
	}
	return def
}

func (r reader) getInt(key string, def int) int {
	if _, ok := r.store.Get(key); !ok {
		return def
	}
	return r.store.GetInt(key)
}

func (r reader) getBool(key string, def bool) bool {
	if _, ok := r.store.Get(key); !ok {
		return def
	}
	return r.store.GetBool(key)
}

// getDuration accepts Go duration strings ("500ms") or integer milliseconds.
func (r reader) getDuration(key string, def time.Duration) (time.Duration, error) {
	val, ok := r.store.Get(key)
	if !ok {
		return def, nil
	}
	switch v := val.(type) {
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return def, fmt.Errorf("%w: %s: %w", domain.ErrInvalidConfig, key, err)
		}
		return d, nil
	case int64:
		return time.Duration(v) * time.Millisecond, nil
	case int:
		return time.Duration(v) * time.Millisecond, nil
	default:
		return def, fmt.Errorf("%w: %s: unsupported duration value %v", domain.ErrInvalidConfig, key, val)
	}
}

func apiKeyFor(p domain.AIProvider, getenv func(string) string) string {
	switch p {
	case domain.AIProviderOpenAI:
		return getenv(EnvOpenAIKey)
	case domain.AIProviderAnthropic:
		return getenv(EnvAnthropicKey)
	default:
		return ""
	}
}

// expandHome replaces a leading "~" with the user's home directory.
func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
