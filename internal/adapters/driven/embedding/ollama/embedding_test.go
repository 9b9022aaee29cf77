package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestNewEmbeddingProvider_Defaults(t *testing.T) {
	p := NewEmbeddingProvider(Config{})

	assert.Equal(t, DefaultModel, p.ModelName())
	assert.Equal(t, 768, p.Dimensions())
	assert.Equal(t, DefaultBaseURL, p.baseURL)
}

func TestNewEmbeddingProvider_UnknownModel(t *testing.T) {
	p := NewEmbeddingProvider(Config{Model: "my-embedder"})
	assert.Equal(t, 0, p.Dimensions())
}

func TestEmbed_Batch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		assert.Equal(t, []string{"a", "b"}, req.Input)
		_, _ = w.Write([]byte(`{"embeddings":[[1,0],[0,1]]}`))
	}))
	defer server.Close()

	p := NewEmbeddingProvider(Config{BaseURL: server.URL})
	vectors, err := p.Embed(context.Background(), []string{"a", "b"})

	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vectors)
}

func TestEmbed_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[[1,0]]}`))
	}))
	defer server.Close()

	_, err := NewEmbeddingProvider(Config{BaseURL: server.URL}).Embed(context.Background(), []string{"a", "b"})
	assert.ErrorContains(t, err, "1 embeddings returned for 2 inputs")
}

func TestEmbed_ServerErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model is loading", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewEmbeddingProvider(Config{BaseURL: server.URL}).Embed(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.True(t, domain.IsTransient(err))
}

func TestEmbed_ModelMissingIsPermanent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewEmbeddingProvider(Config{BaseURL: server.URL}).Embed(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.False(t, domain.IsTransient(err))
	assert.Contains(t, err.Error(), "model not found")
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer server.Close()

	assert.NoError(t, NewEmbeddingProvider(Config{BaseURL: server.URL}).Ping(context.Background()))
}
