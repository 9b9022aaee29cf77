package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withConfig(t *testing.T) *mockConfigStore {
	t.Helper()
	withServices(t, &Services{})
	store := newMockConfigStore()
	configStore = store
	return store
}

func TestConfigCmd_SetAndGet(t *testing.T) {
	store := withConfig(t)

	out, err := execute(t, "config", "set", "chunking.size", "400")
	require.NoError(t, err)
	assert.Contains(t, out, "chunking.size = 400")
	assert.Equal(t, 400, store.data["chunking.size"])

	out, err = execute(t, "config", "get", "chunking.size")
	require.NoError(t, err)
	assert.Equal(t, "400\n", out)
}

func TestConfigCmd_GetMissing(t *testing.T) {
	withConfig(t)

	_, err := execute(t, "config", "get", "nope")

	require.Error(t, err)
	assert.Contains(t, err.Error(), `key "nope" is not set`)
}

func TestConfigCmd_List(t *testing.T) {
	store := withConfig(t)
	store.data["vectorstore.backend"] = "qdrant"
	store.data["source.type"] = "s3"

	out, err := execute(t, "config", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "# /tmp/sercha/config.toml")
	assert.Contains(t, out, "source.type = s3\nvectorstore.backend = qdrant\n")
}

func TestConfigCmd_NotConfigured(t *testing.T) {
	withServices(t, &Services{})

	_, err := execute(t, "config", "get", "x")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "config service not configured")
}

func TestConfigCheckCmd(t *testing.T) {
	withServices(t, &Services{})
	bootstrap = &fakeBootstrap{
		config: newMockConfigStore(),
		checks: []Check{
			{Component: "embedding", Provider: "ollama", Model: "nomic-embed-text"},
			{Component: "llm", Provider: "openai", Model: "gpt-4o-mini", Err: errors.New("401 unauthorized")},
		},
	}

	out, err := execute(t, "config", "check")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 providers failed validation")
	assert.Contains(t, out, "OK    embedding ollama/nomic-embed-text")
	assert.Contains(t, out, "FAIL  llm       openai/gpt-4o-mini: 401 unauthorized")
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, 42, parseValue("42"))
	assert.Equal(t, true, parseValue("true"))
	assert.Equal(t, []string{"pdf", "docx"}, parseValue("pdf, docx,"))
	assert.Equal(t, "500ms", parseValue("500ms"))
	assert.Equal(t, "ollama", parseValue("ollama"))
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "a,b", formatValue([]string{"a", "b"}))
	assert.Equal(t, "1,x", formatValue([]any{int64(1), "x"}))
	assert.Equal(t, "7", formatValue(int64(7)))
}
