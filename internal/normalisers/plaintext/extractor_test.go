package plaintext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestNew_Extensions(t *testing.T) {
	exts := New().Extensions()

	assert.Contains(t, exts, "txt")
	assert.Contains(t, exts, "log")
	assert.Contains(t, exts, "go")
	assert.NotContains(t, exts, "pdf")
}

func TestWithExtensions(t *testing.T) {
	assert.Equal(t, []string{"md"}, WithExtensions("md").Extensions())
}

func TestExtract_Success(t *testing.T) {
	text, err := New().Extract(context.Background(), []byte("line one\nline two"))
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", text)
}

func TestExtract_StripsBOM(t *testing.T) {
	text, err := New().Extract(context.Background(), append([]byte{0xEF, 0xBB, 0xBF}, "hello"...))
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestExtract_Unicode(t *testing.T) {
	text, err := New().Extract(context.Background(), []byte("naïve café 日本語"))
	require.NoError(t, err)
	assert.Equal(t, "naïve café 日本語", text)
}

func TestExtract_Binary(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
	}{
		{"invalid utf8", []byte{0xff, 0xd8, 0xff, 0xe0}},
		{"nul bytes", []byte("abc\x00def")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Extract(context.Background(), tt.content)
			assert.ErrorIs(t, err, domain.ErrExtraction)
		})
	}
}
