// Package plaintext provides an Extractor for plain text and source files.
package plaintext

import (
	"bytes"
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Extractor handles UTF-8 text files. Content is returned as-is apart from
// a stripped byte order mark.
type Extractor struct {
	extensions []string
}

// New creates a plain text extractor for the default text extensions.
func New() *Extractor {
	return &Extractor{extensions: []string{
		"txt", "text", "log",
		"json", "yaml", "yml", "toml", "xml",
		"go", "py", "rs", "java", "c", "h", "cpp", "rb", "sh", "sql",
		"js", "jsx", "ts", "tsx", "css",
	}}
}

// WithExtensions creates a plain text extractor for a custom extension set.
func WithExtensions(exts ...string) *Extractor {
	return &Extractor{extensions: exts}
}

// Extensions returns the extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return e.extensions
}

// Extract returns the text content. Binary data is rejected.
func (e *Extractor) Extract(_ context.Context, content []byte) (string, error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	if !utf8.Valid(content) {
		return "", fmt.Errorf("%w: content is not valid UTF-8", domain.ErrExtraction)
	}
	if bytes.IndexByte(content, 0) >= 0 {
		return "", fmt.Errorf("%w: content contains NUL bytes", domain.ErrExtraction)
	}
	return string(content), nil
}
