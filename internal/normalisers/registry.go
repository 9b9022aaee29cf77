package normalisers

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.DocumentLoader = (*Registry)(nil)

var (
	trailingSpace = regexp.MustCompile(`[ \t]+\n`)
	blankRuns     = regexp.MustCompile(`\n{3,}`)
)

// Registry dispatches extraction by file extension.
// Later registrations for an extension replace earlier ones.
type Registry struct {
	mu         sync.RWMutex
	extractors map[string]driven.Extractor
}

// NewRegistry creates a registry holding the given extractors.
func NewRegistry(extractors ...driven.Extractor) *Registry {
	r := &Registry{extractors: make(map[string]driven.Extractor)}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

// Register adds an extractor under each of its extensions.
func (r *Registry) Register(e driven.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range e.Extensions() {
		if ext = domain.NormaliseExtension(ext); ext != "" {
			r.extractors[ext] = e
		}
	}
}

// Supports reports whether an extractor is registered for extension.
func (r *Registry) Supports(extension string) bool {
	_, ok := r.lookup(extension)
	return ok
}

// Extensions returns the registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.extractors))
	for ext := range r.extractors {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Load extracts normalised text from content.
// Zero-length content is an extraction error. Content that parses but holds
// no text yields "" with no error, which the chunker turns into zero chunks.
func (r *Registry) Load(ctx context.Context, content []byte, extension string) (string, error) {
	e, ok := r.lookup(extension)
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, domain.NormaliseExtension(extension))
	}
	if len(content) == 0 {
		return "", fmt.Errorf("%w: empty content", domain.ErrExtraction)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	text, err := e.Extract(ctx, content)
	if err != nil {
		return "", err
	}
	return clean(text), nil
}

func (r *Registry) lookup(extension string) (driven.Extractor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.extractors[domain.NormaliseExtension(extension)]
	return e, ok
}

// clean normalises line endings and collapses runs of blank lines.
func clean(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = trailingSpace.ReplaceAllString(text, "\n")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
