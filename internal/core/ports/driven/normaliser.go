package driven

import "context"

// Extractor turns the raw bytes of one family of formats into normalised text.
// Output keeps paragraph and line boundaries as newlines.
type Extractor interface {
	// Extensions returns the extensions this extractor handles, without dots.
	Extensions() []string

	// Extract returns the normalised text of content.
	// Parse failures wrap domain.ErrExtraction.
	Extract(ctx context.Context, content []byte) (string, error)
}

// DocumentLoader selects an Extractor by extension.
type DocumentLoader interface {
	// Load returns the normalised text of content in the given format.
	// Unregistered extensions wrap domain.ErrUnsupportedFormat.
	Load(ctx context.Context, content []byte, extension string) (string, error)

	// Supports reports whether an extractor is registered for extension.
	Supports(extension string) bool
}
