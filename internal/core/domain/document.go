package domain

import (
	"path"
	"strings"
	"time"
)

// DocumentRef identifies a document held by an external source.
type DocumentRef struct {
	// ID is the source-specific identifier (file path, Drive file ID, object key).
	ID string

	// Name is the human-readable file name.
	Name string

	// Extension is the format tag used to select an extractor (e.g. "pdf").
	// When set on an ingestion request it overrides the fetched extension.
	Extension string
}

// Document is a fetched document. It is transient: it lives only for the
// duration of one ingestion call and is never persisted itself.
type Document struct {
	// ID is the source-specific identifier.
	ID string

	// Name is the display name.
	Name string

	// Extension is the normalised format tag.
	Extension string

	// Content is the raw byte content.
	Content []byte

	// ModifiedAt is the last modification time reported by the source.
	ModifiedAt time.Time
}

// Ref returns the reference describing this document.
func (d *Document) Ref() DocumentRef {
	return DocumentRef{ID: d.ID, Name: d.Name, Extension: d.Extension}
}

// SourceFilter narrows a document listing.
type SourceFilter struct {
	// NameContains keeps documents whose name contains this substring.
	NameContains string

	// Extensions keeps documents with one of these extensions. Empty means all.
	Extensions []string

	// Folder scopes the listing to a folder or prefix, where the source has one.
	Folder string
}

// Matches reports whether ref passes the name and extension filters.
// Folder scoping is applied by the source itself.
func (f SourceFilter) Matches(ref DocumentRef) bool {
	if f.NameContains != "" && !strings.Contains(strings.ToLower(ref.Name), strings.ToLower(f.NameContains)) {
		return false
	}
	if len(f.Extensions) == 0 {
		return true
	}
	ext := NormaliseExtension(ref.Extension)
	for _, e := range f.Extensions {
		if NormaliseExtension(e) == ext {
			return true
		}
	}
	return false
}

// NormaliseExtension lower-cases an extension and strips any leading dot.
func NormaliseExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// ExtensionOf returns the normalised extension of a file name, or "" if it has none.
func ExtensionOf(name string) string {
	return NormaliseExtension(path.Ext(name))
}

// Chunk is a bounded contiguous span of a document's normalised text.
// SequenceIndex is contiguous from 0 within a document.
type Chunk struct {
	// DocumentID links to the parent document.
	DocumentID string

	// SequenceIndex is the ordinal position within the document.
	SequenceIndex int

	// Text is the chunk content.
	Text string

	// Start is the offset of the first rune of the chunk in the normalised text.
	Start int

	// End is the offset one past the last rune of the chunk.
	End int
}

// CharCount returns the length of the chunk in runes.
func (c Chunk) CharCount() int {
	return c.End - c.Start
}

// ApproxTokens estimates the token count at four characters per token.
func (c Chunk) ApproxTokens() int {
	return (c.CharCount() + 3) / 4
}
