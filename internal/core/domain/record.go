package domain

import (
	"cmp"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Metadata keys always present on a VectorRecord.
const (
	MetaDocumentID    = "document_id"
	MetaDocumentName  = "document_name"
	MetaExtension     = "extension"
	MetaSequenceIndex = "sequence_index"
	MetaExtractedAt   = "extracted_at"
)

// recordNamespace scopes record IDs so they never collide with other UUIDv5 users.
var recordNamespace = uuid.MustParse("6f1c62a4-3b8e-5d0e-9a51-6f3c2f0b8d17")

// RecordID returns the deterministic identifier for a document's chunk.
// The same (documentID, sequenceIndex) always maps to the same UUID, which is
// what makes re-ingestion overwrite instead of duplicate.
func RecordID(documentID string, sequenceIndex int) string {
	return uuid.NewSHA1(recordNamespace, []byte(documentID+"#"+strconv.Itoa(sequenceIndex))).String()
}

// VectorRecord is an embedded chunk as held by a vector store.
type VectorRecord struct {
	// ID is RecordID(DocumentID, SequenceIndex).
	ID string

	// Vector is the embedding of Text.
	Vector []float32

	// DocumentID links to the source document.
	DocumentID string

	// SequenceIndex is the chunk position within the document.
	SequenceIndex int

	// Text is the source text of the chunk.
	Text string

	// ExtractedAt is when the chunk was produced.
	ExtractedAt time.Time

	// Metadata holds filterable string attributes (document_name, extension).
	Metadata map[string]string
}

// NewVectorRecord builds the record for an embedded chunk.
func NewVectorRecord(ref DocumentRef, chunk Chunk, vector []float32, extractedAt time.Time) VectorRecord {
	return VectorRecord{
		ID:            RecordID(chunk.DocumentID, chunk.SequenceIndex),
		Vector:        vector,
		DocumentID:    chunk.DocumentID,
		SequenceIndex: chunk.SequenceIndex,
		Text:          chunk.Text,
		ExtractedAt:   extractedAt.UTC(),
		Metadata: map[string]string{
			MetaDocumentName: ref.Name,
			MetaExtension:    NormaliseExtension(ref.Extension),
		},
	}
}

// Attributes returns every filterable attribute of the record, including
// the well-known document_id and sequence_index keys.
func (r VectorRecord) Attributes() map[string]string {
	attrs := make(map[string]string, len(r.Metadata)+3)
	for k, v := range r.Metadata {
		attrs[k] = v
	}
	attrs[MetaDocumentID] = r.DocumentID
	attrs[MetaSequenceIndex] = strconv.Itoa(r.SequenceIndex)
	attrs[MetaExtractedAt] = r.ExtractedAt.Format(time.RFC3339Nano)
	return attrs
}

// Filter is an equality predicate over record attributes.
// A nil or empty filter matches every record.
type Filter map[string]string

// Matches reports whether every key in the filter equals the record's attribute.
func (f Filter) Matches(r VectorRecord) bool {
	if len(f) == 0 {
		return true
	}
	attrs := r.Attributes()
	for k, v := range f {
		if attrs[k] != v {
			return false
		}
	}
	return true
}

// ScoredRecord is a record paired with its similarity score.
type ScoredRecord struct {
	Record VectorRecord
	Score  float32
}

// RankRecords sorts results by descending score, breaking ties by lower
// sequence index and then by document ID, and truncates to topK.
func RankRecords(results []ScoredRecord, topK int) []ScoredRecord {
	slices.SortStableFunc(results, func(a, b ScoredRecord) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Record.SequenceIndex, b.Record.SequenceIndex); c != 0 {
			return c
		}
		return cmp.Compare(a.Record.DocumentID, b.Record.DocumentID)
	})
	if topK >= 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}

// RankWithTies ranks the topK best results for backends that pick
// arbitrarily among equal scores. fetch returns the n most similar records,
// and fewer than n only when no more match. One extra record is fetched past
// topK, and the fetch size doubles while the last record returned still ties
// the topK-th score, so the tie break sees every candidate at the cutoff.
// limit caps n; zero means no cap.
func RankWithTies(topK, limit int, fetch func(n int) ([]ScoredRecord, error)) ([]ScoredRecord, error) {
	n := topK + 1
	if limit > 0 && n > limit {
		n = limit
	}
	for {
		results, err := fetch(n)
		if err != nil {
			return nil, err
		}
		if len(results) < n || n == limit {
			return RankRecords(results, topK), nil
		}
		ranked := RankRecords(results, -1)
		if ranked[len(ranked)-1].Score < ranked[topK-1].Score {
			return ranked[:topK], nil
		}
		n *= 2
		if limit > 0 && n > limit {
			n = limit
		}
	}
}

// Passage is a retrieved chunk with its provenance.
type Passage struct {
	Text          string
	DocumentID    string
	DocumentName  string
	SequenceIndex int
	Score         float32
}

// PassageFromRecord maps a scored record to a passage.
func PassageFromRecord(sr ScoredRecord) Passage {
	return Passage{
		Text:          sr.Record.Text,
		DocumentID:    sr.Record.DocumentID,
		DocumentName:  sr.Record.Metadata[MetaDocumentName],
		SequenceIndex: sr.Record.SequenceIndex,
		Score:         sr.Score,
	}
}

// Answer is a synthesised response together with the passages it was grounded on.
type Answer struct {
	Text     string
	Passages []Passage
}
