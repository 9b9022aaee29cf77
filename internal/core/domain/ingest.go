package domain

import "time"

// IngestState is the position of a document in the ingestion state machine.
// Documents move Pending → Loading → Chunking → Embedding → Indexed, or to
// Failed from any state.
type IngestState string

// Ingestion states.
const (
	IngestPending   IngestState = "pending"
	IngestLoading   IngestState = "loading"
	IngestChunking  IngestState = "chunking"
	IngestEmbedding IngestState = "embedding"
	IngestIndexed   IngestState = "indexed"
	IngestFailed    IngestState = "failed"
)

// IsTerminal returns true for Indexed and Failed.
func (s IngestState) IsTerminal() bool {
	return s == IngestIndexed || s == IngestFailed
}

// String returns the string representation.
func (s IngestState) String() string {
	return string(s)
}

// IngestOutcome is the result of ingesting one document.
type IngestOutcome struct {
	// Ref identifies the document.
	Ref DocumentRef

	// State is Indexed or Failed once the batch completes.
	State IngestState

	// FailedAt is the state the document was in when it failed.
	FailedAt IngestState

	// Reason is the failure cause. It wraps one of the domain error kinds.
	Reason error

	// Chunks is the number of chunks written for the document.
	Chunks int

	// StartedAt and FinishedAt bound the processing time.
	StartedAt  time.Time
	FinishedAt time.Time
}

// Indexed returns true if the document reached the Indexed state.
func (o IngestOutcome) Indexed() bool {
	return o.State == IngestIndexed
}

// HasContent returns true if the document was indexed with at least one chunk.
func (o IngestOutcome) HasContent() bool {
	return o.Indexed() && o.Chunks > 0
}

// Duration returns how long the document took to process.
func (o IngestOutcome) Duration() time.Duration {
	if o.FinishedAt.IsZero() || o.StartedAt.IsZero() {
		return 0
	}
	return o.FinishedAt.Sub(o.StartedAt)
}

// IngestRecord is a persisted ingestion outcome, as kept in history.
type IngestRecord struct {
	DocumentID   string
	DocumentName string
	Extension    string
	State        IngestState
	Kind         string
	Reason       string
	Chunks       int
	StartedAt    time.Time
	FinishedAt   time.Time
}

// RecordOf flattens an outcome for persistence.
func RecordOf(o IngestOutcome) IngestRecord {
	rec := IngestRecord{
		DocumentID:   o.Ref.ID,
		DocumentName: o.Ref.Name,
		Extension:    o.Ref.Extension,
		State:        o.State,
		Chunks:       o.Chunks,
		StartedAt:    o.StartedAt,
		FinishedAt:   o.FinishedAt,
	}
	if o.Reason != nil {
		rec.Kind = Kind(o.Reason)
		rec.Reason = o.Reason.Error()
	}
	return rec
}

// Summary counts the outcomes of a batch.
type Summary struct {
	Total   int
	Indexed int
	Failed  int
	Chunks  int
}

// Summarise counts a batch of outcomes.
func Summarise(outcomes []IngestOutcome) Summary {
	s := Summary{Total: len(outcomes)}
	for _, o := range outcomes {
		switch o.State {
		case IngestIndexed:
			s.Indexed++
			s.Chunks += o.Chunks
		case IngestFailed:
			s.Failed++
		}
	}
	return s
}
