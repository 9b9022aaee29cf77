// Package delimited provides an Extractor for CSV and TSV files.
// Each record becomes one line with its fields separated by " | ".
package delimited

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// FieldSeparator joins the fields of one record in the output.
const FieldSeparator = " | "

// Extractor handles one delimiter-separated format.
type Extractor struct {
	ext   string
	comma rune
}

// NewCSV creates an extractor for comma-separated files.
func NewCSV() *Extractor {
	return &Extractor{ext: "csv", comma: ','}
}

// NewTSV creates an extractor for tab-separated files.
func NewTSV() *Extractor {
	return &Extractor{ext: "tsv", comma: '\t'}
}

// Extensions returns the extension this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{e.ext}
}

// Extract returns one line per record. Ragged rows are allowed.
func (e *Extractor) Extract(ctx context.Context, content []byte) (string, error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.Comma = e.comma
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	var out strings.Builder
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", domain.ErrExtraction, e.ext, err)
		}

		fields := make([]string, 0, len(record))
		for _, f := range record {
			if f = strings.TrimSpace(f); f != "" {
				fields = append(fields, f)
			}
		}
		if len(fields) == 0 {
			continue
		}
		out.WriteString(strings.Join(fields, FieldSeparator))
		out.WriteByte('\n')
	}

	return strings.TrimSpace(out.String()), nil
}
