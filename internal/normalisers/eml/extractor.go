// Package eml provides an Extractor for RFC 5322 email messages.
// The output starts with the From, To, Date and Subject headers followed
// by the body. Plain text parts are preferred over HTML parts.
package eml

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/html"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles EML documents.
type Extractor struct{}

// New creates a new EML extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{"eml"}
}

// Extract returns the headers and body text of a message.
func (e *Extractor) Extract(_ context.Context, content []byte) (string, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("%w: eml: %v", domain.ErrExtraction, err)
	}

	body, err := extractBody(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), msg.Body)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	for _, h := range []string{"From", "To", "Date", "Subject"} {
		if v := decodeHeader(msg.Header.Get(h)); v != "" {
			fmt.Fprintf(&out, "%s: %s\n", h, v)
		}
	}
	out.WriteString("\n")
	out.WriteString(body)

	return strings.TrimSpace(out.String()), nil
}

// decodeHeader decodes RFC 2047 encoded headers.
func decodeHeader(header string) string {
	if header == "" {
		return ""
	}
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(header)
	if err != nil {
		return header
	}
	return decoded
}

// extractBody returns the text of a single entity, recursing into multiparts.
func extractBody(contentType, encoding string, r io.Reader) (string, error) {
	if contentType == "" {
		contentType = "text/plain"
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return extractMultipartBody(r, params["boundary"])
	}

	data, err := readDecoded(r, encoding)
	if err != nil {
		return "", err
	}

	switch mediaType {
	case "text/html":
		return html.Strip(string(data)), nil
	case "text/plain":
		return string(data), nil
	default:
		return "", nil
	}
}

// extractMultipartBody joins the plain text parts, or the HTML parts when
// there is no plain text. Attachments are skipped.
func extractMultipartBody(r io.Reader, boundary string) (string, error) {
	if boundary == "" {
		return "", fmt.Errorf("%w: eml: multipart without boundary", domain.ErrExtraction)
	}

	mr := multipart.NewReader(r, boundary)
	var textParts, htmlParts []string

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: eml: %v", domain.ErrExtraction, err)
		}

		if disp, _, _ := mime.ParseMediaType(part.Header.Get("Content-Disposition")); disp == "attachment" {
			part.Close()
			continue
		}

		partType := part.Header.Get("Content-Type")
		mediaType, _, parseErr := mime.ParseMediaType(partType)
		if parseErr != nil || partType == "" {
			mediaType = "text/plain"
		}

		// NextPart already decodes quoted-printable.
		text, err := extractBody(partType, part.Header.Get("Content-Transfer-Encoding"), part)
		part.Close()
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		if mediaType == "text/html" {
			htmlParts = append(htmlParts, text)
		} else {
			textParts = append(textParts, text)
		}
	}

	if len(textParts) > 0 {
		return strings.Join(textParts, "\n"), nil
	}
	return strings.Join(htmlParts, "\n"), nil
}

func readDecoded(r io.Reader, encoding string) ([]byte, error) {
	if strings.EqualFold(strings.TrimSpace(encoding), "base64") {
		r = base64.NewDecoder(base64.StdEncoding, r)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: eml body: %v", domain.ErrExtraction, err)
	}
	return data, nil
}
