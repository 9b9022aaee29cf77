// Package drive provides a DocumentSource over Google Drive v3.
// Document IDs are Drive file IDs. Google Docs, Sheets and Slides are
// exported to docx, xlsx and pptx so the office extractors can read them.
package drive

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/sercha-rag/internal/connectors/google"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.DocumentSource = (*Connector)(nil)

// Connector lists and fetches Drive files.
type Connector struct {
	svc     *drive.Service
	cfg     Config
	limiter *google.RateLimiter
}

// New creates a Drive connector on an authenticated service.
func New(svc *drive.Service, cfg Config) *Connector {
	return &Connector{
		svc:     svc,
		cfg:     cfg.withDefaults(),
		limiter: google.NewRateLimiter(google.DefaultDriveRateLimit),
	}
}

// Name returns "drive".
func (c *Connector) Name() string {
	return string(domain.SourceGoogleDrive)
}

// List returns the files directly inside the filter's folder, or the
// configured folder when the filter names none.
func (c *Connector) List(ctx context.Context, filter domain.SourceFilter) ([]domain.DocumentRef, error) {
	folder := filter.Folder
	if folder == "" {
		folder = c.cfg.FolderID
	}

	var refs []domain.DocumentRef
	pageToken := ""
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		call := c.svc.Files.List().
			Q(buildQuery(folder, filter.NameContains)).
			Fields(googleapi.Field("nextPageToken, files(" + fileFields + ")")).
			PageSize(c.cfg.PageSize).
			OrderBy("name").
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, c.wrap(fmt.Errorf("listing folder %s: %w", folder, err))
		}
		for _, file := range resp.Files {
			if !shouldList(file) {
				continue
			}
			if ref := FileRef(file); filter.Matches(ref) {
				refs = append(refs, ref)
			}
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	logger.Debug("drive: listed %d files in %s", len(refs), folder)
	return refs, nil
}

// Fetch downloads a file by ID, exporting Google-native files.
func (c *Connector) Fetch(ctx context.Context, id string) (*domain.Document, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty file id", domain.ErrInvalidArgument)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	file, err := c.svc.Files.Get(id).
		Fields(googleapi.Field(fileFields)).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, c.wrap(fmt.Errorf("getting file %s: %w", id, err))
	}
	if file.MimeType == MimeTypeFolder {
		return nil, fmt.Errorf("%w: %s is a folder", domain.ErrInvalidArgument, id)
	}
	if strings.HasPrefix(file.MimeType, "application/vnd.google-apps.") && !IsNative(file.MimeType) {
		return nil, fmt.Errorf("%w: drive type %s cannot be exported", domain.ErrUnsupportedFormat, file.MimeType)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	content, err := fetchContent(ctx, c.svc, file)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			return nil, err
		}
		return nil, c.wrap(fmt.Errorf("fetching file %s: %w", id, err))
	}

	ref := FileRef(file)
	doc := &domain.Document{
		ID:        ref.ID,
		Name:      ref.Name,
		Extension: ref.Extension,
		Content:   content,
	}
	if t, err := time.Parse(time.RFC3339, file.ModifiedTime); err == nil {
		doc.ModifiedAt = t.UTC()
	}
	return doc, nil
}

// wrap classifies an API error and starts a backoff on rate limits.
func (c *Connector) wrap(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if google.IsRateLimited(err) {
		c.limiter.Backoff(google.RetryAfter(err))
	}
	return google.WrapError(err)
}

// buildQuery builds the Drive search expression for one folder.
func buildQuery(folder, nameContains string) string {
	q := fmt.Sprintf("'%s' in parents and trashed = false and mimeType != '%s'", escapeQuery(folder), MimeTypeFolder)
	if nameContains != "" {
		q += fmt.Sprintf(" and name contains '%s'", escapeQuery(nameContains))
	}
	return q
}

// escapeQuery escapes a value for a single-quoted Drive query literal.
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
