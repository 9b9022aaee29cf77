package drive

import (
	"context"
	"fmt"
	"io"
	"strings"

	"google.golang.org/api/drive/v3"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Google Workspace MIME types.
const (
	MimeTypeGoogleDoc    = "application/vnd.google-apps.document"
	MimeTypeGoogleSheet  = "application/vnd.google-apps.spreadsheet"
	MimeTypeGoogleSlides = "application/vnd.google-apps.presentation"
	MimeTypeFolder       = "application/vnd.google-apps.folder"
)

// Office formats native files are exported to.
const (
	ExportMimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	ExportMimeXlsx = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ExportMimePptx = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
)

// MaxDownloadSize bounds a downloaded or exported file (64MB).
const MaxDownloadSize = 64 * 1024 * 1024

// exportFormat describes how a Google-native file is exported.
type exportFormat struct {
	mime      string
	extension string
}

// exportFormats maps native MIME types to their office export. Drive caps
// exports at 10MB, which these formats stay well inside for text content.
var exportFormats = map[string]exportFormat{
	MimeTypeGoogleDoc:    {mime: ExportMimeDocx, extension: "docx"},
	MimeTypeGoogleSheet:  {mime: ExportMimeXlsx, extension: "xlsx"},
	MimeTypeGoogleSlides: {mime: ExportMimePptx, extension: "pptx"},
}

// fileFields are the file attributes requested from the API.
const fileFields = "id, name, mimeType, size, modifiedTime, fileExtension, trashed"

// IsNative returns true for Google Workspace files that must be exported.
func IsNative(mimeType string) bool {
	_, ok := exportFormats[mimeType]
	return ok
}

// FileRef converts a Drive file to a document reference. Native files take
// the extension of their export format.
func FileRef(file *drive.File) domain.DocumentRef {
	return domain.DocumentRef{ID: file.Id, Name: file.Name, Extension: fileExtension(file)}
}

func fileExtension(file *drive.File) string {
	if f, ok := exportFormats[file.MimeType]; ok {
		return f.extension
	}
	if file.FileExtension != "" {
		return domain.NormaliseExtension(file.FileExtension)
	}
	return domain.ExtensionOf(file.Name)
}

// shouldList reports whether a listed file is a candidate document.
func shouldList(file *drive.File) bool {
	if file.Trashed || file.MimeType == MimeTypeFolder {
		return false
	}
	// Other native types (forms, drawings, shortcuts) have no usable export.
	if strings.HasPrefix(file.MimeType, "application/vnd.google-apps.") {
		return IsNative(file.MimeType)
	}
	return true
}

// fetchContent downloads a regular file or exports a native one.
func fetchContent(ctx context.Context, svc *drive.Service, file *drive.File) ([]byte, error) {
	if f, ok := exportFormats[file.MimeType]; ok {
		resp, err := svc.Files.Export(file.Id, f.mime).Context(ctx).Download()
		if err != nil {
			return nil, fmt.Errorf("export file: %w", err)
		}
		defer resp.Body.Close()
		return readLimited(resp.Body)
	}

	if file.Size > MaxDownloadSize {
		return nil, fmt.Errorf("%w: file %s is %d bytes, limit is %d",
			domain.ErrInvalidArgument, file.Id, file.Size, MaxDownloadSize)
	}
	resp, err := svc.Files.Get(file.Id).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	return readLimited(resp.Body)
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxDownloadSize+1))
	if err != nil {
		return nil, fmt.Errorf("read file content: %w", err)
	}
	if len(data) > MaxDownloadSize {
		return nil, fmt.Errorf("%w: content exceeds %d bytes", domain.ErrInvalidArgument, MaxDownloadSize)
	}
	return data, nil
}
