package connectors

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-rag/internal/connectors/filesystem"
	"github.com/custodia-labs/sercha-rag/internal/connectors/google"
	"github.com/custodia-labs/sercha-rag/internal/connectors/google/drive"
	"github.com/custodia-labs/sercha-rag/internal/connectors/s3"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// SourceType describes a supported source and the settings it reads.
type SourceType struct {
	ID          domain.SourceType
	Name        string
	Description string
	ConfigKeys  []string
}

// SourceTypes lists the built-in sources in display order.
func SourceTypes() []SourceType {
	return []SourceType{
		{
			ID:          domain.SourceFilesystem,
			Name:        "Local Filesystem",
			Description: "Read files from a local directory tree",
			ConfigKeys:  []string{"source.root"},
		},
		{
			ID:          domain.SourceGoogleDrive,
			Name:        "Google Drive",
			Description: "Read files and exported Google Docs from a Drive folder",
			ConfigKeys:  []string{"source.folder_id", "source.credentials_file", "source.token_file"},
		},
		{
			ID:          domain.SourceS3,
			Name:        "Amazon S3",
			Description: "Read objects from an S3 or S3-compatible bucket",
			ConfigKeys:  []string{"source.bucket", "source.prefix", "source.region", "source.endpoint"},
		},
	}
}

// NewSource connects the source named by settings.Type.
func NewSource(ctx context.Context, settings domain.SourceSettings) (driven.DocumentSource, error) {
	switch settings.Type {
	case domain.SourceFilesystem, "":
		if settings.Root == "" {
			return nil, fmt.Errorf("%w: filesystem source needs source.root", domain.ErrInvalidConfig)
		}
		c := filesystem.New(settings.Root)
		if err := c.Validate(); err != nil {
			return nil, err
		}
		return c, nil

	case domain.SourceGoogleDrive:
		ts, err := google.NewTokenSource(ctx, settings.CredentialsFile, settings.TokenFile)
		if err != nil {
			return nil, err
		}
		svc, err := google.NewDriveService(ctx, ts)
		if err != nil {
			return nil, err
		}
		return drive.New(svc, drive.Config{FolderID: settings.FolderID}), nil

	case domain.SourceS3:
		return s3.New(s3.Config{
			Bucket:    settings.Bucket,
			Prefix:    settings.Prefix,
			Region:    settings.Region,
			Endpoint:  settings.Endpoint,
			AccessKey: settings.AccessKey,
			SecretKey: settings.SecretKey,
		})

	default:
		return nil, fmt.Errorf("%w: unknown source type %q", domain.ErrInvalidConfig, settings.Type)
	}
}
