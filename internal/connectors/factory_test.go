package connectors

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestNewSource_Filesystem(t *testing.T) {
	src, err := NewSource(context.Background(), domain.SourceSettings{
		Type: domain.SourceFilesystem,
		Root: t.TempDir(),
	})
	require.NoError(t, err)
	assert.Equal(t, "filesystem", src.Name())
}

func TestNewSource_FilesystemErrors(t *testing.T) {
	_, err := NewSource(context.Background(), domain.SourceSettings{Type: domain.SourceFilesystem})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = NewSource(context.Background(), domain.SourceSettings{
		Type: domain.SourceFilesystem,
		Root: filepath.Join(t.TempDir(), "absent"),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNewSource_Drive(t *testing.T) {
	tokenFile := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(tokenFile, []byte(`{"access_token":"abc","token_type":"Bearer"}`), 0600))

	src, err := NewSource(context.Background(), domain.SourceSettings{
		Type:      domain.SourceGoogleDrive,
		TokenFile: tokenFile,
	})
	require.NoError(t, err)
	assert.Equal(t, "drive", src.Name())

	_, err = NewSource(context.Background(), domain.SourceSettings{Type: domain.SourceGoogleDrive})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestNewSource_S3(t *testing.T) {
	src, err := NewSource(context.Background(), domain.SourceSettings{
		Type:   domain.SourceS3,
		Bucket: "docs",
		Region: "eu-west-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "s3", src.Name())

	_, err = NewSource(context.Background(), domain.SourceSettings{Type: domain.SourceS3})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestNewSource_Unknown(t *testing.T) {
	_, err := NewSource(context.Background(), domain.SourceSettings{Type: "ftp"})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestSourceTypes(t *testing.T) {
	types := SourceTypes()
	require.Len(t, types, 3)
	assert.Equal(t, domain.SourceFilesystem, types[0].ID)
	for _, st := range types {
		assert.NotEmpty(t, st.ConfigKeys, st.ID)
	}
}
