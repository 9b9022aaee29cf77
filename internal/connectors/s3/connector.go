// Package s3 provides a DocumentSource over an S3 (or S3-compatible) bucket.
// Document IDs are object keys.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.DocumentSource = (*Connector)(nil)

// MaxObjectSize bounds a fetched object (64MB).
const MaxObjectSize = 64 * 1024 * 1024

// Config configures the S3 source.
type Config struct {
	// Bucket is the bucket name.
	Bucket string

	// Prefix scopes listings when a filter names no folder.
	Prefix string

	// Region is the bucket region, e.g. "us-east-1".
	Region string

	// Endpoint overrides the service URL for S3-compatible servers such as
	// MinIO ("http://127.0.0.1:9000"). Path-style addressing is used with it.
	Endpoint string

	// AccessKey and SecretKey are static credentials.
	AccessKey string
	SecretKey string
}

// Connector lists and fetches objects.
type Connector struct {
	client *s3.Client
	bucket string
	prefix string
}

// New connects to the bucket. Retries are left to the caller's policy.
func New(cfg Config) (*Connector, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: s3 source needs a bucket", domain.ErrInvalidConfig)
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	client := s3.NewFromConfig(aws.Config{Region: cfg.Region}, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
		if cfg.AccessKey != "" {
			o.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		}
		o.RetryMaxAttempts = 1
	})

	return &Connector{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Name returns "s3".
func (c *Connector) Name() string {
	return string(domain.SourceS3)
}

// List returns the objects under the filter's folder, or the configured prefix.
func (c *Connector) List(ctx context.Context, filter domain.SourceFilter) ([]domain.DocumentRef, error) {
	prefix := c.prefix
	if filter.Folder != "" {
		prefix = strings.TrimSuffix(filter.Folder, "/") + "/"
	}

	var refs []domain.DocumentRef
	paginator := s3.NewListObjectsV2Paginator(c.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classify(fmt.Sprintf("listing s3://%s/%s", c.bucket, prefix), err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if key == "" || strings.HasSuffix(key, "/") {
				continue
			}
			ref := refOf(key)
			if filter.Matches(ref) {
				refs = append(refs, ref)
			}
		}
	}
	return refs, nil
}

// Fetch downloads an object by key.
func (c *Connector) Fetch(ctx context.Context, id string) (*domain.Document, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty object key", domain.ErrInvalidArgument)
	}

	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		return nil, classify("getting "+id, err)
	}
	defer out.Body.Close()

	if size := aws.ToInt64(out.ContentLength); size > MaxObjectSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit is %d", domain.ErrInvalidArgument, id, size, MaxObjectSize)
	}
	content, err := io.ReadAll(io.LimitReader(out.Body, MaxObjectSize+1))
	if err != nil {
		return nil, domain.Transient(fmt.Errorf("reading %s: %w", id, err))
	}
	if len(content) > MaxObjectSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrInvalidArgument, id, MaxObjectSize)
	}

	ref := refOf(id)
	doc := &domain.Document{
		ID:        id,
		Name:      ref.Name,
		Extension: ref.Extension,
		Content:   content,
	}
	if out.LastModified != nil {
		doc.ModifiedAt = out.LastModified.UTC()
	}
	return doc, nil
}

func refOf(key string) domain.DocumentRef {
	name := path.Base(key)
	return domain.DocumentRef{ID: key, Name: name, Extension: domain.ExtensionOf(name)}
}

// classify maps SDK errors to the domain kinds. Missing keys and buckets wrap
// ErrNotFound; throttling, server errors and transport failures are transient.
func classify(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	wrapped := fmt.Errorf("%s: %w", op, err)

	var noKey *types.NoSuchKey
	var noBucket *types.NoSuchBucket
	if errors.As(err, &noKey) || errors.As(err, &noBucket) {
		return fmt.Errorf("%w: %w", domain.ErrNotFound, wrapped)
	}

	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		code := respErr.HTTPStatusCode()
		switch {
		case code == http.StatusNotFound:
			return fmt.Errorf("%w: %w", domain.ErrNotFound, wrapped)
		case code == http.StatusTooManyRequests || code >= http.StatusInternalServerError:
			return domain.Transient(wrapped)
		}
		return wrapped
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "SlowDown", "RequestTimeout", "InternalError", "ServiceUnavailable":
			return domain.Transient(wrapped)
		}
		return wrapped
	}
	return domain.Transient(wrapped)
}
