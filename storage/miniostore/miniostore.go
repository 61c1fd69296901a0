// Package miniostore implements the storage.BlobStore port on any
// S3-compatible service via the MinIO client. It exists for self-hosted
// deployments where the AWS SDK's credential chain and endpoint handling get
// in the way.
package miniostore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/gabriel-vasile/mimetype"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/input-output-hk/catalyst-forge-release/storage"
)

// Store is a BlobStore backed by an S3-compatible bucket reached through the
// MinIO client. Safe for concurrent use.
type Store struct {
	client minioAPI
	bucket string
	logger *slog.Logger
}

// minioAPI is the subset of the MinIO client used by the store, declared for
// mock-based tests.
type minioAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
}

// Options configures a Store.
type Options struct {
	// Endpoint is the host:port of the S3-compatible service.
	Endpoint string

	// AccessKeyID and SecretAccessKey authenticate requests. Both empty
	// means no credentials are configured.
	AccessKeyID     string
	SecretAccessKey string

	// Secure enables TLS.
	Secure bool

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// New creates a Store for the given bucket.
//
// Returns storage.ErrNoCredentials when no credentials are configured, so
// callers can skip the sink with a warning instead of failing.
func New(bucket string, opts Options) (*Store, error) {
	if opts.AccessKeyID == "" && opts.SecretAccessKey == "" {
		return nil, storage.ErrNoCredentials
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure: opts.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("miniostore: client init: %w", err)
	}

	return &Store{client: client, bucket: bucket, logger: opts.Logger}, nil
}

// NewWithClient creates a Store with a custom MinIO API implementation.
// This is primarily used for testing with mocked clients.
func NewWithClient(client minioAPI, bucket string) *Store {
	return &Store{client: client, bucket: bucket, logger: slog.Default()}
}

// Put uploads the reader's content under key, overwriting any prior object.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	if key == "" {
		return errors.New("miniostore.put: key cannot be empty")
	}
	if r == nil {
		return errors.New("miniostore.put: reader cannot be nil")
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("miniostore.put %s/%s: %w", s.bucket, key, err)
	}

	contentType := "application/octet-stream"
	if len(data) > 0 {
		contentType = mimetype.Detect(data).String()
	}

	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("miniostore.put %s/%s: %w", s.bucket, key, translate(err))
	}

	s.logger.Debug("uploaded object", "bucket", s.bucket, "key", key, "size", len(data))
	return nil
}

// PutJSON marshals v and uploads it under key with a JSON content type.
func (s *Store) PutJSON(ctx context.Context, key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("miniostore.put-json %s/%s: %w", s.bucket, key, err)
	}

	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("miniostore.put-json %s/%s: %w", s.bucket, key, translate(err))
	}
	return nil
}

// Exists reports whether an object is present under key.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		translated := translate(err)
		if errors.Is(translated, storage.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("miniostore.stat %s/%s: %w", s.bucket, key, translated)
	}
	return true, nil
}

// translate maps MinIO error responses onto the storage sentinel hierarchy.
func translate(err error) error {
	if err == nil {
		return nil
	}

	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("%w: %w", storage.ErrNotFound, err)
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return fmt.Errorf("%w: %w", storage.ErrAccessDenied, err)
	case "SlowDown", "InternalError", "ServiceUnavailable":
		return fmt.Errorf("%w: %w", storage.ErrTransient, err)
	}
	return err
}

var _ storage.BlobStore = (*Store)(nil)
