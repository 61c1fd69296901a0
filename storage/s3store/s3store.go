// Package s3store implements the storage.BlobStore port on Amazon S3 using
// the AWS SDK v2. It detects content types, retries transient failures with
// bounded exponential backoff, and translates SDK errors onto the storage
// sentinel errors.
package s3store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cenkalti/backoff/v4"
	"github.com/gabriel-vasile/mimetype"

	"github.com/input-output-hk/catalyst-forge-release/storage"
)

// defaultContentType is used when content type detection fails.
const defaultContentType = "application/octet-stream"

// detectionWindow is how many leading bytes are sampled for content-type
// detection. Matches mimetype's own read limit.
const detectionWindow = 3072

// Store is a BlobStore backed by an S3 bucket. All methods are safe for
// concurrent use: the underlying SDK client is thread-safe and the Store
// itself is immutable after construction.
type Store struct {
	api        S3API
	bucket     string
	maxRetries int
	logger     *slog.Logger
}

// New creates a Store for the given bucket. Credentials come from the
// default AWS credential chain unless WithStaticCredentials is supplied.
//
// Returns storage.ErrNoCredentials when no usable credentials can be
// resolved; callers are expected to treat that as skip-with-warning rather
// than a failure.
func New(ctx context.Context, bucket string, opts ...Option) (*Store, error) {
	cfg := &config{maxRetries: 3}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.region))
	}
	if cfg.accessKeyID != "" || cfg.secretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.accessKeyID, cfg.secretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, newError("init", bucket, "", err)
	}
	if awsCfg.Region == "" {
		awsCfg.Region = "us-east-1"
	}

	// Resolve credentials eagerly so a missing-credentials deployment is
	// distinguishable from an upload failure.
	if _, err := awsCfg.Credentials.Retrieve(ctx); err != nil {
		return nil, storage.ErrNoCredentials
	}

	var s3Opts []func(*s3.Options)
	if cfg.endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.endpoint)
		})
	}
	if cfg.forcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return &Store{
		api:        s3.NewFromConfig(awsCfg, s3Opts...),
		bucket:     bucket,
		maxRetries: cfg.maxRetries,
		logger:     cfg.logger,
	}, nil
}

// NewWithAPI creates a Store with a custom S3API implementation. This is
// primarily used for testing with mocked clients.
func NewWithAPI(api S3API, bucket string, opts ...Option) *Store {
	cfg := &config{maxRetries: 3}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return &Store{api: api, bucket: bucket, maxRetries: cfg.maxRetries, logger: cfg.logger}
}

// Put uploads the reader's content under key, overwriting any prior object.
// The content type is sniffed from the leading bytes. Transient failures are
// retried up to the configured maximum with exponential backoff.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	if key == "" {
		return newError("put", s.bucket, key, errors.New("key cannot be empty"))
	}
	if r == nil {
		return newError("put", s.bucket, key, errors.New("reader cannot be nil"))
	}

	// Buffer the content so transient-failure retries can resend it and the
	// SDK gets a seekable body for signing.
	data, err := io.ReadAll(r)
	if err != nil {
		return newError("put", s.bucket, key, err)
	}

	contentType := defaultContentType
	if len(data) > 0 {
		window := data
		if len(window) > detectionWindow {
			window = window[:detectionWindow]
		}
		contentType = mimetype.Detect(window).String()
	}

	op := func() error {
		_, putErr := s.api.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(s.bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(data),
			ContentLength: aws.Int64(int64(len(data))),
			ContentType:   aws.String(contentType),
		})
		if putErr != nil {
			translated := translate(putErr)
			if !isRetryable(translated) {
				return backoff.Permanent(translated)
			}
			s.logger.Warn("retrying transient upload failure",
				"bucket", s.bucket, "key", key, "error", translated)
			return translated
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(s.maxRetries)),
		ctx,
	)
	if err := backoff.Retry(op, policy); err != nil {
		return newError("put", s.bucket, key, err)
	}

	s.logger.Debug("uploaded object", "bucket", s.bucket, "key", key, "size", size)
	return nil
}

// PutJSON marshals v and uploads it under key with a JSON content type.
// Used for the latest-pointer record, which fully overwrites the prior
// value for its channel.
func (s *Store) PutJSON(ctx context.Context, key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return newError("put-json", s.bucket, key, err)
	}

	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		return newError("put-json", s.bucket, key, translate(err))
	}
	return nil
}

// Exists reports whether an object is present under key.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		translated := translate(err)
		if errors.Is(translated, storage.ErrNotFound) {
			return false, nil
		}
		return false, newError("head", s.bucket, key, translated)
	}
	return true, nil
}

// Bucket returns the bucket this store writes to.
func (s *Store) Bucket() string {
	return s.bucket
}

var _ storage.BlobStore = (*Store)(nil)
