package s3store

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"

	"github.com/input-output-hk/catalyst-forge-release/storage"
)

// Error wraps an S3 operation failure with the operation, bucket, and key
// that produced it.
type Error struct {
	// Op is the operation that failed (e.g. "put", "head").
	Op string

	// Bucket is the S3 bucket name.
	Bucket string

	// Key is the object key, if applicable.
	Key string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("s3store.%s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
	}
	return fmt.Sprintf("s3store.%s bucket %s: %v", e.Op, e.Bucket, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op, bucket, key string, err error) *Error {
	return &Error{Op: op, Bucket: bucket, Key: key, Err: err}
}

// transient AWS API error codes that warrant a retry.
var transientCodes = map[string]bool{
	"SlowDown":            true,
	"RequestTimeout":      true,
	"InternalError":       true,
	"ServiceUnavailable":  true,
	"ThrottlingException": true,
}

// translate maps an AWS SDK error onto the storage sentinel hierarchy so
// callers can branch with errors.Is without importing the SDK.
func translate(err error) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch code := apiErr.ErrorCode(); {
		case code == "NoSuchKey" || code == "NotFound" || code == "NoSuchBucket":
			return fmt.Errorf("%w: %w", storage.ErrNotFound, err)
		case code == "AccessDenied" || code == "InvalidAccessKeyId" || code == "SignatureDoesNotMatch":
			return fmt.Errorf("%w: %w", storage.ErrAccessDenied, err)
		case transientCodes[code]:
			return fmt.Errorf("%w: %w", storage.ErrTransient, err)
		}
	}
	return err
}

// isRetryable reports whether an upload failure is worth retrying.
func isRetryable(err error) bool {
	return errors.Is(err, storage.ErrTransient)
}
