// Package storage defines the object-storage port used by the release
// pipeline. Adapters (S3, MinIO) live in subpackages; the pipeline core only
// sees this interface, so the release state machine is testable without
// network access.
package storage

import (
	"context"
	"errors"
	"io"
)

// Sentinel errors shared by all storage adapters. Adapters translate their
// SDK errors onto these so callers can branch with errors.Is.
var (
	// ErrNoCredentials indicates the adapter has no usable credentials.
	// Callers treat this as skip-with-warning, never as a pipeline failure.
	ErrNoCredentials = errors.New("storage: credentials unavailable")

	// ErrNotFound indicates the requested object does not exist.
	ErrNotFound = errors.New("storage: object not found")

	// ErrAccessDenied indicates the credentials lack permission.
	ErrAccessDenied = errors.New("storage: access denied")

	// ErrTransient indicates a retryable failure (throttling, connection).
	ErrTransient = errors.New("storage: transient failure")
)

// BlobStore is the narrow upload port the pipeline publishes through.
// Writes use overwrite-on-conflict semantics: putting an existing key fully
// replaces the prior value (last writer wins, no history).
type BlobStore interface {
	// Put uploads the reader's content under key. Size must be the exact
	// content length; implementations may use it to size the request.
	Put(ctx context.Context, key string, r io.Reader, size int64) error

	// PutJSON marshals v and uploads it under key with a JSON content type.
	PutJSON(ctx context.Context, key string, v any) error

	// Exists reports whether an object is present under key.
	Exists(ctx context.Context, key string) (bool, error)
}
