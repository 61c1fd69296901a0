// Package errors provides the error handling system shared by the release
// pipeline components. It extends Go's standard error handling with
// structured error codes and context preservation so that failures crossing
// component boundaries (classification, publication, release coordination)
// stay classifiable at the top of the pipeline.
package errors

// ErrorCode represents a specific error condition in the release pipeline.
// Error codes are string-based for debuggability and natural JSON serialization.
type ErrorCode string

const (
	// Resource errors.

	// CodeNotFound indicates a requested resource does not exist.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeAlreadyExists indicates a resource already exists and cannot be created again.
	CodeAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// CodeConflict indicates a resource state conflict that prevents the operation.
	CodeConflict ErrorCode = "CONFLICT"

	// Validation errors.

	// CodeInvalidInput indicates the provided input is invalid or malformed.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeInvalidConfig indicates a configuration error prevents the operation.
	CodeInvalidConfig ErrorCode = "INVALID_CONFIGURATION"

	// Infrastructure errors.

	// CodeStorage indicates an object storage operation failed.
	CodeStorage ErrorCode = "STORAGE_ERROR"

	// CodeNetwork indicates a network operation failed.
	CodeNetwork ErrorCode = "NETWORK_ERROR"

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"

	// Pipeline errors.

	// CodeBuildFailed indicates an artifact build operation failed.
	CodeBuildFailed ErrorCode = "BUILD_FAILED"

	// CodePublishFailed indicates an artifact publish operation failed.
	CodePublishFailed ErrorCode = "PUBLISH_FAILED"

	// CodeReleaseFailed indicates a release lifecycle operation failed.
	CodeReleaseFailed ErrorCode = "RELEASE_FAILED"

	// CodeNoArtifacts indicates the release aggregate contained no artifacts.
	CodeNoArtifacts ErrorCode = "NO_ARTIFACTS"

	// System errors.

	// CodeInternal indicates an internal system error occurred.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeUnavailable indicates an external service is temporarily unavailable.
	CodeUnavailable ErrorCode = "SERVICE_UNAVAILABLE"

	// Generic errors.

	// CodeUnknown indicates an unknown or unclassified error occurred.
	CodeUnknown ErrorCode = "UNKNOWN"
)
