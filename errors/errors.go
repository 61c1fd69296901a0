package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error is a structured error carrying a pipeline ErrorCode, a human-readable
// message, optional context fields, and the wrapped cause.
type Error struct {
	// Code classifies the error condition.
	Code ErrorCode

	// Message is a human-readable description of the failure.
	Message string

	// Context holds structured key/value context attached at wrap time.
	Context map[string]interface{}

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, fmt.Sprintf("%s=%v", k, e.Context[k]))
		}
		b.WriteString(" (")
		b.WriteString(strings.Join(pairs, ", "))
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause for errors.Is/errors.As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap wraps an existing error with a code and message.
func Wrap(err error, code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// WrapWithContext wraps an existing error with a code, message, and
// structured context fields.
func WrapWithContext(err error, code ErrorCode, message string, context map[string]interface{}) *Error {
	return &Error{Code: code, Message: message, Context: context, Err: err}
}

// CodeOf returns the ErrorCode carried by err, walking the wrap chain.
// Errors without a code report CodeUnknown.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
