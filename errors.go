package mold

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic error handling.
// Use errors.Is() to check for these error types.
var (
	// ErrTransform indicates a caller-supplied field transform failed.
	ErrTransform = errors.New("transform failed")

	// ErrNotStruct indicates a schema was requested for a non-struct type.
	ErrNotStruct = errors.New("target is not a struct")

	// ErrInvalidTarget indicates Into was given something other than a non-nil
	// pointer to a struct (or to a slice of structs for IntoSlice).
	ErrInvalidTarget = errors.New("invalid target")

	// ErrInvalidExpr indicates a field mapping expression failed to compile.
	ErrInvalidExpr = errors.New("invalid expression")

	// ErrUnmarshal indicates the codec failed to unmarshal input data.
	ErrUnmarshal = errors.New("unmarshal failed")

	// ErrMarshal indicates the codec failed to marshal output data.
	ErrMarshal = errors.New("marshal failed")
)

// ConfigError represents an unusable mapping or target.
// It wraps a sentinel error with the type and field that triggered it.
type ConfigError struct {
	Err    error  // Underlying sentinel error (ErrInvalidExpr, ErrNotStruct, etc.)
	Type   string // Target type name
	Field  string // Field name, if the error is field-specific
	Detail string // Offending expression or type description
	Cause  error  // Original error, if any
}

func (e *ConfigError) Error() string {
	msg := e.Err.Error()
	if e.Type != "" {
		msg = fmt.Sprintf("%s: %s", e.Type, msg)
	}
	if e.Field != "" {
		msg = fmt.Sprintf("%s (field %s)", msg, e.Field)
	}
	if e.Detail != "" {
		msg = fmt.Sprintf("%s %q", msg, e.Detail)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// TransformError represents a failure raised by a field transform.
// Both ErrTransform and the original cause are reachable with errors.Is.
type TransformError struct {
	Type  string // Target type name
	Field string // Target field that was being populated
	Cause error  // Error returned by the transform
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform %s.%s: %v", e.Type, e.Field, e.Cause)
}

func (e *TransformError) Unwrap() []error {
	return []error{ErrTransform, e.Cause}
}

// BatchError reports which element of a batch aborted it.
type BatchError struct {
	Index int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("element %d: %v", e.Index, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// CodecError represents a marshal/unmarshal error.
type CodecError struct {
	Err         error  // Underlying sentinel error (ErrMarshal, ErrUnmarshal)
	ContentType string // Content type of the codec that failed
	Cause       error  // Original error from the codec
}

func (e *CodecError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %v", e.Err.Error(), e.ContentType, e.Cause)
	}
	return e.Err.Error()
}

func (e *CodecError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// newTransformError wraps a transform failure with field context.
func newTransformError(typeName, field string, cause error) error {
	return &TransformError{
		Type:  typeName,
		Field: field,
		Cause: cause,
	}
}

// newCodecError creates a CodecError for marshal/unmarshal failures.
func newCodecError(sentinel error, contentType string, cause error) error {
	return &CodecError{
		Err:         sentinel,
		ContentType: contentType,
		Cause:       cause,
	}
}
