// Package errors provides structured error types for the planogram engine.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the engine, CLI and HTTP API
//   - Machine-readable error codes for programmatic handling
//   - Offending ids (section, row, component) for the editing surface
//   - Error wrapping with context preservation
//
// # Error Categories
//
// Validation errors (DIMENSION_*, layout and placement codes) are deterministic:
// they are caused by the requested operation and the current state and are
// never retried. I/O errors (VERSION_CONFLICT, NOT_FOUND, TIMEOUT, NETWORK_ERROR)
// come from the document store. Of those, only TIMEOUT and NETWORK_ERROR are
// safe to retry; conflicts and missing documents require the caller to reload.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeOverlap, "component %s overlaps %s", id, other).
//	    With(errors.DetailComponent, id).
//	    With(errors.DetailBlocking, other)
//	if errors.Is(err, errors.ErrCodeOverlap) {
//	    // highlight errors.Detail(err, errors.DetailBlocking)
//	}
package errors

import (
	"errors"
	"fmt"
	"maps"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Dimension and input validation
	ErrCodeDimensionNonPositive Code = "DIMENSION_NON_POSITIVE"
	ErrCodeInvalidInput         Code = "INVALID_INPUT"

	// Fixture hierarchy
	ErrCodeDuplicateID      Code = "DUPLICATE_ID"
	ErrCodeNotFound         Code = "NOT_FOUND"
	ErrCodeCapacityExceeded Code = "CAPACITY_EXCEEDED"
	ErrCodeRowOccupied      Code = "ROW_OCCUPIED"

	// Placement
	ErrCodeInvalidRow        Code = "INVALID_ROW"
	ErrCodeComponentTooTall  Code = "COMPONENT_TOO_TALL"
	ErrCodeOverlap           Code = "OVERLAP"
	ErrCodeOutOfBounds       Code = "OUT_OF_BOUNDS"
	ErrCodeInvalidFacings    Code = "INVALID_FACINGS"
	ErrCodeComponentNotFound Code = "COMPONENT_NOT_FOUND"

	// Planogram lifecycle and editing session
	ErrCodeInvalidStatus     Code = "INVALID_STATUS"
	ErrCodeArchived          Code = "PLANOGRAM_ARCHIVED"
	ErrCodeSaveInProgress    Code = "SAVE_IN_PROGRESS"
	ErrCodeProductNotFound   Code = "PRODUCT_NOT_FOUND"
	ErrCodeInvalidSnapshot   Code = "INVALID_SNAPSHOT"
	ErrCodeUnsupportedSchema Code = "UNSUPPORTED_SCHEMA"

	// Document store
	ErrCodeVersionConflict Code = "VERSION_CONFLICT"
	ErrCodeTimeout         Code = "TIMEOUT"
	ErrCodeNetwork         Code = "NETWORK_ERROR"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Detail keys attached to errors so callers can point at the offending entity.
const (
	DetailSection   = "section"
	DetailRow       = "row"
	DetailComponent = "component"
	DetailBlocking  = "blocking"
	DetailField     = "field"
	DetailPlanogram = "planogram"
	DetailProduct   = "product"
	DetailVersion   = "version"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code              // Machine-readable error code
	Message string            // Human-readable message
	Details map[string]string // Offending ids keyed by Detail* constants
	Cause   error             // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// With returns e with the detail key set to value. It mutates and returns the
// receiver so calls can be chained on a freshly created error.
func (e *Error) With(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string, 2)
	}
	e.Details[key] = value
	return e
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Detail returns the detail value stored under key, or "" when absent.
func Detail(err error, key string) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Details[key]
	}
	return ""
}

// Details returns a copy of all details attached to err.
func Details(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) && len(e.Details) > 0 {
		return maps.Clone(e.Details)
	}
	return nil
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

var validationCodes = map[Code]bool{
	ErrCodeDimensionNonPositive: true,
	ErrCodeInvalidInput:         true,
	ErrCodeDuplicateID:          true,
	ErrCodeCapacityExceeded:     true,
	ErrCodeRowOccupied:          true,
	ErrCodeInvalidRow:           true,
	ErrCodeComponentTooTall:     true,
	ErrCodeOverlap:              true,
	ErrCodeOutOfBounds:          true,
	ErrCodeInvalidFacings:       true,
	ErrCodeComponentNotFound:    true,
	ErrCodeInvalidStatus:        true,
	ErrCodeArchived:             true,
	ErrCodeProductNotFound:      true,
}

// IsValidation reports whether err is a deterministic validation failure.
// NOT_FOUND is excluded because it is shared with the document store.
func IsValidation(err error) bool {
	return validationCodes[GetCode(err)]
}

// IsRetryable reports whether err is a transient I/O failure that may be
// retried with backoff.
func IsRetryable(err error) bool {
	switch GetCode(err) {
	case ErrCodeTimeout, ErrCodeNetwork:
		return true
	}
	return false
}
