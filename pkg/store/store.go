// Package store defines the versioned document store that planogram
// snapshots are saved to.
//
// Documents are keyed by planogram id. Every successful [Store.Put] writes a
// new immutable version; nothing is ever overwritten, so earlier versions
// stay retrievable through [Store.GetVersion] and [Store.Versions].
//
// Backends live in subpackages:
//   - memory: in-process storage for tests and single-run CLI use
//   - file: one JSON file per version on local disk
//   - sqlite: embedded database, the default for long-running servers
//   - redis: shared store using WATCH/MULTI transactions
//   - mongo: shared store guarded by a unique (planogram_id, version) index
//
// # Optimistic Concurrency
//
// Put succeeds only when the latest stored version equals expectedVersion.
// A planogram that has never been saved is at version 0. On success the
// document is written at expectedVersion+1; otherwise Put returns
// [ErrConflict] and writes nothing. Backends make the check-and-write atomic,
// so two concurrent writers with the same expectedVersion never both succeed.
//
// # Errors
//
// Backends return [ErrNotFound] and [ErrConflict] unwrapped or wrapped with
// %w. Transient transport failures are wrapped with [Retryable] so callers
// can retry them with backoff.
package store

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when a planogram or version does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when the stored version differs from the
	// expected version on Put.
	ErrConflict = errors.New("version conflict")
)

// Document is one stored version of a planogram snapshot.
type Document struct {
	ID      string
	Version int
	Data    []byte
	SavedAt time.Time
}

// VersionInfo describes a stored version without its payload.
type VersionInfo struct {
	Version int       `json:"version"`
	SavedAt time.Time `json:"savedAt"`
	Size    int       `json:"size"`
}

// Store is a versioned document store keyed by planogram id.
type Store interface {
	// Get returns the latest version of id, or ErrNotFound.
	Get(ctx context.Context, id string) (Document, error)

	// GetVersion returns a specific version of id, or ErrNotFound.
	GetVersion(ctx context.Context, id string, version int) (Document, error)

	// Versions lists the stored versions of id in ascending order, or
	// ErrNotFound if id has never been saved.
	Versions(ctx context.Context, id string) ([]VersionInfo, error)

	// Put writes data as version expectedVersion+1 if and only if the latest
	// stored version is expectedVersion. It returns the new version or
	// ErrConflict.
	Put(ctx context.Context, id string, data []byte, expectedVersion int) (int, error)

	// Close releases backend resources.
	Close() error
}

// RetryableError wraps an error to indicate it is transient and may be
// retried.
type RetryableError struct{ Err error }

// Retryable wraps an error as a RetryableError.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// Error returns the error message of the wrapped error.
func (e *RetryableError) Error() string { return e.Err.Error() }

// Unwrap returns the wrapped error.
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable checks if an error is wrapped with RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// ValidateID rejects planogram ids that backends cannot key on safely.
func ValidateID(id string) error {
	if id == "" {
		return errors.New("planogram id is required")
	}
	if len(id) > 256 {
		return errors.New("planogram id is too long")
	}
	return nil
}

// InfoOf returns the VersionInfo describing d.
func InfoOf(d Document) VersionInfo {
	return VersionInfo{Version: d.Version, SavedAt: d.SavedAt, Size: len(d.Data)}
}
