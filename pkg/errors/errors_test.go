package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidInput, "test message: %s", "value")

	if err.Code != ErrCodeInvalidInput {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidInput)
	}

	if err.Message != "test message: value" {
		t.Errorf("Message = %v, want %v", err.Message, "test message: value")
	}

	expected := "INVALID_INPUT: test message: value"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrCodeNetwork, cause, "put planogram")

	if err.Code != ErrCodeNetwork {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeNetwork)
	}

	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}

	expected := "NETWORK_ERROR: put planogram: connection refused"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeOverlap, "test"),
			code:     ErrCodeOverlap,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeOverlap, "test"),
			code:     ErrCodeInvalidRow,
			expected: false,
		},
		{
			name:     "wrapped with fmt",
			err:      fmt.Errorf("place: %w", New(ErrCodeComponentTooTall, "inner")),
			code:     ErrCodeComponentTooTall,
			expected: true,
		},
		{
			name:     "outer code wins",
			err:      Wrap(ErrCodeTimeout, New(ErrCodeNetwork, "inner"), "outer"),
			code:     ErrCodeTimeout,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidInput,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidInput,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{"Error type", New(ErrCodeVersionConflict, "test"), ErrCodeVersionConflict},
		{"plain error", errors.New("plain"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDetails(t *testing.T) {
	err := New(ErrCodeOverlap, "overlap").
		With(DetailComponent, "c2").
		With(DetailBlocking, "c1").
		With(DetailRow, "0")

	wrapped := fmt.Errorf("move: %w", err)

	if got := Detail(wrapped, DetailBlocking); got != "c1" {
		t.Errorf("Detail(blocking) = %q, want %q", got, "c1")
	}
	if got := Detail(wrapped, DetailSection); got != "" {
		t.Errorf("Detail(section) = %q, want empty", got)
	}
	if got := Detail(errors.New("plain"), DetailRow); got != "" {
		t.Errorf("Detail on plain error = %q, want empty", got)
	}

	all := Details(wrapped)
	if len(all) != 3 {
		t.Fatalf("Details() len = %d, want 3", len(all))
	}
	all[DetailRow] = "changed"
	if Detail(err, DetailRow) != "0" {
		t.Error("Details() should return a copy")
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"Error type", New(ErrCodeInvalidInput, "friendly message"), "friendly message"},
		{"plain error", errors.New("plain error"), "plain error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCategories(t *testing.T) {
	tests := []struct {
		code       Code
		validation bool
		retryable  bool
	}{
		{ErrCodeOverlap, true, false},
		{ErrCodeCapacityExceeded, true, false},
		{ErrCodeDimensionNonPositive, true, false},
		{ErrCodeVersionConflict, false, false},
		{ErrCodeNotFound, false, false},
		{ErrCodeTimeout, false, true},
		{ErrCodeNetwork, false, true},
		{ErrCodeInternal, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := New(tt.code, "x")
			if got := IsValidation(err); got != tt.validation {
				t.Errorf("IsValidation() = %v, want %v", got, tt.validation)
			}
			if got := IsRetryable(err); got != tt.retryable {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.retryable)
			}
		})
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeDimensionNonPositive,
		ErrCodeInvalidInput,
		ErrCodeDuplicateID,
		ErrCodeNotFound,
		ErrCodeCapacityExceeded,
		ErrCodeRowOccupied,
		ErrCodeInvalidRow,
		ErrCodeComponentTooTall,
		ErrCodeOverlap,
		ErrCodeOutOfBounds,
		ErrCodeInvalidFacings,
		ErrCodeComponentNotFound,
		ErrCodeInvalidStatus,
		ErrCodeArchived,
		ErrCodeSaveInProgress,
		ErrCodeProductNotFound,
		ErrCodeInvalidSnapshot,
		ErrCodeUnsupportedSchema,
		ErrCodeVersionConflict,
		ErrCodeTimeout,
		ErrCodeNetwork,
		ErrCodeInternal,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
