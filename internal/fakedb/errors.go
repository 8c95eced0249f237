package fakedb

import (
	"errors"
	"fmt"
)

// StoreError is the typed failure returned by every store operation.
//
// The {Code, Key, Message} shape is stable so callers can map it onto their
// own error reporting (see package problem).
type StoreError struct {
	// Code identifies the failure kind.
	Code ErrorCode

	// Key is the rendered key involved in the failure.
	// Empty for LOCKING errors.
	Key string

	// Message is a human-readable description.
	Message string
}

// ErrorCode categorizes store errors.
type ErrorCode string

const (
	// ErrCodeConflict indicates a write would create two records sharing a key.
	ErrCodeConflict ErrorCode = "CONFLICT"

	// ErrCodeKeyNotFound indicates an update targets a key absent from the store.
	ErrCodeKeyNotFound ErrorCode = "KEY_NOT_FOUND"

	// ErrCodeCardinality indicates a batch insert contains duplicate keys.
	ErrCodeCardinality ErrorCode = "CARDINALITY"

	// ErrCodeLocking indicates the store guard could not be acquired cleanly.
	ErrCodeLocking ErrorCode = "LOCKING"
)

// Sentinels for errors.Is. Only the Code is compared.
var (
	ErrConflict    = &StoreError{Code: ErrCodeConflict}
	ErrKeyNotFound = &StoreError{Code: ErrCodeKeyNotFound}
	ErrCardinality = &StoreError{Code: ErrCodeCardinality}
	ErrLocking     = &StoreError{Code: ErrCodeLocking}
)

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s: %s (key=%s)", e.Code, e.Message, e.Key)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports whether target is a StoreError with the same Code.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewConflictError creates a StoreError for a duplicate key.
func NewConflictError(key any) *StoreError {
	return &StoreError{
		Code:    ErrCodeConflict,
		Key:     renderKey(key),
		Message: "conflict of keys",
	}
}

// NewKeyNotFoundError creates a StoreError for an update of an absent key.
func NewKeyNotFoundError(key any) *StoreError {
	return &StoreError{
		Code:    ErrCodeKeyNotFound,
		Key:     renderKey(key),
		Message: "value not found in storage",
	}
}

// NewCardinalityError creates a StoreError for a batch with repeated keys.
func NewCardinalityError(key any) *StoreError {
	return &StoreError{
		Code:    ErrCodeCardinality,
		Key:     renderKey(key),
		Message: "values have conflicting ids",
	}
}

// NewLockingError creates a StoreError for a guard that could not be acquired.
func NewLockingError(message string) *StoreError {
	return &StoreError{
		Code:    ErrCodeLocking,
		Message: fmt.Sprintf("unexpected error while locking: %s", message),
	}
}

// IsConflict returns true if the error is a CONFLICT store error.
// Uses errors.As to handle wrapped errors.
func IsConflict(err error) bool {
	return hasCode(err, ErrCodeConflict)
}

// IsKeyNotFound returns true if the error is a KEY_NOT_FOUND store error.
func IsKeyNotFound(err error) bool {
	return hasCode(err, ErrCodeKeyNotFound)
}

// IsCardinality returns true if the error is a CARDINALITY store error.
func IsCardinality(err error) bool {
	return hasCode(err, ErrCodeCardinality)
}

// IsLocking returns true if the error is a LOCKING store error.
func IsLocking(err error) bool {
	return hasCode(err, ErrCodeLocking)
}

// CodeOf extracts the ErrorCode from err, if err wraps a StoreError.
func CodeOf(err error) (ErrorCode, bool) {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code, true
	}
	return "", false
}

func hasCode(err error, code ErrorCode) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

func renderKey(key any) string {
	return fmt.Sprintf("%v", key)
}
