package fakedb

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreError_Messages(t *testing.T) {
	tests := []struct {
		name string
		err  *StoreError
		want string
	}{
		{"conflict", NewConflictError(uint32(51)), "CONFLICT: conflict of keys (key=51)"},
		{"key not found", NewKeyNotFoundError("abc"), "KEY_NOT_FOUND: value not found in storage (key=abc)"},
		{"cardinality", NewCardinalityError(852), "CARDINALITY: values have conflicting ids (key=852)"},
		{"locking", NewLockingError("boom"), "LOCKING: unexpected error while locking: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestStoreError_ClassifiesWrapped(t *testing.T) {
	wrapped := fmt.Errorf("seeding fixtures: %w", NewConflictError(7))

	assert.True(t, IsConflict(wrapped))
	assert.False(t, IsKeyNotFound(wrapped))
	assert.False(t, IsCardinality(wrapped))
	assert.False(t, IsLocking(wrapped))

	assert.True(t, errors.Is(wrapped, ErrConflict))
	assert.False(t, errors.Is(wrapped, ErrLocking))

	code, ok := CodeOf(wrapped)
	assert.True(t, ok)
	assert.Equal(t, ErrCodeConflict, code)
}

func TestCodeOf_ForeignError(t *testing.T) {
	_, ok := CodeOf(errors.New("disk on fire"))
	assert.False(t, ok)
	assert.False(t, IsConflict(nil))
}
