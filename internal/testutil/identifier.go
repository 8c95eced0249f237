package testutil

import (
	"fmt"
	"sync"
)

// FixedIdentifier hands out predetermined string keys in order, ignoring
// the value it is asked to key.
//
// It lets tests pin the exact keys a store sees and exercise the
// autogenerated and non-autogenerated code paths with the same keys.
//
// Thread-safety: FixedIdentifier is safe for concurrent use via internal mutex.
type FixedIdentifier[V any] struct {
	mu            sync.Mutex
	keys          []string
	idx           int
	autogenerated bool
}

// NewFixedIdentifier creates an identifier that returns keys in order.
//
// Example:
//
//	id := NewFixedIdentifier[value.Object](false, "a", "b")
//	id.NewID(doc) // "a"
//	id.NewID(doc) // "b"
//	id.NewID(doc) // panic: all keys exhausted
func NewFixedIdentifier[V any](autogenerated bool, keys ...string) *FixedIdentifier[V] {
	return &FixedIdentifier[V]{keys: keys, autogenerated: autogenerated}
}

// NewID returns the next predetermined key.
//
// Panics if all keys have been consumed, so a test that derives more keys
// than it planned for fails loudly.
func (f *FixedIdentifier[V]) NewID(V) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.idx >= len(f.keys) {
		panic(fmt.Sprintf("FixedIdentifier: all %d keys exhausted", len(f.keys)))
	}
	key := f.keys[f.idx]
	f.idx++
	return key
}

// IsAutogenerated reports the flag the identifier was built with.
func (f *FixedIdentifier[V]) IsAutogenerated() bool {
	return f.autogenerated
}

// Used returns how many keys have been handed out.
func (f *FixedIdentifier[V]) Used() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.idx
}
