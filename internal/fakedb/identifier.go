package fakedb

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Identifier derives the key under which a value is stored.
//
// Implementations must be safe for concurrent use: NewID is called both
// inside the store guard and outside it (InsertMany's cardinality check).
type Identifier[V any, K comparable] interface {
	// NewID returns the key for value.
	NewID(value V) K

	// IsAutogenerated reports whether keys must be recomputed after an
	// UpdateMany mutation. When false, UpdateMany keeps each record's
	// original key.
	//
	// Documented meaning: true if NewID returns an id based on the value,
	// false if the id is unrelated to the value.
	IsAutogenerated() bool
}

// Sequence hands out monotonically increasing keys starting at 1.
//
// The value is ignored. Each NewID call returns a distinct key, including
// under concurrent use.
//
// IsAutogenerated returns false even though the ids are independent of the
// value. This keeps UpdateMany from assigning fresh sequence numbers to
// updated records; do not flip it without revisiting UpdateMany.
type Sequence[V any] struct {
	last atomic.Uint64
}

// NewSequence creates a sequence whose first id is 1.
func NewSequence[V any]() *Sequence[V] {
	return &Sequence[V]{}
}

// NewSequenceAt creates a sequence whose next id is start+1.
// Used to continue numbering after seeding a store.
func NewSequenceAt[V any](start uint64) *Sequence[V] {
	s := &Sequence[V]{}
	s.last.Store(start)
	return s
}

// NewID returns the next sequence number.
func (s *Sequence[V]) NewID(V) uint64 {
	return s.last.Add(1)
}

// Current returns the last issued id without advancing.
func (s *Sequence[V]) Current() uint64 {
	return s.last.Load()
}

// IsAutogenerated returns false. See the type documentation.
func (s *Sequence[V]) IsAutogenerated() bool {
	return false
}

// FieldIdentifier projects the key out of the value itself.
type FieldIdentifier[V any, K comparable] struct {
	project func(V) K
}

// ByField creates an identifier that reads the key from the value.
//
// Example:
//
//	ByField(func(c Country) uint32 { return c.ID })
func ByField[V any, K comparable](project func(V) K) *FieldIdentifier[V, K] {
	return &FieldIdentifier[V, K]{project: project}
}

// NewID returns the projected key.
func (f *FieldIdentifier[V, K]) NewID(value V) K {
	return f.project(value)
}

// IsAutogenerated returns true: a mutated value may carry a new key.
func (f *FieldIdentifier[V, K]) IsAutogenerated() bool {
	return true
}

// UUIDv7 hands out time-sortable UUIDv7 strings.
//
// Like Sequence, the value is ignored and IsAutogenerated returns false so
// updated records keep their key.
//
// Thread-safety: UUIDv7 is stateless and safe for concurrent use.
type UUIDv7[V any] struct{}

// NewID returns a new hyphenated UUIDv7.
//
// Panics if UUID generation fails (entropy source exhausted).
func (UUIDv7[V]) NewID(V) string {
	return uuid.Must(uuid.NewV7()).String()
}

// IsAutogenerated returns false.
func (UUIDv7[V]) IsAutogenerated() bool {
	return false
}
