package fakedb

import "cmp"

// Matcher selects the records a read, update or delete affects.
// A nil Matcher accepts every record.
type Matcher[V any] func(V) bool

// Order is a three-way comparator in the cmp.Compare convention:
// negative if a sorts before b, zero if equal, positive otherwise.
type Order[V any] func(a, b V) int

// Updater mutates a matched record in place.
// A nil Updater leaves records unchanged.
type Updater[V any] func(*V)

// FindArgs configures FindMany and FindOne.
//
// The zero value matches every record and applies no ordering, so results
// come back in map iteration order.
type FindArgs[V any] struct {
	Matcher Matcher[V]
	Order   Order[V]
}

// UpdateArgs configures UpdateMany.
//
// The zero value matches every record and changes nothing.
type UpdateArgs[V any] struct {
	Matcher Matcher[V]
	Updater Updater[V]
}

// Match applies m, treating nil as accept-all.
func (m Matcher[V]) Match(v V) bool {
	if m == nil {
		return true
	}
	return m(v)
}

// Apply applies u, treating nil as a no-op.
func (u Updater[V]) Apply(v *V) {
	if u != nil {
		u(v)
	}
}

// MatchAll returns a matcher accepting every record.
func MatchAll[V any]() Matcher[V] {
	return func(V) bool { return true }
}

// OrderBy builds an ascending Order from a sort key projection.
//
// Example:
//
//	OrderBy(func(c Country) uint32 { return c.ID })
func OrderBy[V any, T cmp.Ordered](key func(V) T) Order[V] {
	return func(a, b V) int {
		return cmp.Compare(key(a), key(b))
	}
}

// Descending reverses an Order.
func Descending[V any](o Order[V]) Order[V] {
	return func(a, b V) int {
		return o(b, a)
	}
}

// Then chains a tiebreaker consulted when o reports equality.
func (o Order[V]) Then(next Order[V]) Order[V] {
	return func(a, b V) int {
		if c := o(a, b); c != 0 {
			return c
		}
		return next(a, b)
	}
}
