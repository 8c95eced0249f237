// Package fakedb implements an in-process associative store used as a
// stand-in for a real database in tests.
//
// A FakeDB holds records of any type V under keys of type K. Keys are derived
// from records by a pluggable Identifier (a sequence counter, a field
// projection, a UUID generator). The store enforces the contracts a real
// database would:
//   - Unique keys: no two records ever share a key
//   - Atomic batches: InsertMany and UpdateMany apply completely or not at all
//   - Filtered reads: FindMany selects with a Matcher and sorts with an Order
//   - Conditional updates: Update fails when the key is absent
//
// # Concurrency
//
// Every operation holds a single mutex for its whole duration, so each call
// is linearizable. A sequence of calls is not atomic. Caller-supplied code
// (matchers, orders, updaters, identifiers) runs under that mutex; if it
// panics, the store is marked poisoned and every later call fails with a
// LOCKING error instead of operating on possibly half-applied state.
//
// # Errors
//
// Failures are *StoreError values with a stable Code:
//
//	CONFLICT       write would create a duplicate key
//	KEY_NOT_FOUND  Update targets an absent key
//	CARDINALITY    InsertMany batch contains duplicate keys
//	LOCKING        store poisoned by an earlier panic
//
// Use IsConflict, IsKeyNotFound, IsCardinality and IsLocking to classify.
//
// # Usage
//
//	db := fakedb.New(fakedb.ByField(func(c Country) uint32 { return c.ID }))
//	if err := db.Insert(Country{ID: 7, Name: "Kazakhstan"}); err != nil {
//	    return err
//	}
//	kz, ok, err := db.FindByID(7)
package fakedb
