// Package sqlstore implements the document store contract on SQLite.
//
// It exists to check the in-memory fake against a real database: every
// operation has the same signature shape (plus a context), the same
// all-or-nothing semantics and the same fakedb error codes. Scenario suites
// run against both and compare the results.
//
// Atomicity comes from SQL transactions rather than staging. Primary key
// violations surface as CONFLICT and SQLITE_BUSY/SQLITE_LOCKED as LOCKING.
//
// Documents are stored as canonical JSON, one row per key:
//
//	records(key TEXT PRIMARY KEY, doc TEXT NOT NULL)
package sqlstore
