// Package harness runs YAML conformance scenarios against document stores.
//
// A scenario names an identifier strategy, seeds documents, runs store
// operations with expected outcomes and asserts on the final state:
//
//	name: update-many-conflict
//	description: A shifted key colliding with an unmatched record rolls back.
//	identifier: field:id
//	seed:
//	  - {id: 1, name: a}
//	  - {id: 2, name: b}
//	  - {id: 3, name: c}
//	steps:
//	  - op: update_many
//	    match: '{id: <3}'
//	    set: {id: 3}
//	    expect: {error: CONFLICT}
//	assertions:
//	  - type: count
//	    count: 3
//
// Every scenario runs against each configured backend: the in-memory fake
// and, optionally, the SQLite reference store. Backends must agree on every
// step outcome, and on the final state when keys are deterministic, so a
// passing suite shows the fake behaves like the real database for the
// behaviors it covers.
//
// Snapshot renders the trace and final state as canonical JSON for golden
// file comparison; RunWithGolden and AssertGolden wrap goldie for go test.
package harness
