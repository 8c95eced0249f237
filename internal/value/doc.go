// Package value defines the schemaless document model stored by the
// document-level stores.
//
// Documents are trees of Null, Bool, Int, String, Array and Object. Floats
// are not representable: equal documents must serialize to equal bytes, and
// the canonical form (RFC 8785 key order, NFC strings, no insignificant
// whitespace) is what keys, hashes and golden snapshots are computed from.
//
// Values are treated as immutable once stored. Object.Clone produces an
// independent deep copy for callers that mutate.
package value
