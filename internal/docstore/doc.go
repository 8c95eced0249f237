// Package docstore adapts the generic store to schemaless documents.
//
// A document store is a *fakedb.FakeDB[string, value.Object]. This package
// supplies the pieces that make it usable from data files rather than Go
// code: identifier strategies selected by name, matchers compiled from CUE
// constraints, updaters built from set/unset patches and orders built from
// field lists.
//
// Example:
//
//	id, _ := docstore.ParseIdentifier("field:id")
//	db := docstore.New(id)
//	match, _ := docstore.CompileMatcher(`{id: <506}`)
//	found, _ := db.FindMany(fakedb.FindArgs[value.Object]{Matcher: match})
package docstore
