package docstore

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/fakedb/internal/fakedb"
	"github.com/roach88/fakedb/internal/value"
)

// Identifier keys documents by string.
type Identifier = fakedb.Identifier[value.Object, string]

// Store is a document store.
type Store = fakedb.FakeDB[string, value.Object]

// New creates an empty document store keyed by identifier.
func New(identifier Identifier, opts ...fakedb.Option) *Store {
	return fakedb.New(identifier, opts...)
}

// FieldIdentifier keys a document by the canonical JSON of one field.
// A missing field keys as "null".
type FieldIdentifier struct {
	path string
}

// Field keys documents by the field at path (dotted for nested fields).
func Field(path string) FieldIdentifier {
	return FieldIdentifier{path: path}
}

// Path returns the field the identifier reads.
func (f FieldIdentifier) Path() string { return f.path }

func (f FieldIdentifier) NewID(doc value.Object) string {
	v, ok := doc.Lookup(f.path)
	if !ok {
		return "null"
	}
	return value.MustCanonical(v)
}

// IsAutogenerated is true: the key follows the field, so updates that change
// it re-key the document.
func (FieldIdentifier) IsAutogenerated() bool { return true }

// ContentHashIdentifier keys a document by the hash of its canonical form.
type ContentHashIdentifier struct{}

// ContentHash keys documents by content. Two equal documents share a key.
func ContentHash() ContentHashIdentifier { return ContentHashIdentifier{} }

// NewID panics if the document holds invalid UTF-8.
func (ContentHashIdentifier) NewID(doc value.Object) string {
	h, err := value.Hash(value.DomainDocument, doc)
	if err != nil {
		panic(err)
	}
	return h
}

func (ContentHashIdentifier) IsAutogenerated() bool { return true }

// SequenceIdentifier hands out decimal string keys from a counter.
type SequenceIdentifier struct {
	seq *fakedb.Sequence[value.Object]
}

// Sequence returns a fresh counter starting at "1".
func Sequence() SequenceIdentifier {
	return SequenceIdentifier{seq: fakedb.NewSequence[value.Object]()}
}

func (s SequenceIdentifier) NewID(doc value.Object) string {
	return strconv.FormatUint(s.seq.NewID(doc), 10)
}

func (SequenceIdentifier) IsAutogenerated() bool { return false }

// UUIDv7 keys documents with fresh version 7 UUIDs.
func UUIDv7() Identifier {
	return fakedb.UUIDv7[value.Object]{}
}

// ParseIdentifier selects a strategy by name:
//
//	field:<path>   Field(path)
//	content_hash   ContentHash()
//	sequence       Sequence()
//	uuid_v7        UUIDv7()
func ParseIdentifier(name string) (Identifier, error) {
	switch {
	case strings.HasPrefix(name, "field:"):
		path := strings.TrimPrefix(name, "field:")
		if path == "" || strings.Contains(path, "..") || strings.HasPrefix(path, ".") || strings.HasSuffix(path, ".") {
			return nil, fmt.Errorf("invalid field path %q", path)
		}
		return Field(path), nil
	case name == "content_hash":
		return ContentHash(), nil
	case name == "sequence":
		return Sequence(), nil
	case name == "uuid_v7":
		return UUIDv7(), nil
	default:
		return nil, fmt.Errorf("unknown identifier strategy %q", name)
	}
}

// Deterministic reports whether two stores fed the same operations through
// fresh instances of identifier end up with the same keys.
func Deterministic(identifier Identifier) bool {
	switch identifier.(type) {
	case FieldIdentifier, ContentHashIdentifier, SequenceIdentifier:
		return true
	default:
		return false
	}
}
