package value

import (
	"slices"
	"strings"
	"unicode/utf16"
)

// Value is a sealed interface over the document node types.
type Value interface {
	value()
}

// Null is the JSON null.
type Null struct{}

// String is a text node.
type String string

// Int is an integer node. There is no float counterpart.
type Int int64

// Bool is a boolean node.
type Bool bool

// Array is an ordered list of nodes.
type Array []Value

// Object maps field names to nodes. Iterate with SortedKeys when order matters.
type Object map[string]Value

func (Null) value()   {}
func (String) value() {}
func (Int) value()    {}
func (Bool) value()   {}
func (Array) value()  {}
func (Object) value() {}

// Kind names the node type of v, as used in error messages.
func Kind(v Value) string {
	switch v.(type) {
	case nil, Null:
		return "null"
	case String:
		return "string"
	case Int:
		return "int"
	case Bool:
		return "bool"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "unknown"
	}
}

// Clone returns a deep copy of the document.
func (o Object) Clone() Object {
	if o == nil {
		return nil
	}
	out := make(Object, len(o))
	for k, v := range o {
		out[k] = Clone(v)
	}
	return out
}

// Clone returns a deep copy of v.
func Clone(v Value) Value {
	switch val := v.(type) {
	case Object:
		return val.Clone()
	case Array:
		out := make(Array, len(val))
		for i, elem := range val {
			out[i] = Clone(elem)
		}
		return out
	default:
		return v
	}
}

// Lookup resolves a dotted path ("address.city") against the document.
func (o Object) Lookup(path string) (Value, bool) {
	var cur Value = o
	for part := range strings.SplitSeq(path, ".") {
		obj, ok := cur.(Object)
		if !ok {
			return nil, false
		}
		cur, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Set assigns v at a dotted path, creating intermediate objects as needed.
// An intermediate node that is not an object is replaced.
func (o Object) Set(path string, v Value) {
	parts := strings.Split(path, ".")
	cur := o
	for _, part := range parts[:len(parts)-1] {
		next, ok := cur[part].(Object)
		if !ok {
			next = Object{}
			cur[part] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = v
}

// Delete removes the node at a dotted path. Missing paths are ignored.
func (o Object) Delete(path string) {
	parts := strings.Split(path, ".")
	cur := o
	for _, part := range parts[:len(parts)-1] {
		next, ok := cur[part].(Object)
		if !ok {
			return
		}
		cur = next
	}
	delete(cur, parts[len(parts)-1])
}

// SortedKeys returns the field names in RFC 8785 order, which compares
// UTF-16 code units rather than bytes.
func (o Object) SortedKeys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, CompareKeys)
	return keys
}

// CompareKeys orders two field names by UTF-16 code units.
func CompareKeys(a, b string) int {
	return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
}

// Equal reports whether a and b are the same document tree.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case nil, Null:
		return Kind(b) == "null"
	case Object:
		y, ok := b.(Object)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, xv := range x {
			yv, ok := y[k]
			if !ok || !Equal(xv, yv) {
				return false
			}
		}
		return true
	case Array:
		y, ok := b.(Array)
		return ok && slices.EqualFunc(x, y, Equal)
	default:
		return a == b
	}
}
