package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/fakedb/internal/value"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed: %s: expected %s, got %s", e.Type, e.Expected, e.Actual)
}

// EvaluateAssertions checks every assertion against the final state and
// returns a message per failure.
func EvaluateAssertions(state map[string]value.Object, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(state, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func evaluate(state map[string]value.Object, a Assertion) error {
	switch a.Type {
	case AssertFinalState:
		return assertFinalState(state, a)
	case AssertRecord:
		return assertRecord(state, a)
	case AssertAbsent:
		return assertAbsent(state, a)
	case AssertCount:
		return assertCount(state, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertFinalState requires the store to hold exactly the listed documents.
func assertFinalState(state map[string]value.Object, a Assertion) error {
	want, err := toDocs(a.State)
	if err != nil {
		return err
	}
	got := make([]value.Object, 0, len(state))
	for _, doc := range state {
		got = append(got, doc)
	}
	if !sameDocuments(want, got, false) {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: renderDocs(want),
			Actual:   renderDocs(got),
		}
	}
	return nil
}

// assertRecord requires the document under the key to contain the expected
// fields (subset semantics).
func assertRecord(state map[string]value.Object, a Assertion) error {
	key, err := resolveKey(a.ID, a.Key)
	if err != nil {
		return err
	}
	want, err := toDoc(a.Expect)
	if err != nil {
		return err
	}
	doc, ok := state[key]
	if !ok {
		return &AssertionError{
			Type:     AssertRecord,
			Expected: fmt.Sprintf("document under key %s", key),
			Actual:   "no document",
		}
	}
	if path, ok := matchSubset(want, doc); !ok {
		return &AssertionError{
			Type:     AssertRecord,
			Expected: fmt.Sprintf("%s under key %s", value.MustCanonical(want), key),
			Actual:   fmt.Sprintf("%s (first difference at %q)", value.MustCanonical(doc), path),
		}
	}
	return nil
}

func assertAbsent(state map[string]value.Object, a Assertion) error {
	key, err := resolveKey(a.ID, a.Key)
	if err != nil {
		return err
	}
	if doc, ok := state[key]; ok {
		return &AssertionError{
			Type:     AssertAbsent,
			Expected: fmt.Sprintf("no document under key %s", key),
			Actual:   value.MustCanonical(doc),
		}
	}
	return nil
}

func assertCount(state map[string]value.Object, a Assertion) error {
	if len(state) != *a.Count {
		return &AssertionError{
			Type:     AssertCount,
			Expected: fmt.Sprintf("%d documents", *a.Count),
			Actual:   fmt.Sprintf("%d documents", len(state)),
		}
	}
	return nil
}

// matchSubset reports whether every field of want is present in got with
// an equal value. Nested objects match recursively; arrays and scalars must
// be equal. On mismatch it returns the dotted path of the first difference
// in key order.
func matchSubset(want, got value.Object) (string, bool) {
	for _, k := range want.SortedKeys() {
		gv, ok := got[k]
		if !ok {
			return k, false
		}
		if wObj, isObj := want[k].(value.Object); isObj {
			gObj, ok := gv.(value.Object)
			if !ok {
				return k, false
			}
			if path, ok := matchSubset(wObj, gObj); !ok {
				return k + "." + path, false
			}
			continue
		}
		if !value.Equal(want[k], gv) {
			return k, false
		}
	}
	return "", true
}

// sameDocuments compares two document lists exactly, in order or as
// multisets.
func sameDocuments(want, got []value.Object, ordered bool) bool {
	if len(want) != len(got) {
		return false
	}
	w := canonicalAll(want)
	g := canonicalAll(got)
	if !ordered {
		slices.Sort(w)
		slices.Sort(g)
	}
	return slices.Equal(w, g)
}

func canonicalAll(docs []value.Object) []string {
	out := make([]string, len(docs))
	for i, doc := range docs {
		out[i] = value.MustCanonical(doc)
	}
	return out
}

func renderDocs(docs []value.Object) string {
	return "[" + strings.Join(canonicalAll(docs), ",") + "]"
}

func toDoc(raw map[string]any) (value.Object, error) {
	v, err := value.FromNative(raw)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(value.Object)
	if !ok {
		return value.Object{}, nil
	}
	return obj, nil
}

func toDocs(raw []map[string]any) ([]value.Object, error) {
	if raw == nil {
		return nil, nil
	}
	docs := make([]value.Object, len(raw))
	for i, r := range raw {
		doc, err := toDoc(r)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		docs[i] = doc
	}
	return docs, nil
}
