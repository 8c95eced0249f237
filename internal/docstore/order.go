package docstore

import (
	"cmp"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/roach88/fakedb/internal/fakedb"
	"github.com/roach88/fakedb/internal/value"
)

// ParseOrder builds an order from field paths. A leading '-' sorts that
// field descending. Later fields break ties in earlier ones.
//
// Values of different kinds sort null < bool < int < string < array <
// object; a missing field sorts as null. Strings use root-locale collation
// with numeric ordering, so "item2" sorts before "item10".
func ParseOrder(fields []string) (fakedb.Order[value.Object], error) {
	if len(fields) == 0 {
		return nil, nil
	}

	cmpValues := newComparer()
	var order fakedb.Order[value.Object]
	for _, field := range fields {
		path, desc := strings.CutPrefix(field, "-")
		if path == "" {
			return nil, fmt.Errorf("order_by: empty field in %q", fields)
		}

		next := fakedb.Order[value.Object](func(a, b value.Object) int {
			av, _ := a.Lookup(path)
			bv, _ := b.Lookup(path)
			return cmpValues(av, bv)
		})
		if desc {
			next = fakedb.Descending(next)
		}

		if order == nil {
			order = next
		} else {
			order = order.Then(next)
		}
	}
	return order, nil
}

func newComparer() func(a, b value.Value) int {
	var mu sync.Mutex
	collator := collate.New(language.Und, collate.Numeric)

	var compare func(a, b value.Value) int
	compare = func(a, b value.Value) int {
		if c := cmp.Compare(rank(a), rank(b)); c != 0 {
			return c
		}
		switch x := a.(type) {
		case value.Bool:
			return cmp.Compare(boolRank(bool(x)), boolRank(bool(b.(value.Bool))))
		case value.Int:
			return cmp.Compare(x, b.(value.Int))
		case value.String:
			mu.Lock()
			defer mu.Unlock()
			return collator.CompareString(string(x), string(b.(value.String)))
		case value.Array:
			y := b.(value.Array)
			for i := range min(len(x), len(y)) {
				if c := compare(x[i], y[i]); c != 0 {
					return c
				}
			}
			return cmp.Compare(len(x), len(y))
		case value.Object:
			return strings.Compare(value.MustCanonical(x), value.MustCanonical(b))
		default:
			return 0
		}
	}
	return compare
}

func rank(v value.Value) int {
	switch v.(type) {
	case value.Bool:
		return 1
	case value.Int:
		return 2
	case value.String:
		return 3
	case value.Array:
		return 4
	case value.Object:
		return 5
	default:
		return 0
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}
