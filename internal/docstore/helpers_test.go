package docstore

import (
	"slices"

	"github.com/roach88/fakedb/internal/fakedb"
	"github.com/roach88/fakedb/internal/value"
)

func keys(m map[string]value.Object) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func sortDocs(docs []value.Object, order fakedb.Order[value.Object]) []value.Object {
	out := slices.Clone(docs)
	slices.SortStableFunc(out, order)
	return out
}

func ranks(docs []value.Object) []int64 {
	out := make([]int64, len(docs))
	for i, doc := range docs {
		out[i] = int64(doc["rank"].(value.Int))
	}
	return out
}
