package docstore

import (
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/fakedb/internal/fakedb"
	"github.com/roach88/fakedb/internal/value"
)

// CompileMatcher compiles a CUE constraint into a document matcher.
//
// A document matches when unifying it with the constraint yields a concrete
// value without conflicts. Constraints are open structs, so documents may
// carry fields the constraint does not mention:
//
//	{id: <506}
//	{name: =~"^P", active: true}
//	{id: 1 | 2 | 3}
//
// An empty source matches every document.
func CompileMatcher(src string) (fakedb.Matcher[value.Object], error) {
	if strings.TrimSpace(src) == "" {
		return nil, nil
	}

	ctx := cuecontext.New()
	constraint := ctx.CompileString(src)
	if err := constraint.Err(); err != nil {
		return nil, fmt.Errorf("compile matcher %q: %w", src, err)
	}
	if constraint.IncompleteKind() != cue.StructKind {
		return nil, fmt.Errorf("compile matcher %q: constraint must be a struct", src)
	}

	// A cue.Context is not safe for concurrent use.
	var mu sync.Mutex
	return func(doc value.Object) bool {
		mu.Lock()
		defer mu.Unlock()

		unified := constraint.Unify(ctx.Encode(value.ToNative(doc)))
		return unified.Validate(cue.Concrete(true)) == nil
	}, nil
}
