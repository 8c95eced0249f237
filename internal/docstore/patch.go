package docstore

import (
	"fmt"
	"slices"

	"github.com/roach88/fakedb/internal/fakedb"
	"github.com/roach88/fakedb/internal/value"
)

// Patch describes an UpdateMany mutation over documents.
// Unset is applied before Set, so a path named in both ends up set.
type Patch struct {
	Set   map[string]value.Value
	Unset []string
}

// Updater returns the fakedb updater applying p. Set values are cloned
// into each document so patched documents never share nodes.
func (p Patch) Updater() fakedb.Updater[value.Object] {
	if len(p.Set) == 0 && len(p.Unset) == 0 {
		return nil
	}

	paths := make([]string, 0, len(p.Set))
	for path := range p.Set {
		paths = append(paths, path)
	}
	slices.Sort(paths)

	return func(doc *value.Object) {
		if *doc == nil {
			*doc = value.Object{}
		}
		for _, path := range p.Unset {
			doc.Delete(path)
		}
		for _, path := range paths {
			doc.Set(path, value.Clone(p.Set[path]))
		}
	}
}

// Apply returns a patched copy of doc.
func (p Patch) Apply(doc value.Object) value.Object {
	out := doc.Clone()
	p.Updater().Apply(&out)
	return out
}

// ParsePatch converts decoded set/unset sections into a Patch.
func ParsePatch(set map[string]any, unset []string) (Patch, error) {
	p := Patch{Unset: unset}
	if len(set) > 0 {
		p.Set = make(map[string]value.Value, len(set))
	}
	for path, raw := range set {
		v, err := value.FromNative(raw)
		if err != nil {
			return Patch{}, fmt.Errorf("set %q: %w", path, err)
		}
		p.Set[path] = v
	}
	return p, nil
}
