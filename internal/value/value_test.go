package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortedKeys_UTF16Order(t *testing.T) {
	// U+FF61 sorts before U+1F600 in UTF-8 but after it in UTF-16,
	// where the emoji starts with the surrogate 0xD83D.
	obj := Object{
		"\U0001F600": Int(1),
		"\uFF61":     Int(2),
		"b":          Int(3),
		"a":          Int(4),
	}
	assert.Equal(t, []string{"a", "b", "\U0001F600", "\uFF61"}, obj.SortedKeys())
}

func TestClone_IsDeep(t *testing.T) {
	original := Object{
		"name": String("Germany"),
		"tags": Array{String("eu")},
		"meta": Object{"pop": Int(83)},
	}
	copied := original.Clone()

	copied["name"] = String("Deutschland")
	copied["tags"].(Array)[0] = String("changed")
	copied["meta"].(Object)["pop"] = Int(0)

	assert.Equal(t, String("Germany"), original["name"])
	assert.Equal(t, String("eu"), original["tags"].(Array)[0])
	assert.Equal(t, Int(83), original["meta"].(Object)["pop"])
}

func TestLookupSetDelete(t *testing.T) {
	doc := Object{"address": Object{"city": String("Lima")}}

	v, ok := doc.Lookup("address.city")
	require.True(t, ok)
	assert.Equal(t, String("Lima"), v)

	_, ok = doc.Lookup("address.zip")
	assert.False(t, ok)
	_, ok = doc.Lookup("address.city.name")
	assert.False(t, ok)

	doc.Set("address.zip", Int(15001))
	doc.Set("geo.lat", Int(-12))
	assert.Equal(t, Int(15001), doc["address"].(Object)["zip"])
	assert.Equal(t, Int(-12), doc["geo"].(Object)["lat"])

	doc.Delete("address.city")
	doc.Delete("nowhere.at.all")
	assert.Equal(t, Object{"zip": Int(15001)}, doc["address"])
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"same object", Object{"a": Int(1)}, Object{"a": Int(1)}, true},
		{"different field", Object{"a": Int(1)}, Object{"a": Int(2)}, false},
		{"extra field", Object{"a": Int(1)}, Object{"a": Int(1), "b": Null{}}, false},
		{"nested array", Array{Array{Int(1)}}, Array{Array{Int(1)}}, true},
		{"kind mismatch", String("1"), Int(1), false},
		{"null and nil", Null{}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
		})
	}
}

func TestKind(t *testing.T) {
	assert.Equal(t, "null", Kind(nil))
	assert.Equal(t, "object", Kind(Object{}))
	assert.Equal(t, "array", Kind(Array{}))
	assert.Equal(t, "int", Kind(Int(0)))
}
