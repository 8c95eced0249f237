package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want string
	}{
		{"null", Null{}, `null`},
		{"negative int", Int(-42), `-42`},
		{"bool", Bool(true), `true`},
		{"sorted keys", Object{"name": String("Peru"), "id": Int(51)}, `{"id":51,"name":"Peru"}`},
		{"nested", Object{"b": Array{Int(1), Object{"y": Null{}, "x": Bool(false)}}}, `{"b":[1,{"x":false,"y":null}]}`},
		{"no html escaping", String("<a & b>"), `"<a & b>"`},
		{"control characters", String("a\nb\u0001"), `"a\nb\u0001"`},
		{"quote and backslash", String(`"\`), `"\"\\"`},
		{"line separator kept literal", String("\u2028"), "\"\u2028\""},
		{"empty containers", Object{"a": Array{}, "o": Object{}}, `{"a":[],"o":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshalCanonical_NFC(t *testing.T) {
	// "é" as e + combining acute accent normalizes to U+00E9.
	decomposed := Object{"name": String("Pe\u0301ru")}
	composed := Object{"name": String("P\u00e9ru")}

	assert.Equal(t, MustCanonical(composed), MustCanonical(decomposed))
}

func TestMarshalCanonical_RejectsInvalidUTF8(t *testing.T) {
	_, err := MarshalCanonical(Object{"k": String("\xff")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `field "k"`)
}

func TestHash_DomainSeparated(t *testing.T) {
	doc := Object{"id": Int(1)}

	a, err := Hash(DomainDocument, doc)
	require.NoError(t, err)
	b, err := Hash("other/v1", doc)
	require.NoError(t, err)
	again, err := Hash(DomainDocument, Object{"id": Int(1)})
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, again)
}
