package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParse(t *testing.T) {
	v, err := Parse([]byte(`{"id": 852, "name": "Chile", "tags": ["sa", null], "active": true}`))
	require.NoError(t, err)

	assert.Equal(t, Object{
		"id":     Int(852),
		"name":   String("Chile"),
		"tags":   Array{String("sa"), Null{}},
		"active": Bool(true),
	}, v)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"float", `{"x": 1.5}`},
		{"exponent", `{"x": 1e3}`},
		{"overflow", `{"x": 99999999999999999999}`},
		{"trailing data", `{} {}`},
		{"malformed", `{"x":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.in))
			assert.Error(t, err)
		})
	}
}

func TestParseObject_RequiresObject(t *testing.T) {
	_, err := ParseObject([]byte(`[1]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got array")
}

func TestFromNative_YAML(t *testing.T) {
	var raw any
	require.NoError(t, yaml.Unmarshal([]byte("id: 49\nname: Germany\nborders: [40, 56]\n"), &raw))

	v, err := FromNative(raw)
	require.NoError(t, err)
	assert.Equal(t, Object{
		"id":      Int(49),
		"name":    String("Germany"),
		"borders": Array{Int(40), Int(56)},
	}, v)

	var float any
	require.NoError(t, yaml.Unmarshal([]byte("ratio: 0.5\n"), &float))
	_, err = FromNative(float)
	assert.ErrorIs(t, err, ErrFloat)
}

func TestToNative_RoundTrip(t *testing.T) {
	doc := Object{"a": Array{Int(1), String("x")}, "b": Null{}, "c": Bool(true)}

	native := ToNative(doc)
	assert.Equal(t, map[string]any{
		"a": []any{int64(1), "x"},
		"b": nil,
		"c": true,
	}, native)

	back, err := FromNative(native)
	require.NoError(t, err)
	assert.True(t, Equal(doc, back))
}
