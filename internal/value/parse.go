package value

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
)

// ErrFloat is returned when input carries a non-integer number.
var ErrFloat = errors.New("floats are not supported in documents")

// Parse decodes a JSON value. Numbers must be integers within int64.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("parse document: trailing data after value")
	}
	return FromNative(raw)
}

// ParseObject decodes a JSON object.
func ParseObject(data []byte) (Object, error) {
	v, err := Parse(data)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(Object)
	if !ok {
		return nil, fmt.Errorf("parse document: expected object, got %s", Kind(v))
	}
	return obj, nil
}

// FromNative converts the output of encoding/json (with UseNumber) or
// gopkg.in/yaml.v3 into a Value.
func FromNative(raw any) (Value, error) {
	switch v := raw.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return v, nil
	case bool:
		return Bool(v), nil
	case string:
		return String(v), nil
	case int:
		return Int(v), nil
	case int64:
		return Int(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return nil, fmt.Errorf("integer %d overflows int64", v)
		}
		return Int(v), nil
	case float64:
		if v != math.Trunc(v) || math.Abs(v) > 1<<53 {
			return nil, fmt.Errorf("%w: %v", ErrFloat, v)
		}
		return Int(int64(v)), nil
	case json.Number:
		if strings.ContainsAny(string(v), ".eE") {
			return nil, fmt.Errorf("%w: %s", ErrFloat, v)
		}
		n, err := v.Int64()
		if err != nil {
			return nil, fmt.Errorf("integer %s: %w", v, err)
		}
		return Int(n), nil
	case []any:
		arr := make(Array, len(v))
		for i, elem := range v {
			converted, err := FromNative(elem)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			arr[i] = converted
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(v))
		for k, elem := range v {
			converted, err := FromNative(elem)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", k, err)
			}
			obj[k] = converted
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type %T", raw)
	}
}

// ToNative converts v into plain Go values (map[string]any, []any, string,
// int64, bool, nil) for libraries that work on those.
func ToNative(v Value) any {
	switch val := v.(type) {
	case String:
		return string(val)
	case Int:
		return int64(val)
	case Bool:
		return bool(val)
	case Array:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = ToNative(elem)
		}
		return out
	case Object:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = ToNative(elem)
		}
		return out
	default:
		return nil
	}
}
