package node

import (
	"bytes"
	"encoding/json"
	"math"
)

// ToValue converts n into plain Go values: map[string]any, []any and scalars.
func ToValue(n Node) any {
	switch x := n.(type) {
	case *Mapping:
		out := make(map[string]any, x.Len())
		for _, key := range x.Keys() {
			value, _ := x.Get(key)
			out[key] = ToValue(value)
		}
		return out
	case Sequence:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = ToValue(item)
		}
		return out
	case Scalar:
		return x.Value
	default:
		return nil
	}
}

// MarshalJSON writes keys in insertion order.
func (m *Mapping) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')

		v, err := json.Marshal(m.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON encodes a nil sequence as an empty array.
func (s Sequence) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Node(s))
}

// MarshalJSON encodes the scalar value. JSON has no infinities or NaN, so
// those become null.
func (s Scalar) MarshalJSON() ([]byte, error) {
	if f, ok := s.Value.(float64); ok && (math.IsInf(f, 0) || math.IsNaN(f)) {
		return []byte("null"), nil
	}
	return json.Marshal(s.Value)
}
