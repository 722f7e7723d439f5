// Package node models parsed configuration documents as a tree of mappings,
// sequences and scalars, and implements the deep merge used to layer them.
//
// Nodes are treated as immutable once built: Merge and Clone share unchanged
// subtrees with their inputs.
package node

import (
	"strconv"
	"strings"
)

// Kind identifies the variant of a Node.
type Kind int

const (
	KindScalar Kind = iota + 1
	KindSequence
	KindMapping
)

// String returns the lowercase variant name.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "unknown"
	}
}

// Node is one of *Mapping, Sequence or Scalar.
type Node interface {
	Kind() Kind
	isNode()
}

// Scalar holds a string, int64, uint64, float64, bool or nil.
type Scalar struct {
	Value any
}

// Kind implements Node.
func (Scalar) Kind() Kind { return KindScalar }
func (Scalar) isNode()    {}

// IsNull reports whether the scalar is an explicit null.
func (s Scalar) IsNull() bool { return s.Value == nil }

// Sequence is an ordered list of nodes.
type Sequence []Node

// Kind implements Node.
func (Sequence) Kind() Kind { return KindSequence }
func (Sequence) isNode()    {}

// Mapping is a string-keyed node map that remembers insertion order.
type Mapping struct {
	keys   []string
	values map[string]Node
}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{values: make(map[string]Node)}
}

// Kind implements Node.
func (*Mapping) Kind() Kind { return KindMapping }
func (*Mapping) isNode()    {}

// Len returns the number of keys.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Get returns the value stored under key.
func (m *Mapping) Get(key string) (Node, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Set stores value under key. Existing keys keep their position; new keys are
// appended. It is meant for building fresh mappings.
func (m *Mapping) Set(key string, value Node) {
	if m.values == nil {
		m.values = make(map[string]Node)
	}
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Clone returns a shallow copy of m. A nil mapping clones to an empty one.
func (m *Mapping) Clone() *Mapping {
	out := &Mapping{values: make(map[string]Node, m.Len())}
	if m == nil {
		return out
	}
	out.keys = make([]string, len(m.keys))
	copy(out.keys, m.keys)
	for k, v := range m.values {
		out.values[k] = v
	}
	return out
}

// Lookup walks path from m. Mapping segments are keys; sequence segments are
// zero-based indexes.
func (m *Mapping) Lookup(path ...string) (Node, bool) {
	var current Node = m
	for _, segment := range path {
		switch n := current.(type) {
		case *Mapping:
			next, ok := n.Get(segment)
			if !ok {
				return nil, false
			}
			current = next
		case Sequence:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(n) {
				return nil, false
			}
			current = n[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// SplitPath splits a dotted or slash-separated key path, dropping empty
// segments.
func SplitPath(path string) []string {
	return strings.FieldsFunc(path, func(r rune) bool {
		return r == '.' || r == '/'
	})
}
