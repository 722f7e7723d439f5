package node

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Parse decodes a single YAML document. Empty input yields a null scalar and
// a second document is an error.
func Parse(data []byte) (Node, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))

	var doc yaml.Node
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return Scalar{}, nil
		}
		return nil, err
	}

	var next yaml.Node
	if err := dec.Decode(&next); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: line %d", ErrMultipleDocuments, next.Line)
	}

	if doc.Kind == 0 {
		return Scalar{}, nil
	}
	return FromYAML(&doc)
}

// FromYAML converts a yaml.v3 node tree. Aliases are expanded in place.
func FromYAML(n *yaml.Node) (Node, error) {
	c := converter{active: make(map[*yaml.Node]bool)}
	return c.convert(n)
}

type converter struct {
	active map[*yaml.Node]bool
}

func (c *converter) convert(n *yaml.Node) (Node, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Scalar{}, nil
		}
		return c.convert(n.Content[0])
	case yaml.MappingNode:
		return c.mapping(n)
	case yaml.SequenceNode:
		seq := make(Sequence, 0, len(n.Content))
		for _, item := range n.Content {
			v, err := c.convert(item)
			if err != nil {
				return nil, err
			}
			seq = append(seq, v)
		}
		return seq, nil
	case yaml.ScalarNode:
		return scalarFromYAML(n)
	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, ErrUnknownAlias)
		}
		if c.active[n.Alias] {
			return nil, fmt.Errorf("line %d: %w", n.Line, ErrAliasCycle)
		}
		c.active[n.Alias] = true
		defer delete(c.active, n.Alias)
		return c.convert(n.Alias)
	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node kind %d", n.Line, n.Kind)
	}
}

func (c *converter) mapping(n *yaml.Node) (*Mapping, error) {
	m := &Mapping{values: make(map[string]Node, len(n.Content)/2)}
	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode := n.Content[i]
		if keyNode.Kind == yaml.AliasNode && keyNode.Alias != nil {
			keyNode = keyNode.Alias
		}
		if keyNode.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: %w", keyNode.Line, ErrUnsupportedKey)
		}
		key := keyNode.Value
		if _, exists := m.values[key]; exists {
			return nil, fmt.Errorf("line %d: %w %q", keyNode.Line, ErrDuplicateKey, key)
		}

		value, err := c.convert(n.Content[i+1])
		if err != nil {
			return nil, err
		}
		m.Set(key, value)
	}
	return m, nil
}

func scalarFromYAML(n *yaml.Node) (Scalar, error) {
	var v any
	if err := n.Decode(&v); err != nil {
		return Scalar{}, fmt.Errorf("line %d: %w", n.Line, err)
	}
	switch x := v.(type) {
	case int:
		return Scalar{Value: int64(x)}, nil
	case nil, string, bool, int64, uint64, float64:
		return Scalar{Value: x}, nil
	default:
		// Tags yaml.v3 resolves to other types (timestamps, binary) keep their source text.
		return Scalar{Value: n.Value}, nil
	}
}

// ToYAML converts a node tree back into a yaml.v3 node, preserving mapping
// key order.
func ToYAML(n Node) *yaml.Node {
	switch x := n.(type) {
	case *Mapping:
		out := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, key := range x.Keys() {
			value, _ := x.Get(key)
			out.Content = append(out.Content, scalarToYAML(key), ToYAML(value))
		}
		return out
	case Sequence:
		out := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range x {
			out.Content = append(out.Content, ToYAML(item))
		}
		return out
	case Scalar:
		return scalarToYAML(x.Value)
	default:
		return scalarToYAML(nil)
	}
}

func scalarToYAML(v any) *yaml.Node {
	if v == nil {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
	var out yaml.Node
	if err := out.Encode(v); err != nil {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: fmt.Sprint(v)}
	}
	return &out
}

// MarshalYAML implements yaml.Marshaler.
func (m *Mapping) MarshalYAML() (any, error) { return ToYAML(m), nil }

// MarshalYAML implements yaml.Marshaler.
func (s Sequence) MarshalYAML() (any, error) { return ToYAML(s), nil }

// MarshalYAML implements yaml.Marshaler.
func (s Scalar) MarshalYAML() (any, error) { return ToYAML(s), nil }

// Decode unmarshals n into out using yaml.v3 struct tags.
func Decode(n Node, out any) error {
	return ToYAML(n).Decode(out)
}
