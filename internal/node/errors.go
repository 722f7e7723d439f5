package node

import "errors"

var (
	// ErrUnsupportedKey indicates a mapping key that is not a scalar.
	ErrUnsupportedKey = errors.New("mapping keys must be scalars")
	// ErrDuplicateKey indicates a key repeated within one mapping.
	ErrDuplicateKey = errors.New("duplicate mapping key")
	// ErrAliasCycle indicates an alias that refers to one of its own ancestors.
	ErrAliasCycle = errors.New("alias refers to itself")
	// ErrUnknownAlias indicates an alias without a resolved anchor.
	ErrUnknownAlias = errors.New("unknown alias")
	// ErrMultipleDocuments indicates input holding more than one YAML document.
	ErrMultipleDocuments = errors.New("multiple YAML documents")
)
