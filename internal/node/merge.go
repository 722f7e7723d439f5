package node

// Merge layers source over target and returns a new mapping. Keys present in
// both as mappings are merged recursively; any other source value replaces the
// target value outright. Keys only in target are kept. Neither input is
// modified.
func Merge(target, source *Mapping) *Mapping {
	result := target.Clone()
	if source == nil {
		return result
	}

	for _, key := range source.keys {
		value := source.values[key]
		if sourceMap, ok := value.(*Mapping); ok {
			if targetMap, ok := result.values[key].(*Mapping); ok {
				result.Set(key, Merge(targetMap, sourceMap))
				continue
			}
		}
		result.Set(key, value)
	}

	return result
}

// Equal reports whether a and b are deeply equal. Mapping key order is not
// significant.
func Equal(a, b Node) bool {
	switch x := a.(type) {
	case *Mapping:
		y, ok := b.(*Mapping)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for _, key := range x.Keys() {
			xv, _ := x.Get(key)
			yv, ok := y.Get(key)
			if !ok || !Equal(xv, yv) {
				return false
			}
		}
		return true
	case Sequence:
		y, ok := b.(Sequence)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case Scalar:
		y, ok := b.(Scalar)
		return ok && x.Value == y.Value
	default:
		return a == nil && b == nil
	}
}
