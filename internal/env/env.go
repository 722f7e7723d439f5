// Package env abstracts read-only access to process environment variables so
// that resolution logic can be exercised without mutating the real process
// environment.
package env

import "os"

// Lookup returns the value of the named variable and whether it is set.
type Lookup func(name string) (string, bool)

// OS looks variables up in the process environment.
var OS Lookup = os.LookupEnv

// Map returns a Lookup backed by a fixed set of variables.
func Map(vars map[string]string) Lookup {
	snapshot := make(map[string]string, len(vars))
	for k, v := range vars {
		snapshot[k] = v
	}
	return func(name string) (string, bool) {
		value, ok := snapshot[name]
		return value, ok
	}
}

// OrOS returns lookup, falling back to the process environment when nil.
func OrOS(lookup Lookup) Lookup {
	if lookup == nil {
		return OS
	}
	return lookup
}
