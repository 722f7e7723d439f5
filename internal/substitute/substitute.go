// Package substitute expands ${NAME} and ${NAME:default} references in raw
// configuration text before it is parsed.
package substitute

import (
	"regexp"
	"slices"
	"strings"

	"github.com/eugenenazirov/envcascade/internal/env"
)

var placeholderPattern = regexp.MustCompile(`\$\{([A-Za-z0-9_]+)(?::([^}]*))?\}`)

// Substitutor replaces placeholders with values from an env.Lookup.
type Substitutor struct {
	lookup env.Lookup
}

// New creates a Substitutor. A nil lookup reads the process environment.
func New(lookup env.Lookup) *Substitutor {
	return &Substitutor{lookup: env.OrOS(lookup)}
}

// Substitute performs a single left-to-right pass over text. A set variable
// wins (even when empty), then the default if one was written, otherwise the
// placeholder is left as is. Substituted values are not rescanned.
func (s *Substitutor) Substitute(text string) string {
	out, _ := s.SubstituteReport(text)
	return out
}

// SubstituteReport is Substitute that also returns the names of placeholders
// left in place, in order of appearance and without duplicates. Placeholder
// text arriving through a variable value is not reported.
func (s *Substitutor) SubstituteReport(text string) (string, []string) {
	matches := placeholderPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text, nil
	}

	var (
		b          strings.Builder
		unresolved []string
	)
	b.Grow(len(text))

	last := 0
	for _, m := range matches {
		b.WriteString(text[last:m[0]])
		last = m[1]

		name := text[m[2]:m[3]]
		if value, ok := s.lookup(name); ok {
			b.WriteString(value)
			continue
		}
		if m[4] != -1 {
			b.WriteString(text[m[4]:m[5]])
			continue
		}
		b.WriteString(text[m[0]:m[1]])
		if !slices.Contains(unresolved, name) {
			unresolved = append(unresolved, name)
		}
	}
	b.WriteString(text[last:])

	return b.String(), unresolved
}
