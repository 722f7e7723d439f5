// Package environment determines the logical runtime environment name used to
// select environment-specific configuration files.
package environment

import (
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/eugenenazirov/envcascade/internal/env"
)

const (
	Development = "development"
	Test        = "test"
	Production  = "production"
)

const (
	// PrimaryVariable is consulted first.
	PrimaryVariable = "APP_ENV"
	// FallbackVariable is consulted when PrimaryVariable is absent.
	FallbackVariable = "NODE_ENV"
)

var aliases = map[string]string{
	"DEV":         Development,
	"DEVELOPMENT": Development,
	"TST":         Test,
	"TEST":        Test,
	"PROD":        Production,
	"PRODUCTION":  Production,
}

// Resolver discovers the environment from process variables.
type Resolver struct {
	lookup env.Lookup
	logger *zap.Logger
}

// NewResolver creates a Resolver. A nil lookup reads the process environment
// and a nil logger discards diagnostics.
func NewResolver(lookup env.Lookup, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		lookup: env.OrOS(lookup),
		logger: logger,
	}
}

// Resolve returns the normalized value of APP_ENV, then NODE_ENV. Empty values
// count as unset. When neither is present it warns and returns Production.
func (r *Resolver) Resolve() string {
	for _, name := range []string{PrimaryVariable, FallbackVariable} {
		if value, ok := r.lookup(name); ok && value != "" {
			return Normalize(value)
		}
	}

	r.logger.Warn("no environment value found, defaulting to production",
		zap.Strings("variables", []string{PrimaryVariable, FallbackVariable}),
	)
	return Production
}

// Normalize maps known aliases (case-insensitively) to their canonical name.
// Unknown values are returned unchanged.
func Normalize(value string) string {
	if canonical, ok := aliases[cases.Upper(language.Und).String(value)]; ok {
		return canonical
	}
	return value
}
