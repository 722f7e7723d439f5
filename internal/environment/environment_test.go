package environment

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/eugenenazirov/envcascade/internal/env"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		vars map[string]string
		want string
	}{
		{name: "AppEnvAlias", vars: map[string]string{"APP_ENV": "PROD"}, want: Production},
		{name: "AppEnvLowercaseAlias", vars: map[string]string{"APP_ENV": "dev"}, want: Development},
		{name: "AppEnvTestAlias", vars: map[string]string{"APP_ENV": "Tst"}, want: Test},
		{name: "UnknownPassthrough", vars: map[string]string{"APP_ENV": "staging"}, want: "staging"},
		{name: "UnknownKeepsCase", vars: map[string]string{"APP_ENV": "QA-Eu"}, want: "QA-Eu"},
		{name: "NodeEnvFallback", vars: map[string]string{"NODE_ENV": "development"}, want: Development},
		{name: "AppEnvWins", vars: map[string]string{"APP_ENV": "test", "NODE_ENV": "production"}, want: Test},
		{name: "EmptyAppEnvFallsThrough", vars: map[string]string{"APP_ENV": "", "NODE_ENV": "tst"}, want: Test},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := NewResolver(env.Map(tc.vars), nil).Resolve()
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestResolveDefaultsToProductionWithWarning(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	resolver := NewResolver(env.Map(nil), zap.New(core))

	if got := resolver.Resolve(); got != Production {
		t.Fatalf("expected %q, got %q", Production, got)
	}

	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	if len(warnings) != 1 {
		t.Fatalf("expected one warning, got %d", len(warnings))
	}
}

func TestResolveDoesNotWarnWhenEnvironmentFound(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	NewResolver(env.Map(map[string]string{"NODE_ENV": "prod"}), zap.New(core)).Resolve()

	if logs.Len() != 0 {
		t.Fatalf("expected no diagnostics, got %d", logs.Len())
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"DEVELOPMENT": Development,
		"production":  Production,
		"Test":        Test,
		"canary":      "canary",
		"":            "",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}
