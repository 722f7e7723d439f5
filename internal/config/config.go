package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/eugenenazirov/envcascade/internal/env"
	"github.com/eugenenazirov/envcascade/internal/loader"
	"github.com/eugenenazirov/envcascade/internal/node"
)

const (
	defaultPort           = "8080"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
	defaultLogLevel       = "info"
)

// Config aggregates runtime configuration of the inspection service.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	Port                 string
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int
	LogLevel             string

	// Source selects the configuration cascade the service resolves and serves.
	Source loader.Options
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	LogLevel string     `yaml:"log_level"`
	Server   yamlServer `yaml:"server"`
	Source   yamlSource `yaml:"source"`
}

type yamlServer struct {
	Port                 string        `yaml:"port"`
	ShutdownGracePeriod  string        `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string        `yaml:"read_header_timeout"`
	WriteTimeout         string        `yaml:"write_timeout"`
	IdleTimeout          string        `yaml:"idle_timeout"`
	EnableRequestLogging *bool         `yaml:"enable_request_logging"`
	RateLimit            yamlRateLimit `yaml:"rate_limit"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

type yamlSource struct {
	File         string `yaml:"file"`
	Environment  string `yaml:"environment"`
	IncludeLocal *bool  `yaml:"include_local"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	// ConfigFile is the base path of the service's own settings cascade.
	ConfigFile     string
	Environment    string
	Port           *string
	RateLimitRPS   *float64
	RateLimitBurst *int
	LogLevel       *string
	SourceFile     *string
	SourceEnv      *string
	ExcludeLocal   *bool
}

// Sources injects the collaborators used by LoadFrom.
type Sources struct {
	// Loader reads the settings cascade. Defaults to loader.New().
	Loader *loader.Loader
	// Lookup supplies environment variables. Defaults to the process environment.
	Lookup env.Lookup
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	return LoadFrom(Sources{}, overrides)
}

// LoadFrom is Load with explicit collaborators.
func LoadFrom(src Sources, overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()
	lookup := env.OrOS(src.Lookup)

	// Apply environment variables first so the YAML cascade can override them
	if err := applyEnvConfig(&cfg, lookup); err != nil {
		return Config{}, err
	}

	// Load the YAML settings cascade if a base path was given
	if overrides != nil && overrides.ConfigFile != "" {
		l := src.Loader
		if l == nil {
			l = loader.New(loader.WithLookup(lookup))
		}
		yamlCfg, err := loadFromCascade(l, overrides.ConfigFile, overrides.Environment)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, err
		}
	}

	// Apply CLI overrides (highest precedence)
	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	// Validate final configuration
	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
		LogLevel:             defaultLogLevel,
	}
}

// loadFromCascade resolves the settings cascade rooted at basePath and
// decodes it.
func loadFromCascade(l *loader.Loader, basePath, environment string) (*yamlConfig, error) {
	tree, err := l.Load(loader.Options{FilePath: basePath, Environment: environment})
	if err != nil {
		return nil, err
	}

	var yamlCfg yamlConfig
	if err := node.Decode(tree, &yamlCfg); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}

	server := yamlCfg.Server
	if server.Port != "" {
		cfg.Port = server.Port
	}

	durations := []struct {
		name  string
		raw   string
		field *time.Duration
	}{
		{"shutdown_grace_period", server.ShutdownGracePeriod, &cfg.ShutdownGracePeriod},
		{"read_header_timeout", server.ReadHeaderTimeout, &cfg.ReadHeaderTimeout},
		{"write_timeout", server.WriteTimeout, &cfg.WriteTimeout},
		{"idle_timeout", server.IdleTimeout, &cfg.IdleTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		value, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("parse %s: %w", d.name, err)
		}
		*d.field = value
	}

	if server.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *server.EnableRequestLogging
	}

	if server.RateLimit.RPS != nil {
		cfg.RateLimitRPS = *server.RateLimit.RPS
	}

	if server.RateLimit.Burst != nil {
		cfg.RateLimitBurst = *server.RateLimit.Burst
	}

	if yamlCfg.Source.File != "" {
		cfg.Source.FilePath = yamlCfg.Source.File
	}
	if yamlCfg.Source.Environment != "" {
		cfg.Source.Environment = yamlCfg.Source.Environment
	}
	if yamlCfg.Source.IncludeLocal != nil {
		cfg.Source.ExcludeLocal = !*yamlCfg.Source.IncludeLocal
	}

	return nil
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config, lookup env.Lookup) error {
	get := func(name string) string {
		value, _ := lookup(name)
		return strings.TrimSpace(value)
	}

	if port := get("PORT"); port != "" {
		cfg.Port = port
	}

	if rps := get("RATE_LIMIT_RPS"); rps != "" {
		value, err := strconv.ParseFloat(rps, 64)
		if err != nil {
			return fmt.Errorf("parse RATE_LIMIT_RPS: %w", err)
		}
		cfg.RateLimitRPS = value
	}

	if burst := get("RATE_LIMIT_BURST"); burst != "" {
		value, err := strconv.Atoi(burst)
		if err != nil {
			return fmt.Errorf("parse RATE_LIMIT_BURST: %w", err)
		}
		cfg.RateLimitBurst = value
	}

	if level := get("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	return nil
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}

	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}

	if overrides.SourceFile != nil && *overrides.SourceFile != "" {
		cfg.Source.FilePath = *overrides.SourceFile
	}

	if overrides.SourceEnv != nil && *overrides.SourceEnv != "" {
		cfg.Source.Environment = *overrides.SourceEnv
	}

	if overrides.ExcludeLocal != nil {
		cfg.Source.ExcludeLocal = *overrides.ExcludeLocal
	}
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	if cfg.ShutdownGracePeriod <= 0 {
		return fmt.Errorf("shutdown grace period must be positive")
	}
	return nil
}
