// Package config loads runtime settings of the inspection service from
// multiple sources with precedence: CLI flags > YAML config > Environment
// variables > Defaults. The YAML layer is itself resolved through the
// environment-aware file cascade, so service settings can be split into
// base, per-environment and local files.
package config
