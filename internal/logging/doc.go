// Package logging builds the zap loggers used by the service and the CLI.
package logging
