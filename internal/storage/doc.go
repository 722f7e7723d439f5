// Package storage holds the configuration snapshot served by the inspection
// API.
package storage
