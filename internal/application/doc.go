// Package application provides application initialization and dependency wiring.
// It performs the initial cascade load into storage and creates the handlers,
// routers and HTTP server instances, keeping the main package focused on CLI
// parsing and orchestration.
package application
