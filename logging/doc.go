// Package logging provides a minimal logging interface and adapters for Toolmesh.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the registry and executor use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - ToolmeshLogger with contextual helpers and tool-execution log methods
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	exec := executor.New(func(o *executor.Options) { o.Logger = logger })
//
// The design intentionally keeps the interface minimal to avoid vendor lock-in
// while supporting structured logging where available.
package logging
