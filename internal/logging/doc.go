// Package logging builds the slog loggers used across dedupe.
//
// Two output formats are supported: a compact key=value console format
// and line-delimited JSON. Output can fan out to stdout/stderr and a log
// file at the same time. Attr helpers and shared field-name constants
// keep log keys consistent between the engine, the providers, and the
// CLI.
package logging
