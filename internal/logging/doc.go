// Package logging assembles structured slog loggers and formatting helpers used
// across the uploader.
//
// It owns the console and JSON handlers, routes file output through a rotating
// writer, and exposes context-aware helpers so pipeline code can tag every line
// with the release identity and the invocation that produced it. A no-op logger
// is provided for tests and wiring code that cannot fail.
package logging
