// Package logging assembles structured slog loggers and formatting helpers used
// across restream.
//
// It owns the console and JSON handlers, resolves levels and output paths,
// and exposes attribute helpers and standard field keys so the relay, source,
// and sink components emit diagnostics with the same shape. All output goes to
// the diagnostic stream (stderr by default); stdout is never written.
//
// Prefer these constructors over hand-rolled slog setup so new components
// inherit the run ID and component tagging.
package logging
