// Package preflight provides readiness checks for the paths and endpoints a
// relay depends on.
//
// These checks run in two contexts:
//   - The relay controller calls CheckDestination before spawning ffmpeg so
//     a malformed ingest URL fails fast with a clear message.
//   - The CLI "restream check" command runs RunAll next to the dependency
//     table to display overall readiness.
//
// Each check is gated by its config toggle; disabled features are skipped.
package preflight
