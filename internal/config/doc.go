// Package config loads, normalizes, and validates restream configuration data.
//
// It supplies defaults that match the behaviour of the relay when no file is
// present, expands user paths (including tilde shortcuts), reads TOML files,
// and honours environment fallbacks such as RESTREAM_FFMPEG. The Config type
// centralizes the binaries, timeouts, and paths the relay controller and CLI
// need.
//
// The relay pipeline itself never reads configuration; the controller turns
// these values into source, sink, and pipeline options.
package config
