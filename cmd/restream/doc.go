// Package main hosts the restream CLI entrypoint and command graph.
//
// The root command relays a live source to an RTMP ingest endpoint. The
// remaining commands inspect the host (check), list recorded runs (history),
// and scaffold configuration (config). Configuration resolution and logger
// setup live in commandContext so subcommands only deal with presentation.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
