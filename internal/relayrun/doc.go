// Package relayrun wires configuration, the extractor, the ffmpeg sink, and
// the relay pipeline into a single relay run.
//
// Run validates its arguments, takes a per-destination lock so two relays
// never push to the same ingest URL from one host, spawns ffmpeg, and drives
// the pipeline until the source ends, the sink goes away, or the process
// receives SIGINT/SIGTERM. Only startup problems are returned as errors;
// everything after ffmpeg starts is reported through the Outcome.
package relayrun
