// Package sink manages the ffmpeg process that remuxes the relayed bytes
// into FLV and pushes them to the ingest endpoint.
//
// The process reads its input from a pipe owned by Process. Write blocks
// while ffmpeg is busy, which is the only backpressure the relay needs.
// Once ffmpeg stops reading, writes fail with relay.ErrBrokenPipe rather
// than a generic error so the relay can shut down quietly.
package sink
