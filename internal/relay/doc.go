// Package relay moves live media bytes from a chunk source into a remux sink.
//
// It defines the data model shared by the source and sink adapters (chunks,
// descriptors, termination reasons), the error markers used to classify
// failures, and the Pipeline that pulls one chunk at a time and writes it to
// the sink. The pipeline never buffers more than the chunk in flight, so a
// slow sink blocks the loop and the source stops being read.
//
// Every run ends with the same cleanup sequence regardless of how the loop
// stopped: the source is closed, the sink's input is closed exactly once, and
// the sink process is awaited with a bounded timeout. The result is a single
// Outcome describing why the run ended and how the sink exited.
package relay
