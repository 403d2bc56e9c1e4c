package relay

import (
	"context"
	"strings"
	"time"
)

const (
	// DefaultChunkSize matches the read size used when pulling from extractors.
	DefaultChunkSize = 131072
	// DefaultExitTimeout bounds how long shutdown waits for the sink to exit.
	DefaultExitTimeout = 5 * time.Second
	// ExitCodeUnknown is reported when the sink was not observed to exit.
	ExitCodeUnknown = -1

	// FormatFLV is the only container the sink produces.
	FormatFLV = "flv"
	// CodecCopy disables re-encoding for both audio and video.
	CodecCopy = "copy"
)

// Chunk is an opaque slice of media bytes. Producers hand ownership to the
// caller and must not reuse the backing array.
type Chunk []byte

// SourceDescriptor identifies the live source to pull from.
type SourceDescriptor struct {
	URL     string
	Quality string
}

// SinkDescriptor identifies where the remuxed stream is pushed.
type SinkDescriptor struct {
	Destination string
	Format      string
	Codec       string
}

// NewSinkDescriptor builds a descriptor with the fixed FLV/stream-copy policy.
func NewSinkDescriptor(destination string) SinkDescriptor {
	return SinkDescriptor{
		Destination: strings.TrimSpace(destination),
		Format:      FormatFLV,
		Codec:       CodecCopy,
	}
}

// Reason explains why a pipeline run ended.
type Reason int

const (
	NormalCompletion Reason = iota
	UserInterrupt
	BrokenPipe
	SinkProcessFailure
	SourceFailure
)

func (r Reason) String() string {
	switch r {
	case NormalCompletion:
		return "normal-completion"
	case UserInterrupt:
		return "user-interrupt"
	case BrokenPipe:
		return "broken-pipe"
	case SinkProcessFailure:
		return "sink-process-failure"
	case SourceFailure:
		return "source-failure"
	default:
		return "unknown"
	}
}

// ParseReason maps the String form back to a Reason.
func ParseReason(value string) (Reason, bool) {
	for _, r := range []Reason{NormalCompletion, UserInterrupt, BrokenPipe, SinkProcessFailure, SourceFailure} {
		if r.String() == strings.ToLower(strings.TrimSpace(value)) {
			return r, true
		}
	}
	return 0, false
}

// Clean reports whether the reason counts as a successful run. A sink that
// closes its input is an expected way for a relay to end.
func (r Reason) Clean() bool {
	return r == NormalCompletion || r == BrokenPipe
}

// Outcome is produced once per run, after cleanup.
type Outcome struct {
	Reason   Reason
	ExitCode int
	Chunks   int64
	Bytes    int64
	Digest   string
	// SourceErr holds the terminal source error for SourceFailure runs.
	SourceErr error
	// WriteErr holds the failed write for BrokenPipe and SinkProcessFailure runs.
	WriteErr error
}

// Source opens a lazy chunk stream for a descriptor.
type Source interface {
	Open(ctx context.Context, desc SourceDescriptor) (Stream, error)
}

// Stream yields chunks in production order. Next returns io.EOF when the
// source ends normally; any other error is terminal.
type Stream interface {
	Next(ctx context.Context) (Chunk, error)
	Close() error
}

// Sink is a started remux process accepting bytes on its input.
type Sink interface {
	Write(ctx context.Context, chunk Chunk) error
	CloseInput() error
	AwaitExit(timeout time.Duration) (int, error)
}
