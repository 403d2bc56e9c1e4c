package history

import (
	"time"

	"restream/internal/relay"
)

// Run is one finished relay.
type Run struct {
	ID           int64
	RunID        string
	SourceURL    string
	Destination  string
	Extractor    string
	Quality      string
	StartedAt    time.Time
	FinishedAt   time.Time
	Reason       relay.Reason
	ExitCode     int
	Chunks       int64
	Bytes        int64
	Digest       string
	ErrorMessage string
}

// Duration returns how long the relay ran.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
