package relay

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Meter tallies the bytes handed to the sink and keeps a running BLAKE3
// digest of the delivered stream.
type Meter struct {
	chunks int64
	bytes  int64
	hasher *blake3.Hasher
}

// NewMeter returns an empty meter.
func NewMeter() *Meter {
	return &Meter{hasher: blake3.New()}
}

// Observe records a chunk that was fully written.
func (m *Meter) Observe(chunk Chunk) {
	if m == nil {
		return
	}
	m.chunks++
	m.bytes += int64(len(chunk))
	_, _ = m.hasher.Write(chunk)
}

// Chunks returns the number of chunks observed.
func (m *Meter) Chunks() int64 {
	if m == nil {
		return 0
	}
	return m.chunks
}

// Bytes returns the number of bytes observed.
func (m *Meter) Bytes() int64 {
	if m == nil {
		return 0
	}
	return m.bytes
}

// Digest returns the hex BLAKE3 digest of everything observed so far.
func (m *Meter) Digest() string {
	if m == nil {
		return ""
	}
	return hex.EncodeToString(m.hasher.Sum(nil))
}
