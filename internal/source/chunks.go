package source

import (
	"io"

	"restream/internal/relay"
)

// chunkReader hands out whatever the reader has available, up to size
// bytes per chunk. A short final chunk is delivered before the terminal
// error, which is then returned on every later call.
type chunkReader struct {
	r         io.Reader
	size      int
	delivered int64
	pending   error
}

func newChunkReader(r io.Reader, size int) *chunkReader {
	if size <= 0 {
		size = relay.DefaultChunkSize
	}
	return &chunkReader{r: r, size: size}
}

// next blocks until at least one byte or an error is available. Bytes that
// arrived are returned at once; a live source never waits for a full buffer.
func (c *chunkReader) next() (relay.Chunk, error) {
	if c.pending != nil {
		return nil, c.pending
	}
	buf := make([]byte, c.size)
	for {
		n, err := c.r.Read(buf)
		if n > 0 {
			c.delivered += int64(n)
			c.pending = err
			return relay.Chunk(buf[:n:n]), nil
		}
		if err != nil {
			c.pending = err
			return nil, err
		}
	}
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	max int
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	return string(t.buf)
}
