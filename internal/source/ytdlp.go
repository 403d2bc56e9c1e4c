package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	"restream/internal/logging"
	"restream/internal/procutil"
	"restream/internal/relay"
)

const (
	stderrTailBytes = 2048
	stopGrace       = 2 * time.Second
)

var heightSelector = regexp.MustCompile(`^(\d+)p$`)

// Option configures a source.
type Option func(*options)

type options struct {
	chunkSize int
	logger    *slog.Logger
	stderr    io.Writer
	args      []string
	timeout   time.Duration
}

// WithChunkSize sets the maximum size of each chunk.
func WithChunkSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.chunkSize = size
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithStderr sets where extractor diagnostics are copied.
func WithStderr(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.stderr = w
		}
	}
}

// WithExtraArgs appends extractor arguments ahead of the URL.
func WithExtraArgs(args ...string) Option {
	return func(o *options) {
		o.args = append(o.args, args...)
	}
}

// WithConnectTimeout bounds dialing and response headers for HTTP sources.
func WithConnectTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		chunkSize: relay.DefaultChunkSize,
		logger:    logging.NewNop(),
		stderr:    os.Stderr,
		timeout:   10 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// YTDLP streams media through the yt-dlp extractor.
type YTDLP struct {
	binary string
	opts   options
}

// NewYTDLP constructs an extractor-backed source.
func NewYTDLP(binary string, opts ...Option) (*YTDLP, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("yt-dlp binary required")
	}
	o := buildOptions(opts)
	o.logger = logging.NewComponentLogger(o.logger, "source")
	return &YTDLP{binary: binary, opts: o}, nil
}

// FormatSelector translates a quality value into a yt-dlp format selector.
// Heights such as "720p" select the best format no taller than that, falling
// back to the best available. Other values are passed through.
func FormatSelector(quality string) string {
	quality = strings.TrimSpace(quality)
	if quality == "" {
		return "best"
	}
	if m := heightSelector.FindStringSubmatch(strings.ToLower(quality)); m != nil {
		return fmt.Sprintf("best[height<=%s]/best", m[1])
	}
	return quality
}

// Args returns the yt-dlp argument list for desc.
func (y *YTDLP) Args(desc relay.SourceDescriptor) []string {
	args := []string{"--quiet", "--no-warnings", "--no-part"}
	args = append(args, y.opts.args...)
	args = append(args, "-f", FormatSelector(desc.Quality), "-o", "-", desc.URL)
	return args
}

// Open starts yt-dlp and returns a stream over its stdout.
func (y *YTDLP) Open(ctx context.Context, desc relay.SourceDescriptor) (relay.Stream, error) {
	if strings.TrimSpace(desc.URL) == "" {
		return nil, relay.Wrap(relay.ErrSourceUnavailable, "open", "source url required", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stdout, pipeWriter, err := os.Pipe()
	if err != nil {
		return nil, relay.Wrap(relay.ErrSourceUnavailable, "open", "create stdout pipe", err)
	}

	tail := &tailBuffer{max: stderrTailBytes}
	cmd := exec.Command(y.binary, y.Args(desc)...)
	cmd.Stdout = pipeWriter
	cmd.Stderr = io.MultiWriter(tail, y.opts.stderr)

	proc, err := procutil.Start(cmd)
	_ = pipeWriter.Close()
	if err != nil {
		_ = stdout.Close()
		return nil, relay.Wrap(relay.ErrSourceUnavailable, "start yt-dlp", y.binary, err)
	}
	y.opts.logger.Debug("yt-dlp started",
		logging.Int("pid", proc.Pid()),
		logging.String("format", FormatSelector(desc.Quality)),
	)

	return &ytdlpStream{
		proc:   proc,
		stdout: stdout,
		reader: newChunkReader(stdout, y.opts.chunkSize),
		tail:   tail,
		logger: y.opts.logger,
	}, nil
}

type ytdlpStream struct {
	proc      *procutil.Process
	stdout    *os.File
	reader    *chunkReader
	tail      *tailBuffer
	logger    *slog.Logger
	err       error
	closeOnce sync.Once
	closeErr  error
}

func (s *ytdlpStream) Next(ctx context.Context) (relay.Chunk, error) {
	if s.err != nil {
		return nil, s.err
	}
	stop := context.AfterFunc(ctx, func() {
		_ = s.stdout.SetReadDeadline(time.Now())
	})
	chunk, err := s.reader.next()
	stop()
	if err == nil {
		return chunk, nil
	}
	s.err = s.classify(ctx, err)
	return nil, s.err
}

func (s *ytdlpStream) classify(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if !errors.Is(err, io.EOF) {
		return s.failure("read stdout", err)
	}

	select {
	case <-s.proc.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	code := s.proc.ExitCode()
	if code == 0 {
		return io.EOF
	}
	message := fmt.Sprintf("yt-dlp exited with status %d", code)
	if tail := lastLine(s.tail.String()); tail != "" {
		message += ": " + tail
	}
	return s.failure(message, s.proc.Err())
}

func (s *ytdlpStream) failure(message string, err error) error {
	if s.reader.delivered == 0 {
		return relay.Wrap(relay.ErrSourceUnavailable, "yt-dlp", message, err)
	}
	return relay.Wrap(relay.ErrSourceInterrupted, "yt-dlp", message, err)
}

// Close stops yt-dlp and everything it spawned, then releases the pipe.
func (s *ytdlpStream) Close() error {
	s.closeOnce.Do(func() {
		if err := s.proc.Terminate(stopGrace); err != nil {
			s.closeErr = err
		}
		if err := s.stdout.Close(); err != nil && s.closeErr == nil {
			s.closeErr = err
		}
		s.logger.Debug("yt-dlp stopped", logging.Int("exit_code", s.proc.ExitCode()))
	})
	return s.closeErr
}

func lastLine(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
