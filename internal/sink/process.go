package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"restream/internal/logging"
	"restream/internal/procutil"
	"restream/internal/relay"
)

// State describes where a sink process is in its lifecycle.
type State int

const (
	NotStarted State = iota
	Running
	InputClosed
	Exited
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case Running:
		return "running"
	case InputClosed:
		return "input-closed"
	case Exited:
		return "exited"
	default:
		return "unknown"
	}
}

var errProcessExited = errors.New("sink process exited")

// Options configures Start.
type Options struct {
	Binary   string
	LogLevel string
	// Diagnostics receives ffmpeg's stdout and stderr. Defaults to os.Stderr.
	Diagnostics io.Writer
	Logger      *slog.Logger
}

// Process is a running ffmpeg instance fed through its stdin pipe.
type Process struct {
	desc   relay.SinkDescriptor
	proc   *procutil.Process
	stdin  *os.File
	logger *slog.Logger

	mu          sync.Mutex
	inputClosed bool
}

// Start spawns ffmpeg for desc. The process runs in its own process group.
func Start(desc relay.SinkDescriptor, opts Options) (*Process, error) {
	if strings.TrimSpace(desc.Destination) == "" {
		return nil, relay.Wrap(relay.ErrSinkSpawn, "start", "destination required", nil)
	}
	binary := strings.TrimSpace(opts.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	diagnostics := opts.Diagnostics
	if diagnostics == nil {
		diagnostics = os.Stderr
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "sink")

	stdinReader, stdinWriter, err := os.Pipe()
	if err != nil {
		return nil, relay.Wrap(relay.ErrSinkSpawn, "start", "create stdin pipe", err)
	}

	cmd := exec.Command(binary, Args(desc, opts.LogLevel)...)
	cmd.Stdin = stdinReader
	cmd.Stdout = diagnostics
	cmd.Stderr = diagnostics

	proc, err := procutil.Start(cmd)
	_ = stdinReader.Close()
	if err != nil {
		_ = stdinWriter.Close()
		return nil, relay.Wrap(relay.ErrSinkSpawn, "start", binary, err)
	}

	logger.Info("sink started",
		logging.String(logging.FieldEventType, "sink_started"),
		logging.Int("pid", proc.Pid()),
		logging.String("destination", relay.RedactDestination(desc.Destination)),
		logging.String("format", desc.Format),
	)
	return &Process{desc: desc, proc: proc, stdin: stdinWriter, logger: logger}, nil
}

// Descriptor returns the descriptor the process was started with.
func (p *Process) Descriptor() relay.SinkDescriptor {
	return p.desc
}

// Pid returns the ffmpeg process id.
func (p *Process) Pid() int {
	return p.proc.Pid()
}

// State reports the lifecycle state.
func (p *Process) State() State {
	if p == nil || p.proc == nil {
		return NotStarted
	}
	if p.proc.Exited() {
		return Exited
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inputClosed {
		return InputClosed
	}
	return Running
}

// Write delivers chunk to ffmpeg, blocking until every byte is accepted.
// Cancelling ctx abandons a blocked write and returns ctx.Err().
func (p *Process) Write(ctx context.Context, chunk relay.Chunk) error {
	p.mu.Lock()
	closed := p.inputClosed
	p.mu.Unlock()
	if closed {
		return &relay.WriteError{Op: "write", Broken: true, Err: os.ErrClosed}
	}
	if p.proc.Exited() {
		return &relay.WriteError{Op: "write", Broken: true, Err: errProcessExited}
	}

	stop := context.AfterFunc(ctx, func() {
		_ = p.stdin.SetWriteDeadline(time.Now())
	})
	_, err := p.stdin.Write(chunk)
	stop()
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, unix.EPIPE) || errors.Is(err, os.ErrClosed) {
		return &relay.WriteError{Op: "write", Broken: true, Err: err}
	}
	return &relay.WriteError{Op: "write", Err: err}
}

// CloseInput closes ffmpeg's stdin so it can flush and exit. Only the first
// call has an effect.
func (p *Process) CloseInput() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inputClosed {
		return nil
	}
	p.inputClosed = true
	if err := p.stdin.Close(); err != nil {
		return fmt.Errorf("close sink input: %w", err)
	}
	return nil
}

// AwaitExit waits up to timeout for ffmpeg to exit and returns its exit
// code. A process killed by a signal reports -1.
func (p *Process) AwaitExit(timeout time.Duration) (int, error) {
	code, err := p.proc.Wait(timeout)
	if err != nil {
		return relay.ExitCodeUnknown, relay.Wrap(relay.ErrExitTimeout, "await exit", "", err)
	}
	return code, nil
}

// Kill forcibly terminates ffmpeg and anything it spawned.
func (p *Process) Kill() error {
	if p.proc.Exited() {
		return nil
	}
	p.logger.Warn("killing sink process",
		logging.String(logging.FieldEventType, "sink_killed"),
		logging.Int("pid", p.proc.Pid()),
	)
	return p.proc.Kill()
}
