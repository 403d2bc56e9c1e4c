package relay

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"restream/internal/logging"
)

// Pipeline pulls chunks from a source and writes them to a sink, one at a
// time, in production order.
type Pipeline struct {
	logger      *slog.Logger
	exitTimeout time.Duration
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for run diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithExitTimeout bounds the wait for the sink to exit during cleanup.
func WithExitTimeout(timeout time.Duration) Option {
	return func(p *Pipeline) {
		if timeout > 0 {
			p.exitTimeout = timeout
		}
	}
}

// NewPipeline constructs a pipeline with the default exit timeout.
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		logger:      logging.NewNop(),
		exitTimeout: DefaultExitTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.NewComponentLogger(p.logger, "relay")
	return p
}

// Run relays src into sink until the source ends, fails, the sink stops
// accepting input, or ctx is cancelled. The sink must already be started.
// Cleanup runs on every path, including panics raised by the source or sink.
func (p *Pipeline) Run(ctx context.Context, src Source, desc SourceDescriptor, sink Sink) (outcome Outcome) {
	meter := NewMeter()
	var stream Stream
	defer func() {
		outcome = p.finish(stream, sink, outcome, meter)
	}()

	if sink == nil {
		return Outcome{Reason: SinkProcessFailure}
	}
	if src == nil {
		return Outcome{Reason: SourceFailure, SourceErr: Wrap(ErrSourceUnavailable, "open", "no source configured", nil)}
	}

	opened, err := src.Open(ctx, desc)
	if err != nil {
		if ctx.Err() != nil {
			p.logger.Info("relay interrupted before source opened", logging.String(logging.FieldEventType, "relay_interrupted"))
			return Outcome{Reason: UserInterrupt}
		}
		return p.sourceFailed(err)
	}
	stream = opened
	p.logger.Debug("source opened", logging.String("quality", desc.Quality))

	return p.pump(ctx, stream, sink, meter)
}

func (p *Pipeline) pump(ctx context.Context, stream Stream, sink Sink, meter *Meter) Outcome {
	for {
		if ctx.Err() != nil {
			return p.interrupted()
		}

		chunk, err := stream.Next(ctx)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				p.logger.Info("source ended", logging.String(logging.FieldEventType, "source_ended"))
				return Outcome{Reason: NormalCompletion}
			case ctx.Err() != nil:
				return p.interrupted()
			default:
				return p.sourceFailed(err)
			}
		}
		if len(chunk) == 0 {
			continue
		}

		if err := sink.Write(ctx, chunk); err != nil {
			switch {
			case ctx.Err() != nil:
				return p.interrupted()
			case errors.Is(err, ErrBrokenPipe):
				p.logger.Info("sink closed its input; shutting down",
					logging.String(logging.FieldEventType, "sink_broken_pipe"),
					logging.Int64("chunks", meter.Chunks()),
				)
				return Outcome{Reason: BrokenPipe, WriteErr: err}
			default:
				logging.ErrorWithContext(p.logger, "sink write failed", "sink_write_failed",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check the sink diagnostics above"),
				)
				return Outcome{Reason: SinkProcessFailure, WriteErr: err}
			}
		}
		meter.Observe(chunk)
	}
}

func (p *Pipeline) interrupted() Outcome {
	p.logger.Info("relay interrupted; shutting down", logging.String(logging.FieldEventType, "relay_interrupted"))
	return Outcome{Reason: UserInterrupt}
}

func (p *Pipeline) sourceFailed(err error) Outcome {
	logging.WarnWithContext(p.logger, "source failed", "source_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "verify the source is live and the quality selector is valid"),
		logging.String(logging.FieldImpact, "relay stops; the sink is shut down"),
	)
	return Outcome{Reason: SourceFailure, SourceErr: err}
}

// finish stops the source, closes the sink input once, and waits for the
// sink to exit. A sink that outlives the timeout turns any outcome into a
// SinkProcessFailure with an unknown exit code.
func (p *Pipeline) finish(stream Stream, sink Sink, outcome Outcome, meter *Meter) Outcome {
	outcome.Chunks = meter.Chunks()
	outcome.Bytes = meter.Bytes()
	outcome.Digest = meter.Digest()
	outcome.ExitCode = ExitCodeUnknown

	if stream != nil {
		if err := stream.Close(); err != nil {
			p.logger.Debug("source close", logging.Error(err))
		}
	}
	if sink == nil {
		outcome.Reason = SinkProcessFailure
		return outcome
	}

	if err := sink.CloseInput(); err != nil {
		p.logger.Debug("sink input close", logging.Error(err))
	}

	code, err := sink.AwaitExit(p.exitTimeout)
	if err != nil {
		logging.WarnWithContext(p.logger, "sink did not exit in time", "sink_exit_timeout",
			logging.Error(err),
			logging.Duration("timeout", p.exitTimeout),
			logging.String("original_reason", outcome.Reason.String()),
			logging.String(logging.FieldImpact, "sink exit status is unknown"),
		)
		outcome.Reason = SinkProcessFailure
		return outcome
	}

	outcome.ExitCode = code
	p.logger.Info("sink exited",
		logging.String(logging.FieldEventType, "sink_exited"),
		logging.Int("exit_code", code),
	)
	return outcome
}
