package relayrun

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"restream/internal/config"
	"restream/internal/history"
	"restream/internal/logging"
	"restream/internal/preflight"
	"restream/internal/relay"
	"restream/internal/sink"
	"restream/internal/source"
)

// ErrDestinationBusy is returned when another relay on this host holds the
// lock for the same destination.
var ErrDestinationBusy = errors.New("destination is already in use by another relay")

const killWait = 2 * time.Second

// Options configures a single relay run.
type Options struct {
	SourceURL   string
	Destination string
	// Quality overrides source.quality when set.
	Quality string
	// Direct forces the HTTP source regardless of source.extractor.
	Direct bool
	// ExitTimeout overrides sink.exit_timeout when positive.
	ExitTimeout time.Duration
	Logger      *slog.Logger
	// Diagnostics receives ffmpeg and yt-dlp output. Defaults to os.Stderr.
	Diagnostics io.Writer
	// Source replaces the configured extractor.
	Source relay.Source
}

// Result describes a finished run.
type Result struct {
	RunID      string
	Extractor  string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome    relay.Outcome
}

// ExitCode maps the outcome to a process exit status.
func (r Result) ExitCode() int {
	if r.Outcome.Reason.Clean() {
		return 0
	}
	return 1
}

// LockPath returns the lock file guarding destination.
func LockPath(cfg *config.Config, destination string) string {
	sum := blake3.Sum256([]byte(strings.TrimSpace(destination)))
	return filepath.Join(cfg.LockDir(), hex.EncodeToString(sum[:8])+".lock")
}

// Run relays opts.SourceURL to opts.Destination until the stream ends or
// the process is interrupted.
func Run(ctx context.Context, cfg *config.Config, opts Options) (Result, error) {
	if cfg == nil {
		return Result{}, fmt.Errorf("config is required")
	}
	sourceURL := strings.TrimSpace(opts.SourceURL)
	if sourceURL == "" {
		return Result{}, errors.New("source url is required")
	}
	destination := strings.TrimSpace(opts.Destination)
	if destination == "" {
		return Result{}, errors.New("destination url is required")
	}
	if check := preflight.CheckDestination(destination); !check.Passed {
		return Result{}, fmt.Errorf("invalid destination: %s", check.Detail)
	}

	signalCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return Result{}, fmt.Errorf("ensure directories: %w", err)
	}
	lockPath := LockPath(cfg, destination)
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return Result{}, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrDestinationBusy, relay.RedactDestination(destination))
	}
	defer func() { _ = lock.Unlock() }()

	runID := uuid.NewString()
	runCtx := logging.WithRunID(signalCtx, runID)
	baseLogger := opts.Logger
	if baseLogger == nil {
		baseLogger = logging.NewNop()
	}
	runLogger := logging.WithContext(runCtx, baseLogger)
	logger := logging.NewComponentLogger(runLogger, "relayrun")

	diagnostics := opts.Diagnostics
	if diagnostics == nil {
		diagnostics = os.Stderr
	}
	quality := cfg.Source.Quality
	if q := strings.TrimSpace(opts.Quality); q != "" {
		quality = q
	}
	exitTimeout := cfg.ExitTimeout()
	if opts.ExitTimeout > 0 {
		exitTimeout = opts.ExitTimeout
	}

	src, extractor, err := buildSource(cfg, opts, runLogger, diagnostics)
	if err != nil {
		return Result{}, err
	}

	sinkDesc := relay.NewSinkDescriptor(destination)
	proc, err := sink.Start(sinkDesc, sink.Options{
		Binary:      cfg.Sink.FFmpegBinary,
		LogLevel:    cfg.Sink.LogLevel,
		Diagnostics: diagnostics,
		Logger:      runLogger,
	})
	if err != nil {
		return Result{RunID: runID, Extractor: extractor}, fmt.Errorf("start ffmpeg: %w", err)
	}

	result := Result{RunID: runID, Extractor: extractor, StartedAt: time.Now()}
	logger.Info("relay started",
		logging.String(logging.FieldEventType, "relay_started"),
		logging.String("source", relay.RedactSource(sourceURL)),
		logging.String("destination", relay.RedactDestination(destination)),
		logging.String("extractor", extractor),
		logging.String("quality", quality),
	)

	pipeline := relay.NewPipeline(relay.WithLogger(runLogger), relay.WithExitTimeout(exitTimeout))
	outcome := pipeline.Run(runCtx, src, relay.SourceDescriptor{URL: sourceURL, Quality: quality}, proc)

	if proc.State() != sink.Exited {
		if err := proc.Kill(); err != nil {
			logging.WarnWithContext(logger, "kill sink failed", "sink_kill_failed", logging.Error(err))
		}
		if _, err := proc.AwaitExit(killWait); err != nil {
			logging.WarnWithContext(logger, "sink still running after kill", "sink_kill_timeout",
				logging.Error(err),
				logging.Int("pid", proc.Pid()),
			)
		}
	}

	result.FinishedAt = time.Now()
	result.Outcome = outcome
	logSummary(logger, result)

	if cfg.History.Enabled {
		recordHistory(ctx, cfg, logger, result, sourceURL, destination, quality)
	}
	return result, nil
}

func buildSource(cfg *config.Config, opts Options, logger *slog.Logger, diagnostics io.Writer) (relay.Source, string, error) {
	if opts.Source != nil {
		return opts.Source, "custom", nil
	}
	common := []source.Option{
		source.WithChunkSize(cfg.Source.ChunkSize),
		source.WithLogger(logger),
		source.WithStderr(diagnostics),
	}
	if opts.Direct || cfg.Source.Extractor == config.ExtractorDirect {
		common = append(common, source.WithConnectTimeout(cfg.HTTPConnectTimeout()))
		return source.NewDirect(nil, common...), config.ExtractorDirect, nil
	}
	common = append(common, source.WithExtraArgs(cfg.Source.YTDLPArgs...))
	src, err := source.NewYTDLP(cfg.Source.YTDLPBinary, common...)
	if err != nil {
		return nil, "", fmt.Errorf("configure yt-dlp: %w", err)
	}
	return src, config.ExtractorYTDLP, nil
}

func logSummary(logger *slog.Logger, result Result) {
	outcome := result.Outcome
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "relay_finished"),
		logging.String("reason", outcome.Reason.String()),
		logging.Int("exit_code", outcome.ExitCode),
		logging.Int64("chunks", outcome.Chunks),
		logging.String("bytes", humanize.IBytes(uint64(outcome.Bytes))),
		logging.Duration("duration", result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond)),
	}
	if outcome.Digest != "" && outcome.Bytes > 0 {
		attrs = append(attrs, logging.String("blake3", outcome.Digest))
	}
	if outcome.Reason.Clean() {
		logger.Info("relay finished", logging.Args(attrs...)...)
		return
	}
	if err := outcomeError(outcome); err != nil {
		attrs = append(attrs, logging.Error(err))
	}
	logging.WarnWithContext(logger, "relay finished", "relay_failed", attrs...)
}

func outcomeError(outcome relay.Outcome) error {
	switch {
	case outcome.SourceErr != nil:
		return outcome.SourceErr
	case outcome.WriteErr != nil:
		return outcome.WriteErr
	default:
		return nil
	}
}

func recordHistory(ctx context.Context, cfg *config.Config, logger *slog.Logger, result Result, sourceURL, destination, quality string) {
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		logging.WarnWithContext(logger, "history unavailable", "history_open_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run is not recorded"),
		)
		return
	}
	defer store.Close()

	run := history.Run{
		RunID:       result.RunID,
		SourceURL:   sourceURL,
		Destination: destination,
		Extractor:   result.Extractor,
		Quality:     quality,
		StartedAt:   result.StartedAt,
		FinishedAt:  result.FinishedAt,
		Reason:      result.Outcome.Reason,
		ExitCode:    result.Outcome.ExitCode,
		Chunks:      result.Outcome.Chunks,
		Bytes:       result.Outcome.Bytes,
		Digest:      result.Outcome.Digest,
	}
	if err := outcomeError(result.Outcome); err != nil {
		run.ErrorMessage = err.Error()
	}
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if _, err := store.Record(recordCtx, run); err != nil {
		logging.WarnWithContext(logger, "history record failed", "history_record_failed", logging.Error(err))
	}
}
