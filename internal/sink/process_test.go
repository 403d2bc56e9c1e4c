package sink_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"restream/internal/relay"
	"restream/internal/sink"
)

func writeStub(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffmpeg")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func startStub(t *testing.T, body string) *sink.Process {
	t.Helper()
	proc, err := sink.Start(relay.NewSinkDescriptor("rtmp://ingest.example.com/live/key"), sink.Options{
		Binary:      writeStub(t, body),
		Diagnostics: io.Discard,
	})
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	t.Cleanup(func() {
		_ = proc.Kill()
		_, _ = proc.AwaitExit(5 * time.Second)
	})
	return proc
}

func TestArgs(t *testing.T) {
	got := strings.Join(sink.Args(relay.NewSinkDescriptor("rtmp://host/app/key"), ""), " ")
	want := "-hide_banner -loglevel error -i - -c:v copy -c:a copy -f flv rtmp://host/app/key"
	if got != want {
		t.Fatalf("unexpected args:\n got %q\nwant %q", got, want)
	}
	if got := sink.Args(relay.NewSinkDescriptor("rtmp://x/y"), "warning")[2]; got != "warning" {
		t.Fatalf("expected log level override, got %q", got)
	}
}

func TestStartRequiresDestination(t *testing.T) {
	_, err := sink.Start(relay.NewSinkDescriptor(" "), sink.Options{Binary: "/bin/cat"})
	if !errors.Is(err, relay.ErrSinkSpawn) {
		t.Fatalf("expected ErrSinkSpawn, got %v", err)
	}
}

func TestStartMissingBinary(t *testing.T) {
	_, err := sink.Start(relay.NewSinkDescriptor("rtmp://x/y"), sink.Options{
		Binary: filepath.Join(t.TempDir(), "no-ffmpeg"),
	})
	if !errors.Is(err, relay.ErrSinkSpawn) {
		t.Fatalf("expected ErrSinkSpawn, got %v", err)
	}
}

func TestWriteDeliversBytesInOrder(t *testing.T) {
	out := filepath.Join(t.TempDir(), "received")
	t.Setenv("RESTREAM_TEST_OUT", out)
	proc := startStub(t, `cat > "$RESTREAM_TEST_OUT"`)

	if proc.State() != sink.Running {
		t.Fatalf("expected running state, got %s", proc.State())
	}
	chunks := []relay.Chunk{
		bytes.Repeat([]byte{'a'}, 1024),
		bytes.Repeat([]byte{'b'}, 2048),
		bytes.Repeat([]byte{'c'}, 512),
	}
	var want []byte
	for _, chunk := range chunks {
		if err := proc.Write(context.Background(), chunk); err != nil {
			t.Fatalf("Write returned error: %v", err)
		}
		want = append(want, chunk...)
	}
	if err := proc.CloseInput(); err != nil {
		t.Fatalf("CloseInput returned error: %v", err)
	}
	code, err := proc.AwaitExit(5 * time.Second)
	if err != nil {
		t.Fatalf("AwaitExit returned error: %v", err)
	}
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if proc.State() != sink.Exited {
		t.Fatalf("expected exited state, got %s", proc.State())
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("sink received %d bytes, want %d in order", len(got), len(want))
	}
}

func TestWriteAfterExitIsBrokenPipe(t *testing.T) {
	proc := startStub(t, "exit 3")

	code, err := proc.AwaitExit(5 * time.Second)
	if err != nil {
		t.Fatalf("AwaitExit returned error: %v", err)
	}
	if code != 3 {
		t.Fatalf("expected exit code 3, got %d", code)
	}
	err = proc.Write(context.Background(), relay.Chunk("late"))
	if !errors.Is(err, relay.ErrBrokenPipe) {
		t.Fatalf("expected ErrBrokenPipe, got %v", err)
	}
	var writeErr *relay.WriteError
	if !errors.As(err, &writeErr) || !writeErr.Broken {
		t.Fatalf("expected broken *relay.WriteError, got %#v", err)
	}
}

func TestWriteToClosedReaderIsBrokenPipe(t *testing.T) {
	// The stub closes its stdin but keeps running, so the write hits EPIPE.
	proc := startStub(t, "exec 0<&-\nexec sleep 30")

	var err error
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if err = proc.Write(context.Background(), relay.Chunk("payload")); err != nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !errors.Is(err, relay.ErrBrokenPipe) {
		t.Fatalf("expected ErrBrokenPipe, got %v", err)
	}
	if proc.State() != sink.Running {
		t.Fatalf("expected process still running, got %s", proc.State())
	}
}

func TestWriteAfterCloseInputIsBrokenPipe(t *testing.T) {
	proc := startStub(t, "cat > /dev/null")

	if err := proc.CloseInput(); err != nil {
		t.Fatalf("CloseInput returned error: %v", err)
	}
	if err := proc.CloseInput(); err != nil {
		t.Fatalf("second CloseInput should be a no-op, got %v", err)
	}
	if err := proc.Write(context.Background(), relay.Chunk("x")); !errors.Is(err, relay.ErrBrokenPipe) {
		t.Fatalf("expected ErrBrokenPipe, got %v", err)
	}
	if _, err := proc.AwaitExit(5 * time.Second); err != nil {
		t.Fatalf("AwaitExit returned error: %v", err)
	}
}

func TestAwaitExitTimesOutOnHungProcess(t *testing.T) {
	proc := startStub(t, "exec sleep 30")

	if err := proc.CloseInput(); err != nil {
		t.Fatalf("CloseInput returned error: %v", err)
	}
	if proc.State() != sink.InputClosed {
		t.Fatalf("expected input-closed state, got %s", proc.State())
	}
	code, err := proc.AwaitExit(100 * time.Millisecond)
	if !errors.Is(err, relay.ErrExitTimeout) {
		t.Fatalf("expected ErrExitTimeout, got %v", err)
	}
	if code != relay.ExitCodeUnknown {
		t.Fatalf("expected unknown exit code, got %d", code)
	}

	if err := proc.Kill(); err != nil {
		t.Fatalf("Kill returned error: %v", err)
	}
	code, err = proc.AwaitExit(5 * time.Second)
	if err != nil {
		t.Fatalf("AwaitExit after kill returned error: %v", err)
	}
	if code != -1 {
		t.Fatalf("expected -1 for a killed process, got %d", code)
	}
}

func TestWriteAbandonedOnCancel(t *testing.T) {
	// The stub never reads, so a write larger than the pipe buffer blocks.
	proc := startStub(t, "exec sleep 30")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(100*time.Millisecond, cancel)

	start := time.Now()
	err := proc.Write(ctx, make(relay.Chunk, 4<<20))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("cancelled write took too long: %s", elapsed)
	}
	if err := proc.CloseInput(); err != nil {
		t.Fatalf("CloseInput returned error: %v", err)
	}
}

func TestStateString(t *testing.T) {
	if sink.InputClosed.String() != "input-closed" {
		t.Fatalf("unexpected state label %q", sink.InputClosed.String())
	}
	var p *sink.Process
	if p.State() != sink.NotStarted {
		t.Fatalf("expected nil process to report not-started")
	}
}
