package procutil_test

import (
	"errors"
	"os/exec"
	"testing"
	"time"

	"restream/internal/procutil"
)

func TestStartReportsExitCode(t *testing.T) {
	proc, err := procutil.Start(exec.Command("/bin/sh", "-c", "exit 7"))
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	code, err := proc.Wait(5 * time.Second)
	if err != nil {
		t.Fatalf("Wait returned error: %v", err)
	}
	if code != 7 {
		t.Fatalf("expected exit code 7, got %d", code)
	}
	if !proc.Exited() {
		t.Fatal("expected process to be reaped")
	}
}

func TestWaitTimesOut(t *testing.T) {
	proc, err := procutil.Start(exec.Command("/bin/sh", "-c", "exec sleep 30"))
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	t.Cleanup(func() { _ = proc.Kill() })

	start := time.Now()
	_, err = proc.Wait(100 * time.Millisecond)
	if !errors.Is(err, procutil.ErrWaitTimeout) {
		t.Fatalf("expected ErrWaitTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("wait took too long: %s", elapsed)
	}
}

func TestTerminateKillsProcessGroup(t *testing.T) {
	// The shell ignores SIGTERM so Terminate has to escalate.
	proc, err := procutil.Start(exec.Command("/bin/sh", "-c", "trap '' TERM; sleep 30 & wait"))
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if err := proc.Terminate(200 * time.Millisecond); err != nil {
		t.Fatalf("Terminate returned error: %v", err)
	}
	if code := proc.ExitCode(); code != -1 {
		t.Fatalf("expected signalled exit code -1, got %d", code)
	}
	if err := proc.Kill(); err != nil {
		t.Fatalf("Kill after exit should be a no-op, got %v", err)
	}
}
