// Package procutil starts helper processes in their own process group and
// reaps them in the background so callers can wait with a deadline.
//
// A child placed in its own group does not receive the terminal's SIGINT;
// the relay decides when and how its helpers stop.
package procutil

import (
	"errors"
	"fmt"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// ErrWaitTimeout is returned by Wait when the process outlives the timeout.
var ErrWaitTimeout = errors.New("process did not exit before timeout")

// DefaultWaitDelay bounds how long Wait keeps copying output after exit.
const DefaultWaitDelay = 2 * time.Second

// Process is a started command reaped by a background goroutine.
type Process struct {
	cmd     *exec.Cmd
	done    chan struct{}
	waitErr error
}

// Start launches cmd in a new process group.
func Start(cmd *exec.Cmd) (*Process, error) {
	if cmd == nil {
		return nil, errors.New("command required")
	}
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
	if cmd.WaitDelay == 0 {
		cmd.WaitDelay = DefaultWaitDelay
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	p := &Process{cmd: cmd, done: make(chan struct{})}
	go func() {
		p.waitErr = cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

// Pid returns the process id, which is also the process group id.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Done is closed once the process has been reaped.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Exited reports whether the process has been reaped.
func (p *Process) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// ExitCode returns the exit status after Done is closed. A process
// terminated by a signal reports -1.
func (p *Process) ExitCode() int {
	<-p.done
	if p.cmd.ProcessState == nil {
		return -1
	}
	return p.cmd.ProcessState.ExitCode()
}

// Err returns the error from exec.Cmd.Wait once the process was reaped.
func (p *Process) Err() error {
	<-p.done
	return p.waitErr
}

// Wait blocks until the process exits or timeout elapses. A non-positive
// timeout waits indefinitely.
func (p *Process) Wait(timeout time.Duration) (int, error) {
	if timeout <= 0 {
		return p.ExitCode(), nil
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-p.done:
		return p.ExitCode(), nil
	case <-timer.C:
		return -1, fmt.Errorf("pid %d after %s: %w", p.Pid(), timeout, ErrWaitTimeout)
	}
}

// Signal delivers sig to every process in the group. A group that is
// already gone is not an error.
func (p *Process) Signal(sig syscall.Signal) error {
	if err := unix.Kill(-p.Pid(), sig); err != nil && !errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("signal process group %d: %w", p.Pid(), err)
	}
	return nil
}

// Kill sends SIGKILL to the process group.
func (p *Process) Kill() error {
	return p.Signal(unix.SIGKILL)
}

// Terminate asks the group to stop with SIGTERM and escalates to SIGKILL
// when it is still running after grace. It returns once the process has
// been reaped.
func (p *Process) Terminate(grace time.Duration) error {
	if p.Exited() {
		_ = p.Signal(unix.SIGKILL)
		return nil
	}
	if err := p.Signal(unix.SIGTERM); err != nil {
		return p.Kill()
	}
	if _, err := p.Wait(grace); err == nil {
		return nil
	}
	if err := p.Kill(); err != nil {
		return err
	}
	<-p.done
	return nil
}
