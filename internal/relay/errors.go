package relay

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrSourceInterrupted = errors.New("source interrupted")
	ErrSinkSpawn         = errors.New("sink spawn failure")
	ErrBrokenPipe        = errors.New("broken pipe")
	ErrExitTimeout       = errors.New("sink exit timeout")
)

// Wrap tags err with one of the markers above and a short operation detail
// so callers can classify it with errors.Is.
func Wrap(marker error, operation, message string, err error) error {
	detail := buildDetail(operation, message)
	if marker == nil {
		marker = ErrSourceInterrupted
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// WriteError reports a failed write to the sink input.
type WriteError struct {
	Op     string
	Broken bool
	Err    error
}

func (e *WriteError) Error() string {
	op := e.Op
	if op == "" {
		op = "write"
	}
	if e.Broken {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", op, ErrBrokenPipe, e.Err)
		}
		return fmt.Sprintf("%s: %s", op, ErrBrokenPipe)
	}
	return fmt.Sprintf("%s: %v", op, e.Err)
}

func (e *WriteError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Broken {
		errs = append(errs, ErrBrokenPipe)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func buildDetail(operation, message string) string {
	parts := make([]string, 0, 2)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "relay failure"
	}
	return strings.Join(parts, ": ")
}
