// Package process runs external programs with a hard timeout and a cap on
// captured output. Commands are always started in argv form, never through a
// shell, so argument values need no quoting.
package process

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

var (
	ErrTimeout     = errors.New("process timed out")
	ErrOutputLimit = errors.New("process output exceeded limit")
	ErrEmptyName   = errors.New("command name is empty")
)

// ExitError reports a process that ran to completion with a non-zero status.
type ExitError struct {
	Code   int
	Output []byte
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("process exited with status %d", e.Code)
}

// Command describes one bounded execution.
type Command struct {
	Name string
	Args []string
	Dir  string
	// Timeout of zero means no deadline beyond the caller's context.
	Timeout time.Duration
	// MaxOutput caps stdout and stderr combined. Zero means unlimited.
	MaxOutput int64
}

// Result holds what a finished process left behind.
type Result struct {
	Output   []byte
	Duration time.Duration
}

// Runner abstracts process execution so callers can be tested without real
// subprocesses.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// ExecRunner implements Runner using os/exec. Each process gets its own
// process group so that a timeout or output overflow kills its children too.
type ExecRunner struct {
	// WaitDelay bounds how long Run waits for output pipes to drain after the
	// process has been killed.
	WaitDelay time.Duration
}

// NewExecRunner creates an ExecRunner with default settings.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{WaitDelay: 2 * time.Second}
}

var _ Runner = (*ExecRunner)(nil)

// Run starts c and waits for it. The returned Result is non-nil whenever the
// process was started, including on failure, so callers can log its output.
func (r *ExecRunner) Run(ctx context.Context, c Command) (*Result, error) {
	if c.Name == "" {
		return nil, ErrEmptyName
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	ctx, abort := context.WithCancelCause(ctx)
	defer abort(nil)

	out := newCappedBuffer(c.MaxOutput, func() { abort(ErrOutputLimit) })

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdout = out
	cmd.Stderr = out
	setProcessGroup(cmd)
	cmd.Cancel = func() error {
		KillProcessGroup(cmd.Process.Pid)
		return nil
	}
	cmd.WaitDelay = r.WaitDelay

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", c.Name, err)
	}
	err := cmd.Wait()
	res := &Result{Output: out.Bytes(), Duration: time.Since(start)}
	if err == nil {
		return res, nil
	}

	cause := context.Cause(ctx)
	switch {
	case errors.Is(cause, ErrOutputLimit):
		return res, fmt.Errorf("%w (%d bytes)", ErrOutputLimit, c.MaxOutput)
	case errors.Is(cause, context.DeadlineExceeded):
		return res, fmt.Errorf("%w after %s", ErrTimeout, c.Timeout)
	case cause != nil:
		return res, cause
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return res, &ExitError{Code: exitErr.ExitCode(), Output: res.Output}
	}
	return res, fmt.Errorf("wait %s: %w", c.Name, err)
}
