// Package converter builds and runs one invocation of the external
// document-to-PDF conversion program.
package converter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"notionpdf/internal/interpreter"
	"notionpdf/internal/process"
)

// ErrConversionFailed wraps every way the program can fail: it could not be
// started, timed out, overflowed its output cap or exited non-zero.
var ErrConversionFailed = errors.New("conversion failed")

const logTailBytes = 4 * 1024

// Limits applied when Options leave them unset. A conversion always runs
// under both.
const (
	DefaultTimeout   = 60 * time.Second
	DefaultMaxOutput = 50 * 1024 * 1024
)

// Job carries the per-export inputs of one conversion.
type Job struct {
	Interpreter string
	Token       string
	PageID      string
	OutputPath  string
	PageSize    string
	Watermark   string
	PageNumbers bool
}

// Options configure an Executor.
type Options struct {
	// Script is passed to the interpreter as its first argument. Empty means
	// the interpreter itself is the conversion program.
	Script string
	// Timeout and MaxOutput of zero or less mean DefaultTimeout and
	// DefaultMaxOutput.
	Timeout   time.Duration
	MaxOutput int64
}

// Executor runs conversion jobs through a process.Runner.
type Executor struct {
	runner process.Runner
	opt    Options
	log    logrus.FieldLogger
}

// NewExecutor creates an Executor.
func NewExecutor(runner process.Runner, opt Options, log logrus.FieldLogger) *Executor {
	if opt.Timeout <= 0 {
		opt.Timeout = DefaultTimeout
	}
	if opt.MaxOutput <= 0 {
		opt.MaxOutput = DefaultMaxOutput
	}
	return &Executor{
		runner: runner,
		opt:    opt,
		log:    log.WithField("component", "converter"),
	}
}

// BuildArgs returns the program flags for job in their fixed order. Values are
// passed as separate argv entries, so they are never seen by a shell.
func BuildArgs(job Job) []string {
	args := []string{
		"--token", job.Token,
		"--page-id", job.PageID,
		"--output", job.OutputPath,
		"--page-size", job.PageSize,
	}
	if job.Watermark != "" {
		args = append(args, "--watermark", job.Watermark)
	}
	if job.PageNumbers {
		args = append(args, "--page-numbers")
	}
	return args
}

// Command assembles the complete bounded invocation for job.
func (e *Executor) Command(job Job) process.Command {
	argv := interpreter.Split(job.Interpreter)
	args := append([]string{}, argv[1:]...)
	if e.opt.Script != "" {
		args = append(args, e.opt.Script)
	}
	args = append(args, BuildArgs(job)...)
	return process.Command{
		Name:      argv[0],
		Args:      args,
		Timeout:   e.opt.Timeout,
		MaxOutput: e.opt.MaxOutput,
	}
}

// Execute runs job to completion. Diagnostic output is logged with the token
// redacted; the returned error wraps ErrConversionFailed and never carries
// the program output.
func (e *Executor) Execute(ctx context.Context, job Job) error {
	res, err := e.runner.Run(ctx, e.Command(job))
	if err == nil {
		if res != nil {
			e.log.WithFields(logrus.Fields{
				"page_id":     job.PageID,
				"duration_ms": res.Duration.Milliseconds(),
			}).Debug("conversion program finished")
		}
		return nil
	}

	fields := logrus.Fields{
		"interpreter": job.Interpreter,
		"page_id":     job.PageID,
	}
	var exitErr *process.ExitError
	if errors.As(err, &exitErr) {
		fields["exit_code"] = exitErr.Code
	}
	if res != nil {
		fields["duration_ms"] = res.Duration.Milliseconds()
		fields["output"] = string(tail(Redact(res.Output, job.Token), logTailBytes))
	}
	e.log.WithFields(fields).WithError(err).Error("conversion program failed")

	return fmt.Errorf("%w: %w", ErrConversionFailed, err)
}

// Redact replaces every occurrence of secret in b.
func Redact(b []byte, secret string) []byte {
	if secret == "" {
		return b
	}
	return bytes.ReplaceAll(b, []byte(secret), []byte("[REDACTED]"))
}

func tail(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[len(b)-n:]
}
