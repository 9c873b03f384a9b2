package converter

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"notionpdf/internal/logging"
	"notionpdf/internal/process"
	procMocks "notionpdf/internal/process/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestBuildArgs(t *testing.T) {
	tests := []struct {
		name string
		job  Job
		want []string
	}{
		{
			name: "mandatory only",
			job:  Job{Token: "t1", PageID: "p1", OutputPath: "/tmp/w/report.pdf", PageSize: "letter"},
			want: []string{"--token", "t1", "--page-id", "p1", "--output", "/tmp/w/report.pdf", "--page-size", "letter"},
		},
		{
			name: "watermark and page numbers",
			job: Job{
				Token: "t1", PageID: "p1", OutputPath: "/o.pdf", PageSize: "a4",
				Watermark: "CONFIDENTIAL", PageNumbers: true,
			},
			want: []string{
				"--token", "t1", "--page-id", "p1", "--output", "/o.pdf", "--page-size", "a4",
				"--watermark", "CONFIDENTIAL", "--page-numbers",
			},
		},
		{
			name: "hostile values stay single arguments",
			job: Job{
				Token: `x" && rm -rf / #`, PageID: "$(whoami)", OutputPath: "/o.pdf", PageSize: "letter",
				Watermark: "`reboot`; echo",
			},
			want: []string{
				"--token", `x" && rm -rf / #`, "--page-id", "$(whoami)", "--output", "/o.pdf",
				"--page-size", "letter", "--watermark", "`reboot`; echo",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildArgs(tt.job))
		})
	}
}

func TestExecutor_Command(t *testing.T) {
	e := NewExecutor(nil, Options{Script: "scripts/export.py", Timeout: time.Minute, MaxOutput: 1024}, logging.Discard())

	cmd := e.Command(Job{Interpreter: "uv run python", Token: "t", PageID: "p", OutputPath: "/o.pdf", PageSize: "letter"})
	assert.Equal(t, "uv", cmd.Name)
	assert.Equal(t, []string{
		"run", "python", "scripts/export.py",
		"--token", "t", "--page-id", "p", "--output", "/o.pdf", "--page-size", "letter",
	}, cmd.Args)
	assert.Equal(t, time.Minute, cmd.Timeout)
	assert.Equal(t, int64(1024), cmd.MaxOutput)

	bare := NewExecutor(nil, Options{}, logging.Discard())
	cmd = bare.Command(Job{Interpreter: "/usr/local/bin/notion2pdf", Token: "t", PageID: "p", OutputPath: "/o.pdf", PageSize: "a4"})
	assert.Equal(t, "/usr/local/bin/notion2pdf", cmd.Name)
	assert.Equal(t, "--token", cmd.Args[0])
}

func TestNewExecutor_LimitsAlwaysSet(t *testing.T) {
	tests := []struct {
		name          string
		opt           Options
		wantTimeout   time.Duration
		wantMaxOutput int64
	}{
		{"unset", Options{}, DefaultTimeout, DefaultMaxOutput},
		{"negative", Options{Timeout: -time.Second, MaxOutput: -1}, DefaultTimeout, DefaultMaxOutput},
		{"explicit", Options{Timeout: 5 * time.Second, MaxOutput: 2048}, 5 * time.Second, 2048},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewExecutor(nil, tt.opt, logging.Discard()).Command(Job{Interpreter: "python3"})
			assert.Equal(t, tt.wantTimeout, cmd.Timeout)
			assert.Equal(t, tt.wantMaxOutput, cmd.MaxOutput)
		})
	}
}

func TestExecutor_Execute(t *testing.T) {
	ctx := context.Background()
	job := Job{Interpreter: "python3", Token: "secret_abc123", PageID: "p1", OutputPath: "/w/o.pdf", PageSize: "letter"}

	tests := []struct {
		name      string
		runResult *process.Result
		runErr    error
		wantErr   bool
	}{
		{name: "success", runResult: &process.Result{Duration: time.Second}},
		{
			name:      "non-zero exit",
			runResult: &process.Result{Output: []byte("401 Unauthorized for token secret_abc123")},
			runErr:    &process.ExitError{Code: 1, Output: []byte("401 Unauthorized for token secret_abc123")},
			wantErr:   true,
		},
		{name: "timeout", runResult: &process.Result{}, runErr: process.ErrTimeout, wantErr: true},
		{name: "output limit", runResult: &process.Result{}, runErr: process.ErrOutputLimit, wantErr: true},
		{name: "start failure", runErr: errors.New("start python3: executable file not found"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			m := new(procMocks.MockRunner)
			m.On("Run", ctx, mock.MatchedBy(func(c process.Command) bool {
				return c.Name == "python3" && c.Args[0] == "export.py"
			})).Return(tt.runResult, tt.runErr).Once()

			e := NewExecutor(m, Options{Script: "export.py", Timeout: time.Minute}, logging.New(&logs, "debug", nil))
			err := e.Execute(ctx, job)

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrConversionFailed)
				assert.ErrorIs(t, err, tt.runErr)
				assert.NotContains(t, err.Error(), job.Token)
				assert.Contains(t, logs.String(), "conversion program failed")
			} else {
				assert.NoError(t, err)
			}
			assert.NotContains(t, logs.String(), job.Token)
			m.AssertExpectations(t)
		})
	}
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "token=[REDACTED] again [REDACTED]", string(Redact([]byte("token=abc again abc"), "abc")))
	assert.Equal(t, "unchanged", string(Redact([]byte("unchanged"), "")))
}

func TestTail(t *testing.T) {
	assert.Equal(t, "cdef", string(tail([]byte("abcdef"), 4)))
	assert.Equal(t, "ab", string(tail([]byte("ab"), 4)))
}
