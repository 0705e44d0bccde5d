// Package engine runs the external analysis engine as a child process.
package engine

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	"mvdan.cc/sh/v3/syntax"

	"stackbridge/internal/shared/telemetry"
)

const (
	DefaultTimeout        = 20 * time.Second
	DefaultMaxOutputBytes = 4 << 20
	defaultWaitDelay      = 2 * time.Second
)

// Command describes one engine invocation. Args are passed as an argv slice and
// never through a shell.
type Command struct {
	Path      string
	Args      []string
	Dir       string
	Env       []string
	InputPath string
}

// Invocation is the record of a single engine run.
type Invocation struct {
	Command    string
	Args       []string
	InputPath  string
	Stdout     []byte
	Stderr     []byte
	ExitStatus *int
	Truncated  bool
	StartedAt  time.Time
	FinishedAt *time.Time
}

// Succeeded reports whether the process ran to completion with status 0.
func (inv Invocation) Succeeded() bool {
	return inv.ExitStatus != nil && *inv.ExitStatus == 0
}

// Duration returns the wall time of the run, or zero if it never finished.
func (inv Invocation) Duration() time.Duration {
	if inv.FinishedAt == nil {
		return 0
	}
	return inv.FinishedAt.Sub(inv.StartedAt)
}

// CommandLine renders the invocation as a shell-quoted string for logs.
func (inv Invocation) CommandLine() string {
	parts := make([]string, 0, len(inv.Args)+1)
	for _, arg := range append([]string{inv.Command}, inv.Args...) {
		quoted, err := syntax.Quote(arg, syntax.LangBash)
		if err != nil {
			quoted = "'<unprintable>'"
		}
		parts = append(parts, quoted)
	}
	return strings.Join(parts, " ")
}

// Runner starts engine processes. The zero value uses DefaultTimeout and
// DefaultMaxOutputBytes and is safe for concurrent use.
type Runner struct {
	Timeout        time.Duration
	MaxOutputBytes int
}

// Run executes cmd to completion. A nonzero exit is reported in the returned
// Invocation with a nil error. A *SpawnError means the process never started;
// a *ProcessFailure means it was killed on timeout or cancellation.
func (r *Runner) Run(ctx context.Context, cmd Command) (Invocation, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	limit := r.MaxOutputBytes
	if limit <= 0 {
		limit = DefaultMaxOutputBytes
	}

	args := append([]string(nil), cmd.Args...)
	if cmd.InputPath != "" {
		args = append(args, cmd.InputPath)
	}
	inv := Invocation{
		Command:   cmd.Path,
		Args:      args,
		InputPath: cmd.InputPath,
		StartedAt: time.Now().UTC(),
	}

	effective := timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < effective {
			effective = remaining.Round(time.Millisecond)
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	proc := exec.CommandContext(runCtx, cmd.Path, args...)
	proc.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		proc.Env = append(os.Environ(), cmd.Env...)
	}
	proc.WaitDelay = defaultWaitDelay
	killProcessGroup(proc)
	stdout := &cappedBuffer{limit: limit}
	stderr := &cappedBuffer{limit: limit}
	proc.Stdout = stdout
	proc.Stderr = stderr

	telemetry.Debug("engine.start", map[string]any{
		"command_line": inv.CommandLine(),
		"timeout_ms":   timeout.Milliseconds(),
	})

	if err := proc.Start(); err != nil {
		finished := time.Now().UTC()
		inv.FinishedAt = &finished
		if runCtx.Err() != nil {
			return inv, contextFailure(cmd.Path, ctx, runCtx, effective)
		}
		return inv, &SpawnError{Command: cmd.Path, Err: err}
	}

	waitErr := proc.Wait()
	finished := time.Now().UTC()
	inv.FinishedAt = &finished
	inv.Stdout = stdout.Bytes()
	inv.Stderr = stderr.Bytes()
	inv.Truncated = stdout.truncated || stderr.truncated

	if waitErr != nil {
		if runCtx.Err() != nil {
			return inv, contextFailure(cmd.Path, ctx, runCtx, effective)
		}
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			code := exitErr.ExitCode()
			inv.ExitStatus = &code
			return inv, nil
		}
		return inv, &ProcessFailure{Command: cmd.Path, Err: waitErr}
	}

	code := proc.ProcessState.ExitCode()
	inv.ExitStatus = &code
	return inv, nil
}

// contextFailure reports why runCtx ended. Any expired deadline, the runner's
// or one set by the caller, is a timeout; anything else is a cancellation.
func contextFailure(command string, ctx, runCtx context.Context, timeout time.Duration) *ProcessFailure {
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return &ProcessFailure{Command: command, TimedOut: true, Timeout: timeout, Err: runCtx.Err()}
	}
	err := ctx.Err()
	if err == nil {
		err = runCtx.Err()
	}
	return &ProcessFailure{Command: command, Canceled: true, Err: err}
}

// cappedBuffer keeps at most limit bytes and silently drops the rest so a
// runaway child cannot exhaust memory.
type cappedBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	remaining := b.limit - b.buf.Len()
	if remaining <= 0 {
		b.truncated = b.truncated || len(p) > 0
		return len(p), nil
	}
	if len(p) > remaining {
		b.buf.Write(p[:remaining])
		b.truncated = true
		return len(p), nil
	}
	return b.buf.Write(p)
}

func (b *cappedBuffer) Bytes() []byte {
	return append([]byte(nil), b.buf.Bytes()...)
}
