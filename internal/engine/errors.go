package engine

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// SpawnError reports that the engine process could not be started at all
// (missing binary, permission denied, bad working directory).
type SpawnError struct {
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %s: %v", e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// ProcessFailure reports a process that did not finish successfully: it was
// killed after its deadline, its caller went away, or it exited nonzero.
// Runner.Run never returns one for a nonzero exit; callers that treat a
// nonzero exit as failure build it with NonzeroExit.
type ProcessFailure struct {
	Command  string
	TimedOut bool
	Canceled bool
	Timeout  time.Duration
	ExitCode *int
	Stderr   string
	Err      error
}

// NonzeroExit describes a completed invocation that did not exit 0.
func NonzeroExit(inv Invocation) *ProcessFailure {
	return &ProcessFailure{
		Command:  inv.Command,
		ExitCode: inv.ExitStatus,
		Stderr:   tail(string(inv.Stderr), 512),
	}
}

func (e *ProcessFailure) Error() string {
	switch {
	case e.TimedOut:
		return fmt.Sprintf("process %s killed after %s timeout", e.Command, e.Timeout)
	case e.Canceled:
		return fmt.Sprintf("process %s canceled: %v", e.Command, e.Err)
	case e.ExitCode != nil && e.Stderr != "":
		return fmt.Sprintf("process %s exited with status %d: %s", e.Command, *e.ExitCode, e.Stderr)
	case e.ExitCode != nil:
		return fmt.Sprintf("process %s exited with status %d", e.Command, *e.ExitCode)
	default:
		return fmt.Sprintf("process %s: %v", e.Command, e.Err)
	}
}

func (e *ProcessFailure) Unwrap() error { return e.Err }

// tail keeps the last n bytes of s, starting on a rune boundary.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) > n {
		i := len(s) - n
		for i < len(s) && !utf8.RuneStart(s[i]) {
			i++
		}
		s = s[i:]
	}
	return strings.ToValidUTF8(s, "\uFFFD")
}
