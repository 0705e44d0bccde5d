package payload

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyOutput is wrapped by MalformedOutputError when the engine printed nothing.
var ErrEmptyOutput = errors.New("engine produced no output")

// IOError reports a payload file that could not be written or removed.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("payload %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// MalformedOutputError reports engine output that is empty, is not a JSON
// object, or does not match the expected schema.
type MalformedOutputError struct {
	Schema     string
	Violations []string
	Err        error
}

func (e *MalformedOutputError) Error() string {
	switch {
	case len(e.Violations) > 0:
		return fmt.Sprintf("malformed engine output for %s: %s", e.Schema, strings.Join(e.Violations, "; "))
	case e.Err != nil:
		return fmt.Sprintf("malformed engine output for %s: %v", e.Schema, e.Err)
	default:
		return fmt.Sprintf("malformed engine output for %s", e.Schema)
	}
}

func (e *MalformedOutputError) Unwrap() error { return e.Err }

// EngineReportedError carries the message from an engine document with an error field.
type EngineReportedError struct {
	Message string
}

func (e *EngineReportedError) Error() string {
	return "engine reported error: " + e.Message
}
