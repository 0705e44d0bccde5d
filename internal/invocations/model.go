package invocations

import (
	"errors"
	"time"
)

var ErrInvalidInput = errors.New("invalid input")

// Record is one bridge call as kept in the invocation log.
type Record struct {
	ID            string
	Operation     string
	Source        string
	FailureKind   string
	ExitStatus    *int
	DurationMs    int64
	RequestDigest string
	Error         string
	CreatedAt     time.Time
}

// RecordResponse is the outward-facing representation of a Record.
type RecordResponse struct {
	ID            string    `json:"id"`
	Operation     string    `json:"operation"`
	Source        string    `json:"source"`
	FailureKind   string    `json:"failure_kind,omitempty"`
	ExitStatus    *int      `json:"exit_status"`
	DurationMs    int64     `json:"duration_ms"`
	RequestDigest string    `json:"request_digest,omitempty"`
	Error         string    `json:"error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func toResponse(rec Record) RecordResponse {
	return RecordResponse{
		ID:            rec.ID,
		Operation:     rec.Operation,
		Source:        rec.Source,
		FailureKind:   rec.FailureKind,
		ExitStatus:    rec.ExitStatus,
		DurationMs:    rec.DurationMs,
		RequestDigest: rec.RequestDigest,
		Error:         rec.Error,
		CreatedAt:     rec.CreatedAt,
	}
}
