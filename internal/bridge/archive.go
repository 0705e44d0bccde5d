package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"path"
	"time"

	"stackbridge/internal/engine"
	"stackbridge/internal/invocations"
	"stackbridge/internal/shared/telemetry"
)

const archivePrefix = "engine-failures"

type failureArchive struct {
	InvocationID string    `json:"invocation_id"`
	Operation    string    `json:"operation"`
	FailureKind  string    `json:"failure_kind"`
	Error        string    `json:"error"`
	CommandLine  string    `json:"command_line"`
	ExitStatus   *int      `json:"exit_status"`
	Stdout       string    `json:"stdout"`
	Stderr       string    `json:"stderr"`
	Truncated    bool      `json:"truncated"`
	CreatedAt    time.Time `json:"created_at"`
}

// ArchiveKey returns the object key a failed invocation is archived under.
func ArchiveKey(operation, invocationID string) string {
	return path.Join(archivePrefix, operation, invocationID+".json")
}

func (s *Service) archiveFailure(ctx context.Context, rec invocations.Record, inv engine.Invocation) {
	if s.archive == nil {
		return
	}
	doc := failureArchive{
		InvocationID: rec.ID,
		Operation:    rec.Operation,
		FailureKind:  rec.FailureKind,
		Error:        rec.Error,
		CommandLine:  inv.CommandLine(),
		ExitStatus:   inv.ExitStatus,
		Stdout:       string(inv.Stdout),
		Stderr:       string(inv.Stderr),
		Truncated:    inv.Truncated,
		CreatedAt:    rec.CreatedAt,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return
	}
	key := ArchiveKey(rec.Operation, rec.ID)
	if _, err := s.archive.Put(ctx, key, "application/json", bytes.NewReader(data)); err != nil {
		telemetry.Error("bridge.archive_failed", map[string]any{
			"invocation_id": rec.ID,
			"key":           key,
			"error":         err.Error(),
		})
		return
	}
	telemetry.Debug("bridge.archived", map[string]any{"invocation_id": rec.ID, "key": key})
}
