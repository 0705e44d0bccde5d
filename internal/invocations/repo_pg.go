package invocations

import (
	"context"
	"database/sql"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a record.
func (r *PGRepo) Create(ctx context.Context, rec Record) error {
	const query = `
INSERT INTO bridge_invocations (
    id,
    operation,
    source,
    failure_kind,
    exit_status,
    duration_ms,
    request_digest,
    error,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	var exitStatus sql.NullInt64
	if rec.ExitStatus != nil {
		exitStatus = sql.NullInt64{Int64: int64(*rec.ExitStatus), Valid: true}
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		rec.ID,
		rec.Operation,
		rec.Source,
		nullString(rec.FailureKind),
		exitStatus,
		rec.DurationMs,
		nullString(rec.RequestDigest),
		nullString(rec.Error),
		rec.CreatedAt,
	)
	return err
}

// List returns records newest first.
func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Record, error) {
	const query = `
SELECT id, operation, source, failure_kind, exit_status, duration_ms, request_digest, error, created_at
FROM bridge_invocations
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`

	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		var rec Record
		var failureKind, digest, errText sql.NullString
		var exitStatus sql.NullInt64
		if err := rows.Scan(
			&rec.ID,
			&rec.Operation,
			&rec.Source,
			&failureKind,
			&exitStatus,
			&rec.DurationMs,
			&digest,
			&errText,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		rec.FailureKind = failureKind.String
		rec.RequestDigest = digest.String
		rec.Error = errText.String
		if exitStatus.Valid {
			code := int(exitStatus.Int64)
			rec.ExitStatus = &code
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
