package invocations

import "context"

// Repo persists the invocation log.
type Repo interface {
	Create(ctx context.Context, rec Record) error
	List(ctx context.Context, limit, offset int) ([]Record, error)
}
