package invocations

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestMemoryRepoListNewestFirstWithPaging(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		rec := Record{ID: fmt.Sprintf("inv-%d", i), Operation: "recommend_stack", Source: "engine", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := repo.Create(ctx, rec); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, err := repo.List(ctx, 2, 1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].ID != "inv-3" || got[1].ID != "inv-2" {
		t.Fatalf("unexpected page: %+v", got)
	}

	got, err = repo.List(ctx, 10, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty page, got %d", len(got))
	}
}

func TestMemoryRepoRejectsMissingID(t *testing.T) {
	repo := NewMemoryRepo()
	if err := repo.Create(context.Background(), Record{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestMemoryRepoDropsOldestPastCapacity(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	base := time.Now().UTC()
	for i := 0; i < memoryCapacity+5; i++ {
		_ = repo.Create(ctx, Record{ID: fmt.Sprintf("inv-%d", i), CreatedAt: base.Add(time.Duration(i) * time.Second)})
	}
	all, err := repo.List(ctx, 0, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != memoryCapacity {
		t.Fatalf("expected %d records, got %d", memoryCapacity, len(all))
	}
	if all[len(all)-1].ID != "inv-5" {
		t.Fatalf("expected oldest kept record inv-5, got %s", all[len(all)-1].ID)
	}
}
