package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStore_AddRemove(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	if err := s.Add(ctx, "u1", "h1", now); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(ctx, "u1", "h2", now); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if n, _ := s.Count(ctx, "u1"); n != 2 {
		t.Fatalf("Count = %d, want 2", n)
	}

	removed, err := s.Remove(ctx, "u1", "h1")
	if err != nil || !removed {
		t.Fatalf("Remove present: removed=%v err=%v", removed, err)
	}
	removed, err = s.Remove(ctx, "u1", "h1")
	if err != nil || removed {
		t.Fatalf("Remove absent: removed=%v err=%v", removed, err)
	}
	if n, _ := s.Count(ctx, "u1"); n != 1 {
		t.Fatalf("Count = %d, want 1", n)
	}
}

func TestMemoryStore_Replace(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	if err := s.Add(ctx, "u1", "old", now); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Replace(ctx, "u1", "old", "new", now); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if n, _ := s.Count(ctx, "u1"); n != 1 {
		t.Fatalf("Count = %d, want 1", n)
	}

	// Replacing the consumed digest again must fail and insert nothing.
	err := s.Replace(ctx, "u1", "old", "newer", now)
	if !errors.Is(err, ErrNotInAllowList) {
		t.Fatalf("err = %v, want ErrNotInAllowList", err)
	}
	if n, _ := s.Count(ctx, "u1"); n != 1 {
		t.Fatalf("failed replace changed the set, Count = %d", n)
	}

	// Unknown user behaves the same as an absent digest.
	if err := s.Replace(ctx, "ghost", "old", "new", now); !errors.Is(err, ErrNotInAllowList) {
		t.Fatalf("err = %v, want ErrNotInAllowList", err)
	}
}

func TestMemoryStore_ClearIsIdempotent(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	_ = s.Add(ctx, "u1", "h1", now)
	_ = s.Add(ctx, "u1", "h2", now)
	_ = s.Add(ctx, "u2", "h3", now)

	if err := s.Clear(ctx, "u1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := s.Clear(ctx, "u1"); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
	if n, _ := s.Count(ctx, "u1"); n != 0 {
		t.Fatalf("Count = %d, want 0", n)
	}
	if n, _ := s.Count(ctx, "u2"); n != 1 {
		t.Fatalf("Clear must not touch other users, Count = %d", n)
	}
}
