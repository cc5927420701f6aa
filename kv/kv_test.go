package kv

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get on absent key = %v, want ErrNotFound", err)
	}

	if err := store.Set(ctx, "planner:journeys:u1", `[]`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	val, err := store.Get(ctx, "planner:journeys:u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if val != `[]` {
		t.Errorf("Get = %q, want %q", val, `[]`)
	}

	if err := store.Set(ctx, "planner:journeys:u1", `[{"journeyid":"f1"}]`); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	val, _ = store.Get(ctx, "planner:journeys:u1")
	if val != `[{"journeyid":"f1"}]` {
		t.Errorf("overwrite lost: got %q", val)
	}

	if err := store.Del(ctx, "planner:journeys:u1"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if _, err := store.Get(ctx, "planner:journeys:u1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Del = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreDelAbsent(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Del(context.Background(), "never-written"); err != nil {
		t.Errorf("Del on absent key = %v, want nil", err)
	}
}
