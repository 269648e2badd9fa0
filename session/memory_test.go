package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	sess := testSession("sess-1", "user-1", time.Hour)
	if err := store.Create(ctx, sess, time.Hour); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, "sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.UserID != "user-1" {
		t.Fatalf("unexpected session %+v", got)
	}

	// Returned sessions are copies.
	got.Role = "tampered"
	again, err := store.Get(ctx, "sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if again.Role != "doctor" {
		t.Fatal("caller mutation leaked into the store")
	}

	if err := store.Invalidate(ctx, "sess-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(ctx, "sess-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("invalidated session readable: %v", err)
	}
	if err := store.Invalidate(ctx, "sess-1"); err != nil {
		t.Fatalf("invalidate must be idempotent: %v", err)
	}
}

func TestMemoryStoreLazyExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	base := time.Now()
	store.SetClock(func() time.Time { return base })

	if err := store.Create(ctx, testSession("sess-1", "user-1", time.Hour), time.Minute); err != nil {
		t.Fatal(err)
	}

	store.SetClock(func() time.Time { return base.Add(2 * time.Minute) })

	if _, err := store.Get(ctx, "sess-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired session readable: %v", err)
	}
	ids, err := store.SessionIDsForUser(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 0 {
		t.Fatalf("expired session listed: %v", ids)
	}
}

func TestMemoryStoreConsumeSingleWinner(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Create(ctx, testSession("sess-1", "user-1", time.Hour), time.Hour); err != nil {
		t.Fatal(err)
	}

	const n = 16
	var wg sync.WaitGroup
	wg.Add(n)

	results := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := store.Consume(ctx, "sess-1")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	success := 0
	for err := range results {
		if err == nil {
			success++
		} else if !errors.Is(err, ErrNotFound) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly one winner, got %d", success)
	}
}

func TestMemoryStoreInvalidateAllForUser(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := store.Create(ctx, testSession(id, "user-1", time.Hour), time.Hour); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.Create(ctx, testSession("z", "user-2", time.Hour), time.Hour); err != nil {
		t.Fatal(err)
	}

	if err := store.InvalidateAllForUser(ctx, "user-1"); err != nil {
		t.Fatal(err)
	}

	ids, err := store.SessionIDsForUser(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 0 {
		t.Fatalf("sessions survived: %v", ids)
	}
	if _, err := store.Get(ctx, "z"); err != nil {
		t.Fatalf("unrelated session lost: %v", err)
	}
}

func TestMemoryStoreHonorsContext(t *testing.T) {
	store := NewMemoryStore()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.Create(ctx, testSession("sess-1", "user-1", time.Hour), time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
	if _, err := store.Get(ctx, "sess-1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}
