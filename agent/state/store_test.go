package state

import (
	"sync"
	"testing"
	"time"
)

func newTestStore(now time.Time) (*MemoryStore, *time.Time) {
	current := now
	store := NewMemoryStore(WithClock(func() time.Time { return current }))
	return store, &current
}

func TestGetOrCreateAndPut(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	store, _ := newTestStore(now)

	if _, ok := store.Get("u1"); ok {
		t.Fatal("expected no context before first contact")
	}

	c := store.GetOrCreate("u1")
	if c.UserID != "u1" || c.CurrentAgent != "" {
		t.Fatalf("unexpected fresh context: %+v", c)
	}

	c = c.WithAgent("ridenow").WithUserTurn("to the airport", now)
	store.Put(c)

	got, ok := store.Get("u1")
	if !ok {
		t.Fatal("expected context after put")
	}
	if got.CurrentAgent != "ridenow" || len(got.History) != 1 {
		t.Fatalf("unexpected stored context: %+v", got)
	}

	store.Delete("u1")
	if _, ok := store.Get("u1"); ok {
		t.Fatal("expected context gone after delete")
	}
}

func TestSweepOlderThan(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	store, clock := newTestStore(now)

	store.Put(NewContext("idle", now))
	store.Put(NewContext("fresh", now.Add(23*time.Hour)))

	// Idle threshold larger than any idle time evicts nothing.
	*clock = now.Add(time.Hour)
	if evicted := store.SweepOlderThan(48 * time.Hour); evicted != 0 {
		t.Fatalf("expected 0 evictions, got %d", evicted)
	}

	// 24h after the idle context's last activity, only it is evicted.
	*clock = now.Add(24*time.Hour + time.Minute)
	if evicted := store.SweepOlderThan(24 * time.Hour); evicted != 1 {
		t.Fatalf("expected 1 eviction, got %d", evicted)
	}
	if _, ok := store.Get("idle"); ok {
		t.Fatal("idle context should be evicted")
	}
	if _, ok := store.Get("fresh"); !ok {
		t.Fatal("fresh context should survive")
	}

	// Threshold zero evicts everything with past activity.
	*clock = now.Add(48 * time.Hour)
	if evicted := store.SweepOlderThan(0); evicted != 1 {
		t.Fatalf("expected 1 eviction, got %d", evicted)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d contexts", store.Len())
	}
}

func TestPerUserLockSerializesWrites(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	store, _ := newTestStore(now)
	store.Put(NewContext("u1", now))

	const turns = 50
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := store.LockUser("u1")
			defer unlock()

			c, _ := store.Get("u1")
			c = c.WithUserTurn("msg", now)
			store.Put(c)
		}()
	}
	wg.Wait()

	c, _ := store.Get("u1")
	if len(c.History) != turns {
		t.Fatalf("expected %d turns, got %d (lost updates)", turns, len(c.History))
	}
}

func TestPutIgnoresEmptyUser(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(time.Now())
	store.Put(Context{})
	if store.Len() != 0 {
		t.Fatal("empty user id must not be stored")
	}
}
