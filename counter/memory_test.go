package counter

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestMemoryStoreWindow(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	store := NewMemoryStore(clock.Now)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		w, err := store.Increment(ctx, "k", time.Minute)
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
		if w.Count != i {
			t.Fatalf("expected count %d, got %d", i, w.Count)
		}
	}

	clock.Advance(30 * time.Second)
	w, _ := store.Increment(ctx, "k", time.Minute)
	if w.TTL != 30*time.Second {
		t.Fatalf("expected remaining ttl 30s, got %v", w.TTL)
	}

	clock.Advance(30 * time.Second)
	w, _ = store.Increment(ctx, "k", time.Minute)
	if w.Count != 1 {
		t.Fatalf("expected fresh counter, got %d", w.Count)
	}
}

func TestMemoryStoreSweepsExpired(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	store := NewMemoryStore(clock.Now)
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c"} {
		if _, err := store.Increment(ctx, k, time.Second); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}
	clock.Advance(2 * time.Second)
	if _, err := store.Increment(ctx, "d", time.Second); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if got := store.Len(); got != 1 {
		t.Fatalf("expected expired counters to be swept, have %d", got)
	}
}

func TestMemoryStoreHonoursCancellation(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Increment(ctx, "k", time.Minute); err == nil {
		t.Fatal("expected cancelled context to fail")
	}
}
