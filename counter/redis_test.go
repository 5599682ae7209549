package counter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisStoreTest(t *testing.T) (*RedisStore, *miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	return NewRedisStore(rdb), mr, rdb
}

func TestRedisStoreFirstIncrementArmsExpiry(t *testing.T) {
	store, mr, _ := newRedisStoreTest(t)
	ctx := context.Background()

	w, err := store.Increment(ctx, "rl:1.2.3.4:default", time.Minute)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if w.Count != 1 {
		t.Fatalf("expected count 1, got %d", w.Count)
	}
	if w.TTL != time.Minute {
		t.Fatalf("expected ttl 1m, got %v", w.TTL)
	}
	if ttl := mr.TTL("rl:1.2.3.4:default"); ttl != time.Minute {
		t.Fatalf("expected redis ttl 1m, got %v", ttl)
	}
}

func TestRedisStoreSubsequentIncrementKeepsWindow(t *testing.T) {
	store, mr, _ := newRedisStoreTest(t)
	ctx := context.Background()

	if _, err := store.Increment(ctx, "k", time.Minute); err != nil {
		t.Fatalf("increment: %v", err)
	}
	mr.FastForward(20 * time.Second)

	w, err := store.Increment(ctx, "k", time.Minute)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if w.Count != 2 {
		t.Fatalf("expected count 2, got %d", w.Count)
	}
	if w.TTL != 40*time.Second {
		t.Fatalf("expected remaining ttl 40s, got %v", w.TTL)
	}
}

func TestRedisStoreWindowExpires(t *testing.T) {
	store, mr, _ := newRedisStoreTest(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := store.Increment(ctx, "k", time.Minute); err != nil {
			t.Fatalf("increment %d: %v", i, err)
		}
	}
	mr.FastForward(time.Minute)

	w, err := store.Increment(ctx, "k", time.Minute)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if w.Count != 1 {
		t.Fatalf("expected fresh counter after window, got %d", w.Count)
	}
}

func TestRedisStoreRearmsCounterWithoutTTL(t *testing.T) {
	store, mr, rdb := newRedisStoreTest(t)
	ctx := context.Background()

	if err := rdb.Set(ctx, "k", 7, 0).Err(); err != nil {
		t.Fatalf("seed: %v", err)
	}

	w, err := store.Increment(ctx, "k", time.Minute)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if w.Count != 8 {
		t.Fatalf("expected count 8, got %d", w.Count)
	}
	if ttl := mr.TTL("k"); ttl != time.Minute {
		t.Fatalf("expected leaked counter to be re-armed with 1m ttl, got %v", ttl)
	}
}

func TestRedisStoreConcurrentIncrementsAreExact(t *testing.T) {
	store, mr, _ := newRedisStoreTest(t)
	ctx := context.Background()

	const n = 64
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		seen  = make(map[int64]int, n)
		first int
	)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			w, err := store.Increment(ctx, "k", time.Minute)
			if err != nil {
				t.Errorf("increment: %v", err)
				return
			}
			mu.Lock()
			seen[w.Count]++
			if w.Count == 1 {
				first++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if first != 1 {
		t.Fatalf("expected exactly one creator, got %d", first)
	}
	for c := int64(1); c <= n; c++ {
		if seen[c] != 1 {
			t.Fatalf("count %d observed %d times", c, seen[c])
		}
	}
	if ttl := mr.TTL("k"); ttl <= 0 {
		t.Fatalf("expected counter to carry a ttl, got %v", ttl)
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	store, mr, _ := newRedisStoreTest(t)
	mr.Close()

	_, err := store.Increment(context.Background(), "k", time.Minute)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestRedisStoreRejectsNonPositiveWindow(t *testing.T) {
	store, _, _ := newRedisStoreTest(t)
	if _, err := store.Increment(context.Background(), "k", 0); err == nil {
		t.Fatal("expected zero window to be rejected")
	}
}
