package counter

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned when the backing store cannot be reached or answers
// with something unusable.
var ErrUnavailable = errors.New("counter store unavailable")

// Window is the state of a counter right after one increment.
type Window struct {
	Count int64
	TTL   time.Duration
}

// Store increments fixed-window counters.
//
// Increment must be atomic with respect to concurrent callers on the same key: exactly
// one caller observes Count == 1, and a counter never survives without an expiry.
type Store interface {
	Increment(ctx context.Context, key string, window time.Duration) (Window, error)
}
