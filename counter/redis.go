package counter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrementScript runs INCR and the conditional PEXPIRE as one unit. A key without a
// TTL (PTTL -1) is re-armed so a counter can never leak past its window.
var incrementScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
local ttl = redis.call('PTTL', KEYS[1])
if count == 1 or ttl < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisStore is a [Store] backed by Redis.
type RedisStore struct {
	redis redis.UniversalClient
}

// NewRedisStore creates a [RedisStore] using the given client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{redis: client}
}

// Increment implements [Store].
func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (Window, error) {
	if s == nil || s.redis == nil {
		return Window{}, fmt.Errorf("%w: nil redis client", ErrUnavailable)
	}
	if window <= 0 {
		return Window{}, errors.New("counter window must be > 0")
	}
	windowMs := window.Milliseconds()
	if windowMs < 1 {
		windowMs = 1
	}

	res, err := incrementScript.Run(ctx, s.redis, []string{key}, windowMs).Int64Slice()
	if err != nil {
		return Window{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(res) != 2 {
		return Window{}, fmt.Errorf("%w: unexpected script reply of length %d", ErrUnavailable, len(res))
	}

	return Window{
		Count: res[0],
		TTL:   time.Duration(res[1]) * time.Millisecond,
	}, nil
}
