package membership

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedOracle remembers positive answers of another [Oracle] in Redis under
// "{prefix}:{address}". Negative answers and errors are never cached. Redis failures
// fall through to the wrapped oracle.
type CachedOracle struct {
	next   Oracle
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewCachedOracle wraps next. A ttl <= 0 defaults to one minute and an empty prefix to
// "mb".
func NewCachedOracle(next Oracle, client redis.UniversalClient, prefix string, ttl time.Duration) *CachedOracle {
	if prefix == "" {
		prefix = "mb"
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedOracle{next: next, redis: client, prefix: prefix, ttl: ttl, now: time.Now}
}

// Memberships implements [Oracle].
func (c *CachedOracle) Memberships(ctx context.Context, address string) ([]Membership, error) {
	key := c.prefix + ":" + strings.ToLower(strings.TrimSpace(address))

	if raw, err := c.redis.Get(ctx, key).Bytes(); err == nil {
		var cached []Membership
		if json.Unmarshal(raw, &cached) == nil && c.stillValid(cached) {
			return cached, nil
		}
	} else if !errors.Is(err, redis.Nil) && ctx.Err() != nil {
		return nil, ctx.Err()
	}

	ms, err := c.next.Memberships(ctx, address)
	if err != nil {
		return nil, err
	}
	if !HasValid(ms) {
		return ms, nil
	}

	ttl := c.ttl
	for _, m := range ms {
		if m.Valid && !m.ExpiresAt.IsZero() {
			if left := m.ExpiresAt.Sub(c.now()); left > 0 && left < ttl {
				ttl = left
			}
		}
	}
	if raw, err := json.Marshal(ms); err == nil {
		_ = c.redis.Set(ctx, key, raw, ttl).Err()
	}
	return ms, nil
}

// stillValid drops cached entries whose only valid membership has since expired.
func (c *CachedOracle) stillValid(ms []Membership) bool {
	now := c.now()
	for _, m := range ms {
		if m.Valid && (m.ExpiresAt.IsZero() || m.ExpiresAt.After(now)) {
			return true
		}
	}
	return false
}
