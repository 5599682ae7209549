package rate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/playgate/counter"
)

// DefaultScope is the table entry used for scopes without their own limit.
const DefaultScope = "default"

// Limit is the quota for one scope.
type Limit struct {
	Requests int
	Window   time.Duration
}

// Config holds rate limiter tuning parameters.
type Config struct {
	Prefix       string
	Scopes       map[string]Limit
	StoreTimeout time.Duration
}

// Decision is the outcome of one [Limiter.Check] call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter enforces fixed-window quotas per caller and scope using a shared
// [counter.Store].
type Limiter struct {
	store  counter.Store
	config Config
	now    func() time.Time
}

// New creates a [Limiter]. The scope table is copied; a nil clock defaults to time.Now.
func New(store counter.Store, cfg Config, now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	if strings.TrimSpace(cfg.Prefix) == "" {
		cfg.Prefix = "rl"
	}
	scopes := make(map[string]Limit, len(cfg.Scopes))
	for name, l := range cfg.Scopes {
		scopes[name] = l
	}
	cfg.Scopes = scopes

	return &Limiter{
		store:  store,
		config: cfg,
		now:    now,
	}
}

// LimitFor returns the configured limit for scope, falling back to [DefaultScope].
func (l *Limiter) LimitFor(scope string) (Limit, bool) {
	if lim, ok := l.config.Scopes[scope]; ok {
		return lim, true
	}
	lim, ok := l.config.Scopes[DefaultScope]
	return lim, ok
}

// Check charges one request against the (callerKey, scope) counter using the scope
// table.
func (l *Limiter) Check(ctx context.Context, callerKey, scope string) (Decision, error) {
	lim, ok := l.LimitFor(scope)
	if !ok {
		return Decision{}, fmt.Errorf("no rate limit configured for scope %q and no default", scope)
	}
	return l.CheckLimit(ctx, callerKey, scope, lim)
}

// CheckLimit charges one request against the (callerKey, scope) counter with an
// explicit limit. The charge is never rolled back, including when ctx is cancelled
// after the store accepted it.
func (l *Limiter) CheckLimit(ctx context.Context, callerKey, scope string, lim Limit) (Decision, error) {
	if callerKey == "" || scope == "" {
		return Decision{}, ErrInvalidKey
	}
	if lim.Requests <= 0 || lim.Window <= 0 {
		return Decision{}, fmt.Errorf("invalid limit for scope %q", scope)
	}

	if l.config.StoreTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.config.StoreTimeout)
		defer cancel()
	}

	w, err := l.store.Increment(ctx, l.key(callerKey, scope), lim.Window)
	if err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			return Decision{}, err
		}
		return Decision{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	ttl := w.TTL
	if ttl <= 0 || ttl > lim.Window {
		ttl = lim.Window
	}

	remaining := int64(lim.Requests) - w.Count
	if remaining < 0 {
		remaining = 0
	}

	return Decision{
		Allowed:   w.Count <= int64(lim.Requests),
		Limit:     lim.Requests,
		Remaining: int(remaining),
		ResetAt:   l.now().Add(ttl),
	}, nil
}

func (l *Limiter) key(callerKey, scope string) string {
	return l.config.Prefix + ":" + callerKey + ":" + scope
}
