package playgate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrEthical07/playgate/accesskey"
	"github.com/MrEthical07/playgate/counter"
	internalaudit "github.com/MrEthical07/playgate/internal/audit"
	"github.com/MrEthical07/playgate/internal/flows"
	"github.com/MrEthical07/playgate/internal/rate"
	"github.com/MrEthical07/playgate/jwt"
	"github.com/MrEthical07/playgate/membership"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. A Builder may be used for one Build call.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	store  counter.Store

	oracle          membership.Oracle
	membershipCache time.Duration
	holdings        membership.HoldingChecker
	auditSink       AuditSink
	logger          *slog.Logger
	now             func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing the rate limiter and, when enabled, the
// membership cache.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithCounterStore sets the rate limiter store directly. It takes precedence over
// [Builder.WithRedis] for rate limiting.
func (b *Builder) WithCounterStore(store counter.Store) *Builder {
	b.store = store
	return b
}

// WithMembershipOracle sets the oracle consulted before signing.
func (b *Builder) WithMembershipOracle(o membership.Oracle) *Builder {
	b.oracle = o
	return b
}

// WithMembershipCache caches positive oracle answers in Redis for ttl. It requires
// [Builder.WithRedis].
func (b *Builder) WithMembershipCache(ttl time.Duration) *Builder {
	b.membershipCache = ttl
	return b
}

// WithHoldingChecker sets the on-chain balance check used by the token-gate webhook.
// Without one, a valid access key alone admits the viewer.
func (b *Builder) WithHoldingChecker(h membership.HoldingChecker) *Builder {
	b.holdings = h
	return b
}

// WithAuditSink sets where audit events go when auditing is enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the structured logger. Defaults to [slog.Default].
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithClock overrides the time source. Intended for tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithMetricsEnabled toggles in-process metrics.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the signing latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, parses key material once and returns a ready
// engine. Configuration problems are reported as [ErrConfiguration].
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	store := b.store
	if store == nil {
		if b.redis == nil {
			return nil, fmt.Errorf("%w: redis client or counter store required", ErrConfiguration)
		}
		store = counter.NewRedisStore(b.redis)
	}

	oracle := b.oracle
	if oracle == nil {
		return nil, fmt.Errorf("%w: membership oracle required", ErrConfiguration)
	}
	if b.membershipCache > 0 {
		if b.redis == nil {
			return nil, fmt.Errorf("%w: membership cache requires redis client", ErrConfiguration)
		}
		oracle = membership.NewCachedOracle(oracle, b.redis, "mb", b.membershipCache)
	}

	now := b.now
	if now == nil {
		now = time.Now
	}
	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	// -------- SIGNER --------
	signer, err := jwt.NewManager(jwt.Config{
		TTL:           cfg.Signer.TokenTTL,
		SigningMethod: jwt.SigningMethod(cfg.Signer.SigningMethod),
		PrivateKey:    cloneBytes(cfg.Signer.PrivateKey),
		PublicKey:     cloneBytes(cfg.Signer.PublicKey),
		Issuer:        cfg.Signer.Issuer,
		Action:        cfg.Signer.Action,
		KeyID:         cfg.Signer.KeyID,
		Leeway:        cfg.Signer.Leeway,
		Now:           now,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	// -------- RATE LIMITER --------
	scopes := make(map[string]rate.Limit, len(cfg.RateLimit.Scopes))
	for name, l := range cfg.RateLimit.Scopes {
		scopes[name] = rate.Limit{Requests: l.Requests, Window: l.Window}
	}
	limiter := rate.New(store, rate.Config{
		Prefix:       cfg.RateLimit.Prefix,
		Scopes:       scopes,
		StoreTimeout: cfg.RateLimit.StoreTimeout,
	}, now)

	engine := &Engine{
		config:   cloneConfig(cfg),
		limiter:  limiter,
		signer:   signer,
		codec:    accesskey.New(cfg.AccessKey.Secret),
		oracle:   oracle,
		holdings: b.holdings,
		logger:   logger,
		now:      now,
	}
	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:     cfg.Audit.Enabled,
		BufferSize:  cfg.Audit.BufferSize,
		DropIfFull:  cfg.Audit.DropIfFull,
		SinkTimeout: 5 * time.Second,
	}, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)
	engine.flows = engine.buildFlows()

	b.built = true

	return engine, nil
}

func (e *Engine) buildFlows() flows.Deps {
	chains := make(map[int64]struct{}, len(e.config.Webhook.SupportedChains))
	for _, c := range e.config.Webhook.SupportedChains {
		chains[c] = struct{}{}
	}

	var holds func(ctx context.Context, h membership.Holding) (bool, error)
	if e.holdings != nil {
		holds = e.holdings.HoldsToken
	}

	return flows.Deps{
		Playback: flows.PlaybackDeps{
			CheckRate: func(ctx context.Context, callerKey string) (rate.Decision, error) {
				return e.limiter.Check(ctx, callerKey, ScopeSigning)
			},
			Memberships:       e.oracle.Memberships,
			MembershipTimeout: e.config.Membership.Timeout,
			Sign:              e.signer.Sign,
		},
		Webhook: flows.WebhookDeps{
			Now:             e.now,
			MaxSkew:         e.config.Webhook.MaxTimestampSkew,
			SupportedChains: chains,
			ValidateKey:     e.codec.Validate,
			HoldsToken:      holds,
			Timeout:         e.config.Membership.Timeout,
		},
	}
}
