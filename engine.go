package playgate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MrEthical07/playgate/accesskey"
	internalaudit "github.com/MrEthical07/playgate/internal/audit"
	"github.com/MrEthical07/playgate/internal/flows"
	"github.com/MrEthical07/playgate/internal/rate"
	"github.com/MrEthical07/playgate/jwt"
	"github.com/MrEthical07/playgate/membership"
)

// Engine gates playback authorizations, access keys and rate limits. It is safe for
// concurrent use once returned by [Builder.Build].
type Engine struct {
	config   Config
	limiter  *rate.Limiter
	signer   *jwt.Manager
	codec    *accesskey.Codec
	oracle   membership.Oracle
	holdings membership.HoldingChecker
	flows    flows.Deps
	audit    *internalaudit.Dispatcher
	metrics  *Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// Close drains the audit dispatcher. The engine must not be used afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns the number of audit events dropped under backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of the in-process metrics.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:      map[MetricID]uint64{},
			Histograms:    map[MetricID][]uint64{},
			HistogramSums: map[MetricID]time.Duration{},
		}
	}
	return e.metrics.Snapshot()
}

// Now returns the engine clock's current time.
func (e *Engine) Now() time.Time {
	if e == nil || e.now == nil {
		return time.Now()
	}
	return e.now()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// IssuePlaybackAuthorization signs a playback token for req after charging the
// caller's "signing" quota and confirming that req.UserAddress holds a valid
// membership.
//
// Errors wrap one of the package sentinels. Once the rate limiter has answered the
// error is a *[GateError] carrying its decision. A membership denial does not refund
// the quota.
func (e *Engine) IssuePlaybackAuthorization(ctx context.Context, req PlaybackRequest) (*PlaybackGrant, error) {
	if e == nil || e.signer == nil {
		return nil, ErrEngineNotReady
	}

	start := time.Now()
	res := flows.RunIssuePlayback(ctx, e.flows.Playback, flows.PlaybackInput{
		PlaybackID:  req.PlaybackID,
		UserAddress: req.UserAddress,
		ClientAddr:  req.ClientAddr,
	})

	var decision *RateLimitDecision
	if res.Decision != nil {
		d := toDecision(*res.Decision)
		decision = &d
	}

	entry := auditEntry{
		eventType: auditEventPlaybackRejected,
		identity:  req.UserAddress,
		subject:   req.PlaybackID,
		scope:     ScopeSigning,
		metadata:  decisionMetadata(decision),
	}

	var err error
	switch res.Failure {
	case flows.PlaybackFailureNone:
		e.metricInc(MetricPlaybackIssued)
		if e.metrics.LatencyEnabled() {
			e.metrics.Observe(MetricSignLatency, time.Since(start))
		}
		entry.eventType, entry.success = auditEventPlaybackIssued, true
		e.emitAudit(ctx, entry)
		return &PlaybackGrant{Token: res.Token, ExpiresAt: res.ExpiresAt, RateLimit: *decision}, nil

	case flows.PlaybackFailureInvalidInput:
		e.metricInc(MetricPlaybackInvalidInput)
		err = fmt.Errorf("%w: %v", ErrInvalidInput, res.Err)

	case flows.PlaybackFailureUnauthenticated:
		e.metricInc(MetricPlaybackUnauthenticated)
		err = fmt.Errorf("%w: %v", ErrUnauthenticated, res.Err)

	case flows.PlaybackFailureRateLimiterDown:
		e.metricInc(MetricRateLimitStoreFailure)
		e.metricInc(MetricPlaybackUpstreamFailure)
		e.logger.WarnContext(ctx, "rate limit store unavailable", "scope", ScopeSigning, "error", res.Err)
		err = fmt.Errorf("%w: %w", ErrUpstreamUnavailable, res.Err)

	case flows.PlaybackFailureRateLimited:
		e.metricInc(MetricRateLimitHit)
		e.metricInc(MetricPlaybackRateLimited)
		entry.eventType = auditEventRateLimitTriggered
		err = &GateError{Err: ErrRateLimited, RateLimit: decision}

	case flows.PlaybackFailureMembershipDown:
		e.metricInc(MetricPlaybackUpstreamFailure)
		e.logger.WarnContext(ctx, "membership oracle unavailable", "error", res.Err)
		err = &GateError{Err: fmt.Errorf("%w: %w", ErrUpstreamUnavailable, res.Err), RateLimit: decision}

	case flows.PlaybackFailureForbidden:
		e.metricInc(MetricPlaybackForbidden)
		err = &GateError{Err: ErrForbidden, RateLimit: decision}

	default:
		e.logger.ErrorContext(ctx, "playback token signing failed", "error", res.Err)
		err = &GateError{Err: fmt.Errorf("%w: token signing failed", ErrConfiguration), RateLimit: decision}
	}

	entry.err = err
	e.emitAudit(ctx, entry)
	return nil, err
}

// CheckRateLimit charges one request for callerKey against scope. An empty callerKey
// shares the "unknown" bucket. A denial returns the decision together with a
// *[GateError] wrapping [ErrRateLimited]; a store failure returns
// [ErrUpstreamUnavailable] and the request must not proceed.
func (e *Engine) CheckRateLimit(ctx context.Context, callerKey, scope string) (RateLimitDecision, error) {
	if e == nil || e.limiter == nil {
		return RateLimitDecision{}, ErrEngineNotReady
	}
	callerKey = strings.TrimSpace(callerKey)
	if callerKey == "" {
		callerKey = flows.UnknownCaller
	}
	if scope == "" {
		scope = ScopeDefault
	}

	d, err := e.limiter.Check(ctx, callerKey, scope)
	if err != nil {
		e.metricInc(MetricRateLimitStoreFailure)
		e.logger.WarnContext(ctx, "rate limit store unavailable", "scope", scope, "error", err)
		return RateLimitDecision{}, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}

	decision := toDecision(d)
	if !decision.Allowed {
		e.metricInc(MetricRateLimitHit)
		e.emitAudit(ctx, auditEntry{
			eventType: auditEventRateLimitTriggered,
			scope:     scope,
			code:      auditErrRateLimited,
			metadata:  decisionMetadata(&decision),
		})
		return decision, &GateError{Err: ErrRateLimited, RateLimit: &decision}
	}
	return decision, nil
}

// RateLimitFor returns the configured quota for scope, falling back to the default
// scope.
func (e *Engine) RateLimitFor(scope string) (RateLimit, bool) {
	if e == nil || e.limiter == nil {
		return RateLimit{}, false
	}
	l, ok := e.limiter.LimitFor(scope)
	return RateLimit{Requests: l.Requests, Window: l.Window}, ok
}

// VerifyPlaybackAuthorization checks a token issued by this engine's key. Failures
// wrap [ErrUnauthenticated].
func (e *Engine) VerifyPlaybackAuthorization(ctx context.Context, token string) (*PlaybackClaims, error) {
	if e == nil || e.signer == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.signer.Parse(token)
	if err != nil {
		e.metricInc(MetricPlaybackVerifyFailed)
		e.emitAudit(ctx, auditEntry{eventType: auditEventPlaybackVerifyFailed, code: auditErrUnauthenticated})
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	e.metricInc(MetricPlaybackVerified)

	out := &PlaybackClaims{
		PlaybackID:  claims.Subject,
		UserAddress: claims.UserID(),
		Action:      claims.Action,
		TokenID:     claims.ID,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

func toDecision(d rate.Decision) RateLimitDecision {
	return RateLimitDecision{
		Allowed:   d.Allowed,
		Limit:     d.Limit,
		Remaining: d.Remaining,
		ResetAt:   d.ResetAt,
	}
}

func decisionMetadata(d *RateLimitDecision) func() map[string]string {
	if d == nil {
		return nil
	}
	return func() map[string]string {
		return map[string]string{
			"limit":     fmt.Sprint(d.Limit),
			"remaining": fmt.Sprint(d.Remaining),
		}
	}
}
