package flows

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/playgate/internal/rate"
	"github.com/MrEthical07/playgate/jwt"
	"github.com/MrEthical07/playgate/membership"
)

// UnknownCaller keys the rate limiter when no client address is known.
const UnknownCaller = "unknown"

// PlaybackFailureKind classifies playback failures for root-level mapping.
type PlaybackFailureKind int

const (
	PlaybackFailureNone PlaybackFailureKind = iota
	PlaybackFailureInvalidInput
	PlaybackFailureUnauthenticated
	PlaybackFailureRateLimited
	PlaybackFailureRateLimiterDown
	PlaybackFailureMembershipDown
	PlaybackFailureForbidden
	PlaybackFailureSigning
)

// PlaybackInput is one signing request.
type PlaybackInput struct {
	PlaybackID  string
	UserAddress string
	ClientAddr  string
}

// PlaybackDeps captures the collaborators of the gated signing flow.
type PlaybackDeps struct {
	CheckRate         func(ctx context.Context, callerKey string) (rate.Decision, error)
	Memberships       func(ctx context.Context, address string) ([]membership.Membership, error)
	MembershipTimeout time.Duration
	Sign              func(subject string, custom map[string]string) (string, time.Time, error)
}

// PlaybackResult carries either a signed token or a classified failure. Decision is set
// once the rate limiter has answered, including on later failures.
type PlaybackResult struct {
	Failure   PlaybackFailureKind
	Err       error
	Decision  *rate.Decision
	Token     string
	ExpiresAt time.Time
}

// RunIssuePlayback validates the request, charges the caller's quota, checks
// membership and signs. Steps run in that order and stop at the first failure; the
// quota charge is never refunded.
func RunIssuePlayback(ctx context.Context, deps PlaybackDeps, in PlaybackInput) PlaybackResult {
	if strings.TrimSpace(in.PlaybackID) == "" {
		return PlaybackResult{Failure: PlaybackFailureInvalidInput, Err: errors.New("playback id is required")}
	}
	if strings.TrimSpace(in.UserAddress) == "" {
		return PlaybackResult{Failure: PlaybackFailureUnauthenticated, Err: errors.New("user address is required")}
	}

	caller := strings.TrimSpace(in.ClientAddr)
	if caller == "" {
		caller = UnknownCaller
	}

	decision, err := deps.CheckRate(ctx, caller)
	if err != nil {
		return PlaybackResult{Failure: PlaybackFailureRateLimiterDown, Err: err}
	}
	res := PlaybackResult{Decision: &decision}
	if !decision.Allowed {
		res.Failure = PlaybackFailureRateLimited
		return res
	}

	mctx := ctx
	if deps.MembershipTimeout > 0 {
		var cancel context.CancelFunc
		mctx, cancel = context.WithTimeout(ctx, deps.MembershipTimeout)
		defer cancel()
	}
	memberships, err := deps.Memberships(mctx, in.UserAddress)
	if err != nil {
		res.Failure, res.Err = PlaybackFailureMembershipDown, err
		return res
	}
	if !membership.HasValid(memberships) {
		res.Failure = PlaybackFailureForbidden
		return res
	}

	token, exp, err := deps.Sign(in.PlaybackID, map[string]string{jwt.UserIDClaim: in.UserAddress})
	if err != nil {
		res.Failure, res.Err = PlaybackFailureSigning, err
		return res
	}

	res.Token, res.ExpiresAt = token, exp
	return res
}
