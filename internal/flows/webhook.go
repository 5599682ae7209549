package flows

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/playgate/accesskey"
	"github.com/MrEthical07/playgate/membership"
)

// WebhookFailureKind classifies webhook outcomes for root-level mapping.
type WebhookFailureKind int

const (
	WebhookFailureNone WebhookFailureKind = iota
	WebhookFailureInvalidInput
	WebhookFailureStaleTimestamp
	WebhookFailureUnsupportedChain
	WebhookFailureKeyMismatch
	WebhookFailureNotHolder
	WebhookFailureHoldingsDown
	WebhookFailureConfiguration
)

// WebhookInput is one token-gate webhook call.
type WebhookInput struct {
	AccessKey string
	Address   string
	Rules     accesskey.TokenGateRules
	Timestamp time.Time
}

// WebhookDeps captures the collaborators of the token-gate webhook flow. HoldsToken
// may be nil, in which case a valid access key is sufficient.
type WebhookDeps struct {
	Now             func() time.Time
	MaxSkew         time.Duration
	SupportedChains map[int64]struct{}
	ValidateKey     func(candidate, identity string, ctx accesskey.Context) (bool, error)
	HoldsToken      func(ctx context.Context, h membership.Holding) (bool, error)
	Timeout         time.Duration
}

// WebhookResult is the webhook decision.
type WebhookResult struct {
	Allowed bool
	Failure WebhookFailureKind
	Err     error
}

// RunAuthorizeWebhook checks freshness, chain support, the access key and finally
// the on-chain holding.
func RunAuthorizeWebhook(ctx context.Context, deps WebhookDeps, in WebhookInput) WebhookResult {
	if strings.TrimSpace(in.AccessKey) == "" || strings.TrimSpace(in.Address) == "" || in.Timestamp.IsZero() {
		return WebhookResult{Failure: WebhookFailureInvalidInput, Err: errors.New("access key, address and timestamp are required")}
	}
	if !in.Rules.Complete() {
		return WebhookResult{Failure: WebhookFailureInvalidInput, Err: errors.New("token-gate rules are incomplete")}
	}

	skew := deps.Now().Sub(in.Timestamp)
	if skew < 0 {
		skew = -skew
	}
	if deps.MaxSkew > 0 && skew > deps.MaxSkew {
		return WebhookResult{Failure: WebhookFailureStaleTimestamp, Err: errors.New("webhook timestamp outside allowed skew")}
	}

	if _, ok := deps.SupportedChains[in.Rules.Chain]; !ok {
		return WebhookResult{Failure: WebhookFailureUnsupportedChain}
	}

	ok, err := deps.ValidateKey(in.AccessKey, in.Address, accesskey.TokenGate(in.Rules))
	if err != nil {
		return WebhookResult{Failure: WebhookFailureConfiguration, Err: err}
	}
	if !ok {
		return WebhookResult{Failure: WebhookFailureKeyMismatch}
	}

	if deps.HoldsToken == nil {
		return WebhookResult{Allowed: true}
	}

	hctx := ctx
	if deps.Timeout > 0 {
		var cancel context.CancelFunc
		hctx, cancel = context.WithTimeout(ctx, deps.Timeout)
		defer cancel()
	}
	held, err := deps.HoldsToken(hctx, membership.Holding{
		Chain:    in.Rules.Chain,
		Contract: in.Rules.ContractAddress,
		TokenID:  in.Rules.TokenID,
		Owner:    in.Address,
	})
	if err != nil {
		return WebhookResult{Failure: WebhookFailureHoldingsDown, Err: err}
	}
	if !held {
		return WebhookResult{Failure: WebhookFailureNotHolder}
	}
	return WebhookResult{Allowed: true}
}
