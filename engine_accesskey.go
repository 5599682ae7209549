package playgate

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/MrEthical07/playgate/accesskey"
	"github.com/MrEthical07/playgate/internal/flows"
)

// GenerateAccessKey returns the access key binding identity to ctx under the engine's
// secret. A missing secret is [ErrConfiguration]; an empty identity or unusable
// context is [ErrInvalidInput].
func (e *Engine) GenerateAccessKey(identity string, ctx accesskey.Context) (string, error) {
	if e == nil || e.codec == nil {
		return "", ErrEngineNotReady
	}
	key, err := e.codec.Generate(identity, ctx)
	if err != nil {
		return "", e.accessKeyError(err)
	}
	e.metricInc(MetricAccessKeyGenerated)
	return key, nil
}

// ValidateAccessKey reports whether candidate is the access key for (identity, ctx).
// Only a missing secret is returned as an error.
func (e *Engine) ValidateAccessKey(candidate, identity string, ctx accesskey.Context) (bool, error) {
	if e == nil || e.codec == nil {
		return false, ErrEngineNotReady
	}
	ok, err := e.codec.Validate(candidate, identity, ctx)
	if err != nil {
		return false, e.accessKeyError(err)
	}
	if ok {
		e.metricInc(MetricAccessKeyValidated)
	} else {
		e.metricInc(MetricAccessKeyRejected)
	}
	return ok, nil
}

// IssueTokenGateKey generates the access key a viewer presents to the media platform
// for content gated on rules.
func (e *Engine) IssueTokenGateKey(ctx context.Context, address string, rules accesskey.TokenGateRules) (string, error) {
	if !rules.Complete() {
		return "", fmt.Errorf("%w: token-gate rules are incomplete", ErrInvalidInput)
	}
	key, err := e.GenerateAccessKey(address, accesskey.TokenGate(rules))
	if err != nil {
		return "", err
	}
	e.emitAudit(ctx, auditEntry{
		eventType: auditEventAccessKeyGenerated,
		success:   true,
		identity:  address,
		scope:     ScopeTokenGate,
		metadata:  rulesMetadata(rules),
	})
	return key, nil
}

// AuthorizeWebhook decides a token-gate webhook call. Denials (unsupported chain,
// wrong access key, no holding) return false with a nil error. Malformed or stale
// requests are [ErrInvalidInput] and an unreachable holdings checker is
// [ErrUpstreamUnavailable].
func (e *Engine) AuthorizeWebhook(ctx context.Context, req WebhookRequest) (bool, error) {
	if e == nil || e.codec == nil {
		return false, ErrEngineNotReady
	}

	res := flows.RunAuthorizeWebhook(ctx, e.flows.Webhook, flows.WebhookInput{
		AccessKey: req.AccessKey,
		Address:   req.Address,
		Rules:     req.Rules,
		Timestamp: req.Timestamp,
	})

	entry := auditEntry{
		eventType: auditEventWebhookDenied,
		identity:  req.Address,
		scope:     ScopeTokenGate,
		metadata:  rulesMetadata(req.Rules),
	}

	var err error
	switch res.Failure {
	case flows.WebhookFailureNone:
		e.metricInc(MetricWebhookAllowed)
		entry.eventType, entry.success = auditEventWebhookAllowed, true
		e.emitAudit(ctx, entry)
		return true, nil
	case flows.WebhookFailureInvalidInput, flows.WebhookFailureStaleTimestamp:
		err = fmt.Errorf("%w: %v", ErrInvalidInput, res.Err)
	case flows.WebhookFailureConfiguration:
		err = e.accessKeyError(res.Err)
	case flows.WebhookFailureHoldingsDown:
		e.metricInc(MetricWebhookUpstreamFailure)
		e.logger.WarnContext(ctx, "holdings checker unavailable", "chain", req.Rules.Chain, "error", res.Err)
		err = fmt.Errorf("%w: %w", ErrUpstreamUnavailable, res.Err)
	case flows.WebhookFailureUnsupportedChain:
		entry.code = auditErrUnsupportedChain
	case flows.WebhookFailureKeyMismatch:
		e.metricInc(MetricAccessKeyRejected)
		entry.eventType, entry.code = auditEventAccessKeyRejected, auditErrKeyMismatch
	case flows.WebhookFailureNotHolder:
		entry.code = auditErrNotHolder
	}

	e.metricInc(MetricWebhookDenied)
	entry.err = err
	e.emitAudit(ctx, entry)
	return false, err
}

func (e *Engine) accessKeyError(err error) error {
	switch {
	case errors.Is(err, accesskey.ErrSecretUnset):
		e.logger.Error("access key secret is not configured")
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	case errors.Is(err, accesskey.ErrEmptyIdentity), errors.Is(err, accesskey.ErrInvalidIdentity),
		errors.Is(err, accesskey.ErrInvalidContext):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	default:
		return err
	}
}

func rulesMetadata(r accesskey.TokenGateRules) func() map[string]string {
	return func() map[string]string {
		return map[string]string{
			"chain":            strconv.FormatInt(r.Chain, 10),
			"contract_address": r.ContractAddress,
			"token_id":         r.TokenID,
		}
	}
}
