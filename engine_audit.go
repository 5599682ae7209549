package playgate

import (
	"context"
	"errors"

	"github.com/MrEthical07/playgate/accesskey"
	"github.com/MrEthical07/playgate/counter"
	"github.com/MrEthical07/playgate/internal/rate"
	"github.com/MrEthical07/playgate/membership"
)

const (
	auditEventPlaybackIssued       = "playback_issued"
	auditEventPlaybackRejected     = "playback_rejected"
	auditEventRateLimitTriggered   = "rate_limit_triggered"
	auditEventAccessKeyGenerated   = "access_key_generated"
	auditEventAccessKeyRejected    = "access_key_rejected"
	auditEventWebhookAllowed       = "webhook_allowed"
	auditEventWebhookDenied        = "webhook_denied"
	auditEventPlaybackVerifyFailed = "playback_verify_failed"
)

// AuditErrorCode is the stable reason recorded on failed audit events.
type AuditErrorCode string

const (
	auditErrInvalidInput     AuditErrorCode = "invalid_input"
	auditErrUnauthenticated  AuditErrorCode = "unauthenticated"
	auditErrForbidden        AuditErrorCode = "forbidden"
	auditErrRateLimited      AuditErrorCode = "rate_limited"
	auditErrStoreUnavailable AuditErrorCode = "rate_store_unavailable"
	auditErrOracleDown       AuditErrorCode = "membership_unavailable"
	auditErrUnavailable      AuditErrorCode = "backend_unavailable"
	auditErrConfiguration    AuditErrorCode = "configuration"
	auditErrKeyMismatch      AuditErrorCode = "access_key_mismatch"
	auditErrUnsupportedChain AuditErrorCode = "unsupported_chain"
	auditErrNotHolder        AuditErrorCode = "not_holder"
	auditErrInternal         AuditErrorCode = "internal_error"
)

type auditEntry struct {
	eventType string
	success   bool
	identity  string
	subject   string
	scope     string
	code      AuditErrorCode
	err       error
	metadata  func() map[string]string
}

func (e *Engine) emitAudit(ctx context.Context, entry auditEntry) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if entry.metadata != nil {
		metadata = entry.metadata()
	}

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: entry.eventType,
		RequestID: requestIDFromContext(ctx),
		Identity:  entry.identity,
		Subject:   entry.subject,
		IP:        clientIPFromContext(ctx),
		Scope:     entry.scope,
		Success:   entry.success,
		Metadata:  metadata,
	}
	code := entry.code
	if code == "" {
		code = auditErrorCode(entry.err)
	}
	event.Error = string(code)

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, rate.ErrStoreUnavailable),
		errors.Is(err, counter.ErrUnavailable):
		return auditErrStoreUnavailable
	case errors.Is(err, membership.ErrUnavailable):
		return auditErrOracleDown
	case errors.Is(err, accesskey.ErrSecretUnset),
		errors.Is(err, ErrConfiguration):
		return auditErrConfiguration
	case errors.Is(err, ErrInvalidInput):
		return auditErrInvalidInput
	case errors.Is(err, ErrUnauthenticated):
		return auditErrUnauthenticated
	case errors.Is(err, ErrForbidden):
		return auditErrForbidden
	case errors.Is(err, ErrRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrUpstreamUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
