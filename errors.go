package playgate

import (
	"errors"
	"time"
)

var (
	// ErrConfiguration is returned when the engine lacks required secrets or keys.
	ErrConfiguration = errors.New("server configuration error")
	// ErrInvalidInput is returned for missing or malformed request fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthenticated is returned when the requester identity is missing or a token
	// does not verify.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden is returned when the requester holds no valid membership.
	ErrForbidden = errors.New("forbidden")
	// ErrRateLimited is returned when the caller exhausted its quota.
	ErrRateLimited = errors.New("rate limited")
	// ErrUpstreamUnavailable is returned when the counter store, membership oracle, or
	// holdings checker could not answer.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrEngineNotReady is returned by methods called on a nil or unbuilt engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// RateLimitDecision is the rate limiter outcome attached to responses.
type RateLimitDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// ResetAtMs returns ResetAt in epoch milliseconds.
func (d RateLimitDecision) ResetAtMs() int64 {
	return d.ResetAt.UnixMilli()
}

// RetryAfter returns the whole seconds until the window resets, never less than 1.
func (d RateLimitDecision) RetryAfter(now time.Time) int64 {
	left := d.ResetAt.Sub(now)
	secs := int64((left + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

// GateError wraps one of the package sentinels with the rate limit decision that was
// in effect, so transports can emit quota headers on failures too.
type GateError struct {
	Err       error
	RateLimit *RateLimitDecision
}

func (e *GateError) Error() string {
	if e == nil || e.Err == nil {
		return "gate error"
	}
	return e.Err.Error()
}

func (e *GateError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// RateLimitFromError returns the decision carried by err, if any.
func RateLimitFromError(err error) (RateLimitDecision, bool) {
	var ge *GateError
	if errors.As(err, &ge) && ge.RateLimit != nil {
		return *ge.RateLimit, true
	}
	return RateLimitDecision{}, false
}
