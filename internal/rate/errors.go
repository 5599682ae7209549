package rate

import "errors"

var (
	// ErrStoreUnavailable is returned when the counter store cannot answer; the limiter
	// never treats that as an allowed request.
	ErrStoreUnavailable = errors.New("rate limit store unavailable")
	// ErrInvalidKey is returned for an empty caller key or scope.
	ErrInvalidKey = errors.New("rate limit key invalid")
)
