package httpapi

import (
	"errors"
	"net/http"

	"github.com/MrEthical07/playgate"
)

// StatusCode maps an engine error to its HTTP status. A nil error is 200.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, playgate.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, playgate.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, playgate.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, playgate.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, playgate.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

const (
	msgInvalidJSON     = "Invalid JSON in request body"
	msgMissingFields   = "Bad request, missing required fields"
	msgAccessGranted   = "Access granted"
	msgAccessDenied    = "Access denied"
	msgRateLimited     = "Rate limit exceeded. Please try again later."
	msgUnavailable     = "Service temporarily unavailable"
	msgInternal        = "Internal server error"
	msgConfiguration   = "Server configuration error"
	msgMissingPlayback = "Missing playbackId"
	msgLoginRequired   = "Login required to watch this stream"
	msgMembership      = "Valid membership required to watch this stream"
)

// playbackMessage is the fixed response message of the sign-jwt route for err.
func playbackMessage(err error) string {
	switch StatusCode(err) {
	case http.StatusBadRequest:
		return msgMissingPlayback
	case http.StatusUnauthorized:
		return msgLoginRequired
	case http.StatusForbidden:
		return msgMembership
	default:
		return genericMessage(err)
	}
}

// genericMessage is the fixed response message for err on any route.
func genericMessage(err error) string {
	switch StatusCode(err) {
	case http.StatusBadRequest:
		return msgMissingFields
	case http.StatusForbidden:
		return msgAccessDenied
	case http.StatusTooManyRequests:
		return msgRateLimited
	case http.StatusServiceUnavailable:
		return msgUnavailable
	}
	if errors.Is(err, playgate.ErrConfiguration) {
		return msgConfiguration
	}
	return msgInternal
}
