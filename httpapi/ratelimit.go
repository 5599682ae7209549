package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/MrEthical07/playgate"
)

// RateLimit charges one request against scope for the client address before calling
// next. Denied requests get 429 and an unreachable store gets 503; next is not called
// in either case.
func RateLimit(engine *playgate.Engine, scope string, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				writeJSON(w, http.StatusInternalServerError, messageResponse{Message: msgInternal})
				return
			}

			d, err := engine.CheckRateLimit(r.Context(), ClientIP(r, trustProxy), scope)
			if err != nil {
				if errors.Is(err, playgate.ErrRateLimited) {
					writeRateLimitHeaders(w, d, engine.Now())
				}
				writeJSON(w, StatusCode(err), messageResponse{Message: genericMessage(err)})
				return
			}

			writeRateLimitHeaders(w, d, engine.Now())
			next.ServeHTTP(w, r)
		})
	}
}

func writeRateLimitHeaders(w http.ResponseWriter, d playgate.RateLimitDecision, now time.Time) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAtMs(), 10))
	h.Set("Cache-Control", "no-store")
	if !d.Allowed {
		h.Set("Retry-After", strconv.FormatInt(d.RetryAfter(now), 10))
	}
}

// writeDecisionFromError sets quota headers when err carries a limiter decision.
func writeDecisionFromError(w http.ResponseWriter, err error, now time.Time) {
	if d, ok := playgate.RateLimitFromError(err); ok {
		writeRateLimitHeaders(w, d, now)
	}
}
