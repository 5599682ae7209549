// Package httpapi exposes a [playgate.Engine] over HTTP with a chi router.
//
// Routes:
//
//	POST /api/livepeer/sign-jwt      playback authorization
//	GET  /api/livepeer/token-gate    access key issuance (rate limited, scope "token-gate")
//	POST /api/livepeer/token-gate    media platform webhook (rate limited, scope "token-gate")
//	GET  /healthz
//	GET  /metrics                    when Options.MetricsHandler is set
//
// Every response from a rate-limited route carries X-RateLimit-Limit,
// X-RateLimit-Remaining, X-RateLimit-Reset (epoch milliseconds) and
// Cache-Control: no-store. 429 responses add Retry-After in seconds.
//
// # What this package must NOT do
//
//   - Put engine error text, tokens or access keys in error bodies. Messages are fixed
//     per status.
//   - Trust X-Forwarded-For or X-Real-IP unless Options.TrustProxyHeaders is set.
package httpapi
