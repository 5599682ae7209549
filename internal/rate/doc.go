// Package rate provides the fixed-window rate limiter used to throttle callers per
// (caller key, scope) pair on top of a shared [counter.Store].
//
// # Window semantics
//
// Fixed-window counters: one atomic increment per request; the increment that creates
// the counter arms its expiry. Key layout:
//   - rl:{callerKey}:{scope}
//
// The advertised reset time is read from the counter's remaining TTL, so it stays put
// for the whole window instead of drifting forward on each request.
//
// # What this package must NOT do
//
//   - Fail open. A store error is surfaced as [ErrStoreUnavailable].
//   - Be imported outside the playgate module.
package rate
