// Package counter is the shared counter store used by the fixed-window rate limiter.
//
// A [Store] offers one operation: atomically increment a key and, when that increment
// created the key (or the key somehow lost its expiry), arm the window expiry. The result
// carries the new count and the remaining TTL so callers can report an exact reset time.
//
// # Implementations
//
//   - [RedisStore]: a single Lua script per call; safe across many processes.
//   - [MemoryStore]: process-local, for single-instance deployments and tests.
//
// # What this package must NOT do
//
//   - Decide whether a request is allowed (that lives in internal/rate).
//   - Delete counters explicitly; expiry is store-enforced.
package counter
