// Package playgate is the access-control core for protected media playback.
//
// It combines three mechanisms behind one [Engine]:
//
//   - access keys: deterministic HMAC-SHA-256 capabilities binding a viewer identity to
//     content rules (package accesskey);
//   - a distributed fixed-window rate limiter over a shared counter store, keyed by
//     caller and scope (packages counter and internal/rate);
//   - short-lived signed playback authorizations, minted only after a membership oracle
//     confirms the viewer (package jwt and membership).
//
// Engine methods are safe to call from multiple goroutines after [Builder.Build].
//
// # Architecture boundaries
//
// playgate is the public surface. It exposes [Engine], [Builder], [Config], the error
// sentinels and value types. Flow orchestration, limiter state, audit dispatch and
// metric storage live under internal/ and are never exported. HTTP transport lives in
// httpapi.
//
// # What this package must NOT do
//
//   - Log or return secrets, signed tokens, or access keys in errors.
//   - Treat an unavailable counter store as permission to proceed.
//   - Re-read key material after Build.
//   - Import httpapi or any package that re-imports playgate.
package playgate
