// Package jwt signs and verifies playback authorization tokens.
//
// A [Manager] is built once from PEM (or base64-encoded PEM) key material and is safe
// for concurrent use. Tokens carry iss, sub (the playback id), exp, iat, jti, an
// "action" claim and a "custom" claim map holding the requester id.
//
// # What this package must NOT do
//
//   - It must not decide who may receive a token. Membership gating lives in the
//     calling engine.
//   - It must not reload or re-parse keys after [NewManager] returns.
//   - It must not include key material in returned errors.
package jwt
