// Package accesskey implements deterministic access keys: an HMAC-SHA-256 digest over a
// canonical encoding of (identity, context), keyed by a shared secret.
//
// Any process holding the same secret can validate a key minted by any other process
// without a lookup. Keys are not individually revocable; callers that need expiry can
// embed it inside an opaque [Context].
//
// # Canonical form
//
// The digest input is compact JSON with keys sorted at every object level:
//
//	{"context":{"rules":{...},"type":"token-gate"},"identity":"0xabc"}
//
// Numbers keep their literal representation, so 1 and 1.0 are distinct rule values.
//
// # What this package must NOT do
//
//   - Hash with an empty secret. [ErrSecretUnset] is returned before any hashing.
//   - Leak the mismatch position through timing, or decoding internals through errors.
package accesskey
