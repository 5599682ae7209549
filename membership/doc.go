// Package membership defines the external collaborators that decide whether a viewer may
// receive a playback authorization, and thin adapters for them.
//
// An [Oracle] maps a chain address to the memberships it holds. A [HoldingChecker]
// answers whether an owner holds a positive balance of one token. Both are consulted
// over the network, so callers must bound every call with a context deadline.
//
// # What this package must NOT do
//
//   - It must not sign tokens or evaluate rate limits.
//   - It must not cache negative answers; a viewer who just bought a pass must be
//     admitted on the next request.
package membership
