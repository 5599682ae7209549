// Package internal groups the packages that are private to playgate.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher and Sink implementations)
//   - flows: flow orchestrators for the playback and webhook operations
//   - keys: signing key pair and secret generation for provisioning
//   - metrics: lock-free counters and the signing latency histogram
//   - rate: fixed-window rate limiter over a counter store
//
// # What this package must NOT do
//
//   - Export types that appear in the public playgate API.
//   - Be imported by any package outside the playgate module.
package internal
