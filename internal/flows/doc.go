// Package flows contains the orchestrators behind the Engine's request methods.
//
// Each Run function takes a typed dependency struct of plain functions and returns a
// result with a classified failure kind, so the ordering of checks can be tested with
// fakes and the root package maps kinds to its public errors.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import playgate (to avoid import cycles).
//   - Emit audit events or metrics; the Engine does that from the returned result.
package flows
