// Package audit implements async event dispatching for access decisions.
//
// # Components
//
//   - [Sink]: interface for event consumers (channel, JSON writer, no-op, fan-out).
//   - [Dispatcher]: buffered async relay with drop-if-full or block-if-full semantics.
//   - [Event]: one decision with timestamp, type, identity, subject, IP and scope.
//
// This package owns event buffering and sink delivery. It does NOT decide which events
// to emit; the Engine does.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import playgate or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package audit
