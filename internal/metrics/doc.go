// Package metrics provides lock-free counters and a latency histogram for playgate.
//
// # Design
//
// Counters are stored in cache-line-padded uint64 slots and incremented
// atomically via [sync/atomic.AddUint64]. The signing-latency histogram uses 8 fixed
// buckets (≤5ms … +Inf) plus a running sum. The write path does not allocate.
//
// Metric export (Prometheus, OTel) lives in metrics/export/ and reads [Snapshot].
//
// # What this package must NOT do
//
//   - Perform I/O or network calls.
//   - Import playgate or any sibling package.
//   - Expose global metric registries.
package metrics
