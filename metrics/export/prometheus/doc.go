// Package prometheus publishes playgate engine metrics through
// prometheus/client_golang.
//
// [Collector] turns each engine snapshot into const counters named
// playgate_*_total and the playgate_sign_latency_seconds histogram, including its
// sum. [Handler] wires a collector into a private registry for mounting at /metrics.
//
// # What this package must NOT do
//
//   - Register into the global Prometheus registry.
//   - Mutate engine state.
package prometheus
