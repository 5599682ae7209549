// Package otel publishes playgate engine metrics through OpenTelemetry observable
// instruments.
//
// [Register] creates one Int64ObservableCounter per counter family (playback
// requests, verifications, rate-limit events, access key operations, webhook
// decisions) with the outcome carried as an attribute, an audit-drop counter, and
// the signing latency histogram as a bucket gauge keyed by "le" plus count and sum
// gauges.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate engine state.
package otel
