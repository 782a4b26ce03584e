// Package otel binds engine counters and latency histograms to OpenTelemetry
// observable instruments.
//
// Related engine counters share one instrument and are told apart by
// attributes: registrations and logins by outcome, applied balance changes
// by kind, refused ones by reason. Latency buckets are a single gauge keyed
// by op and le. A single callback reads [goBank.Engine.MetricsSnapshot] on
// each collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate engine state.
package otel
