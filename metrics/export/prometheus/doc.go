// Package prometheus renders engine counters and latency histograms in
// Prometheus text exposition format.
//
// Counter names are prefixed gobank_ and end in _total. The two histograms are
// gobank_login_latency_seconds and gobank_transaction_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry. Callers mount the Handler.
//   - Mutate engine state.
package prometheus
