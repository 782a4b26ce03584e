// Package rate provides Redis-backed fixed-window counters for throttling
// login and registration attempts.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefixes
// (under the configured namespace):
//   - rl:  failed logins per identity
//   - rli: failed logins per client IP
//   - rr:  registrations per client IP
//
// # What this package must NOT do
//
//   - Decide whether a credential is valid. Callers report outcomes.
//   - Be imported outside the goBank module.
package rate
