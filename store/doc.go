// Package store defines the account repository contract used by the ledger.
//
// A Repository persists one record per account: the identity, the encoded
// password hash, and the balance in minor units. Implementations must provide
// three operations with the following guarantees:
//
//   - Get returns the current record or ErrNotFound.
//   - Insert creates a record only if no record for the identity exists. Two
//     concurrent inserts of one identity produce exactly one success.
//   - Adjust applies a signed delta to the balance as a single conditional
//     update. The delta is applied only when the resulting balance stays within
//     [0, limit]; otherwise the record is untouched and ErrInsufficientFunds or
//     ErrLimitExceeded is returned.
//
// Infrastructure faults are wrapped with ErrUnavailable so callers can separate
// them from caller-caused outcomes.
//
// # Implementations
//
//   - store/memory: process-local map guarded by a mutex.
//   - store/redis: one hash per account, updated by Lua scripts.
//   - store/postgres: one row per account, updated by conditional UPDATE.
//
// # What this package must NOT do
//
//   - Interpret amounts beyond integer arithmetic. Formatting lives in money.
//   - Hash or compare passwords.
//   - Hold locks across calls.
package store
