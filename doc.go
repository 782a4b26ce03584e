// Package goBank provides the account ledger and authentication core of a
// minimal banking backend.
//
// An [Engine] registers users, logs them in with a signed session token and
// applies deposits and withdrawals to the balance of the identity named in
// that token. Amounts are exact fixed-point values (see package money); balances
// never go negative, never exceed the configured ceiling and never lose
// concurrent updates.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goBank is the public surface. It exposes [Engine], [Builder], [Config] and
// value types such as [LoginResult] and [MetricsSnapshot]. Storage lives behind
// store.Repository; token handling, hashing and throttling live in their own
// packages and are composed here.
//
// # What this package must NOT do
//
//   - Take the target account of a mutation from anywhere but a verified token.
//   - Derive privileges from identity content. There are no roles.
//   - Return storage or configuration detail to callers. Faults surface as
//     [ErrInternal] and are logged.
//   - Log raw passwords, tokens or signing keys.
package goBank
