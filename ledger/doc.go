// Package ledger owns account balances and enforces the balance rules.
//
// Every balance stays within [0, limit], where limit is money.MaxMinorUnits
// unless configured lower. Deposits and withdrawals on one account are
// linearizable; operations on different accounts never contend.
//
// # Atomicity
//
// Two layers cooperate:
//
//   - An in-process lock table keyed by identity serializes calls for the same
//     account inside one process. Entries are reference counted and removed
//     when no caller holds them.
//   - The repository applies each change as one conditional update, which keeps
//     several processes sharing a backend consistent.
//
// A failed operation never changes the stored balance.
//
// # What this package must NOT do
//
//   - Authenticate callers. The identity passed in has already been verified.
//   - Parse or format amounts. Callers pass money.Money values.
//   - Deduplicate retried requests.
package ledger
