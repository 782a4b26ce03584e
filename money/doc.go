// Package money implements the exact fixed-point amount used for every balance and
// every deposit or withdrawal in goBank.
//
// # Representation
//
// A [Money] is a non-negative count of minor units (cents) bounded by
// [MaxMinorUnits]. The zero value is 0.00. There is no negative Money and no
// floating-point path into or out of the type.
//
// # Grammar
//
// [Parse] accepts exactly `whole.ff`: whole is "0" or a digit string without a
// leading zero, ff is two digits. Signs, whitespace, exponents and missing or extra
// fraction digits are rejected with [ErrInvalidFormat].
//
// # What this package must NOT do
//
//   - Clamp or wrap on overflow or underflow.
//   - Accept or render locale-specific separators.
//   - Import any other goBank package.
package money
