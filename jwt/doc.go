// Package jwt issues and verifies the signed session tokens that bind a caller
// to one identity.
//
// Tokens are stateless: validity is decided only by signature, issuer and
// expiry. The claims carry the identity (sub), issue and expiry times and a
// unique token id (jti). There is no role or privilege claim.
//
// Verification checks the signature before any time-based claim, so a forged
// token is reported as ErrInvalidSignature even when it is also expired.
//
// # What this package must NOT do
//
//   - Fall back to a built-in signing key. NewManager fails without one.
//   - Keep a revocation list or any other server-side session state.
//   - Expose which verification step failed beyond the three sentinel errors.
package jwt
