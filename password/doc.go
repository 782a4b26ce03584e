// Package password implements password hashing and verification with Argon2id.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Argon2.NeedsUpgrade] reports hashes produced with weaker parameters so the
// caller can log or re-hash them.
//
// # Timing
//
// [Argon2.VerifyDummy] runs a full verification against a hash generated at
// construction. Credential lookups call it for unknown identities so that the
// latency of a failed login does not reveal whether the account exists.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords. Callers supply plaintext and receive hashes.
//   - Enforce password syntax. The identity grammar lives in package credential.
//   - Log plaintext passwords or hash parameters at runtime.
package password
