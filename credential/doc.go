// Package credential owns the identity to password-hash relation.
//
// Register validates the identity grammar, hashes the password with Argon2id
// and hands the complete record to an Opener, which inserts it in one atomic
// step. Verify compares a password against the stored hash in constant time
// and burns an equivalent hash computation for unknown identities.
//
// Identities and passwords share one grammar: 1 to 127 characters drawn from
// lowercase ASCII letters, digits, '_', '.' and '-'.
//
// # What this package must NOT do
//
//   - Treat any identity differently because of its content.
//   - Persist or log raw passwords.
//   - Issue tokens. That belongs to the token service.
package credential
