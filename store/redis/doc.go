// Package redis implements store.Repository on Redis.
//
// Each account is one hash at <prefix>:acct:<identity> with fields:
//
//	h  encoded password hash
//	b  balance in minor units (decimal integer string)
//	c  creation time (unix seconds)
//
// Insert and Adjust run as Lua scripts, so each is a single atomic step on the
// server even when several processes share the keyspace.
//
// # What this package must NOT do
//
//   - Read-modify-write a balance from the client side.
//   - Set a TTL on account keys. Accounts are never deleted.
package redis
