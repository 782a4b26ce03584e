// Package middleware adapts HTTP requests to the context values the Engine
// reads.
//
//   - [ClientIP] records the caller's address for per-IP throttling and audit.
//   - [Bearer] extracts the Authorization bearer token; [BearerWith] does the
//     same with a caller-supplied response for requests that lack one.
//
// # Architecture boundaries
//
// Bearer only extracts the token. It does not verify it: every gateway
// operation authorizes the raw token itself, so a route that forgets a
// middleware still cannot act for an unverified caller.
//
// # What this package must NOT do
//
//   - Parse or verify tokens.
//   - Access storage.
package middleware
