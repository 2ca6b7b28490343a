// Package session provides the Redis-backed refresh token store.
//
// # Layout
//
// Each refresh entry is a hash at {<prefix>}:rt:<digest> with fields uid,
// created and exp (unix milliseconds, 0 for no expiry). Each identity keeps
// a set of its digests at {<prefix>}:ru:<identity>. The braces are a Redis
// Cluster hash tag: the Lua scripts touch keys they build from the prefix,
// so all of them must share one slot. Redis TTLs are set to the
// entry lifetime plus a grace period so that an expired entry can still be
// reported as expired; the exp field is authoritative.
//
// # Atomicity
//
// Add, Consume, Remove, RemoveAll and PruneExpired each run as one Lua
// script, so a consumed entry can be observed by at most one caller.
//
// # What this package must NOT do
//
//   - Import authcore, jwt or permission.
//   - See plaintext refresh tokens.
package session
