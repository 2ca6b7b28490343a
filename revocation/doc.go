// Package revocation records access credentials that were explicitly
// revoked before their natural expiry.
//
// Entries only need to outlive the credential they name: once the
// credential has expired the signature check rejects it anyway. Both
// registries therefore bound every entry by a TTL and never grow without
// limit.
//
//   - [Memory] keeps entries in an expirable LRU for a single process.
//   - [Redis] shares entries across instances with SET ... PX.
//
// Credentials are keyed by their SHA-256 digest, never stored raw.
package revocation
