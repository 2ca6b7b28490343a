// Package authcore provides a credential-and-session engine: registration,
// login with signed short-lived access credentials, rotating single-use
// refresh tokens, logout with revocation, and role gating.
//
// The package is designed for concurrent server workloads: Engine methods are safe to call
// from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder], [Config], and value types
// ([TokenPair], [Identity], [MetricsSnapshot]). Flow orchestration, audit dispatch and metric
// storage live under internal/ and are never exported. Storage backends implement the
// contracts in the store package; revocation backends live in the revocation package.
//
// # What this package must NOT do
//
//   - Persist plaintext refresh tokens. Only their SHA-256 digests reach a store.
//   - Tell callers which part of a credential check failed.
//   - Import any sub-package that re-imports authcore (no import cycles).
//
// # Concurrency contract
//
// Refresh tokens are single use under concurrency: when several callers present the same
// token, exactly one obtains a new pair. Password hashing is bounded by a semaphore so a
// burst of logins cannot starve other requests.
package authcore
