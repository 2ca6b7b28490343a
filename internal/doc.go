// Package internal contains helpers that are private to authcore, such as
// secure random generation and digesting.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - config: environment-driven server configuration
//   - flows: flow orchestrators for every Engine operation
//   - httpapi: chi router and JSON handlers
//   - logging: zap logger construction
//   - metrics: lock-free counters and latency histograms
//   - rate: Redis-backed request throttling for login and refresh
//
// # What this package must NOT do
//
//   - Export types that appear in the public authcore API.
//   - Be imported by any package outside the authcore module.
package internal
