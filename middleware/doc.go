// Package middleware exposes net/http adapters for credential checks and
// role gating built on top of authcore.Engine.
//
// # Gates
//
//   - [RequireAuth]: verifies the bearer credential through an [authcore.Authenticator]
//     and injects the claims into the request context.
//   - [RequireRoles]: admits requests whose claims carry a role in a [permission.RoleSet].
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT implement
// authentication logic itself; credential decisions are delegated to Engine.Authenticate.
//
// # What this package must NOT do
//
//   - Parse or create access credentials directly.
//   - Access stores or the revocation registry.
//   - Reveal why a credential was rejected beyond the fixed messages.
package middleware
