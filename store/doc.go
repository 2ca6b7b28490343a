// Package store defines the persistence contracts for identities and refresh
// token entries, plus the errors and value types shared by every backend.
//
// # Backends
//
//   - store/memory: process-local maps guarded by per-identity locks
//   - store/sqlstore: database/sql over Postgres (pgx) or SQLite (modernc)
//   - session: Redis, for refresh entries only
//
// # What this package must NOT do
//
//   - Import authcore, jwt or any backend.
//   - See plaintext refresh tokens.
package store
