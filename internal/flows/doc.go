// Package flows contains the orchestrators behind every Engine operation.
//
// Each flow function (RunRegister, RunLogin, RunRefresh, RunLogout,
// RunAuthenticate, RunChangePassword) accepts a typed dependency struct and
// returns a result carrying either the outcome or a [Failure] kind. The
// root package maps failure kinds to its public errors, metrics and audit
// events.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import authcore (to avoid import cycles).
//   - Perform I/O except through its dependency interfaces.
package flows
