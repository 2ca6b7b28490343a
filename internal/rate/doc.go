// Package rate implements Redis fixed-window throttles for the login and
// refresh endpoints.
//
// # Window semantics
//
// INCR plus EXPIRE on the first hit of a window. Key layout under the
// configured prefix:
//   - rl:login:<sha256(login)>  failed logins per login name
//   - rl:login-ip:<ip>          failed logins per client IP
//   - rl:refresh-ip:<ip>        refresh calls per client IP
package rate
