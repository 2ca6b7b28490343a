// Package jwt issues and verifies short-lived HMAC-signed access credentials.
//
// Verification checks the signature before any claim, pins the accepted
// algorithm to the configured one and reports expiry separately from every
// other failure so callers can distinguish the two without inspecting the
// underlying library errors.
package jwt
