// Package permission defines the closed role enumeration and the role sets
// used by authorization gates.
//
// # Normalization
//
// Role strings from storage, claims or configuration are trimmed and
// case-folded exactly once, in [ParseRole]. A [RoleSet] built from
// configuration uses the same parser, so " Admin " and "admin" always match.
//
// # Representation
//
// A RoleSet is a [Mask] with one bit per declared role, so sets are
// comparable values and membership checks do not allocate.
//
// # What this package must NOT do
//
//   - Access storage or the network.
//   - Import authcore, jwt or any store package.
package permission
