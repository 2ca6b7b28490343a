// Package refresh generates and digests opaque refresh tokens.
//
// # Token format
//
// 64 bytes from crypto/rand, hex encoded (128 lowercase characters). Tokens
// carry no structure beyond their length. Stores never see the plaintext;
// they index entries by Digest, the hex SHA-256 of the token.
//
// # Architecture boundaries
//
// This package owns generation, digesting and structural validation.
// Rotation, expiry and single-use consumption are handled by the Engine and
// the session stores.
//
// # What this package must NOT do
//
//   - Perform I/O.
//   - Import authcore, jwt or any store package.
package refresh
