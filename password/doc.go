// Package password hashes and verifies passwords with argon2id (default) or
// bcrypt.
//
// # Output format
//
// Argon2 hashes use the PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Bcrypt hashes use the standard $2a$ modular crypt format. Both schemes
// expose NeedsUpgrade so callers can rehash after a successful login.
//
// # Concurrency
//
// Hashing is CPU bound. [Limited] caps concurrent computations with a
// weighted semaphore and honours context cancellation while waiting.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords.
//   - Import any other authcore package.
//   - Log plaintext passwords.
package password
