package password

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultMaxPasswordBytes bounds the work an attacker can force per request.
const DefaultMaxPasswordBytes = 1024

var (
	// ErrEmptyPassword is returned when hashing an empty password.
	ErrEmptyPassword = errors.New("password is empty")
	// ErrPasswordTooLong is returned for inputs above the configured limit.
	ErrPasswordTooLong = errors.New("password exceeds maximum length")
)

// Hasher hashes and verifies passwords. Verify reports (false, nil) for a
// well-formed hash that does not match and an error for malformed hashes.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password string, encodedHash string) (bool, error)
}

// Algorithm names a supported hashing scheme.
type Algorithm string

const (
	AlgorithmArgon2id Algorithm = "argon2id"
	AlgorithmBcrypt   Algorithm = "bcrypt"
)

// New builds a Hasher for algo. workFactor is the argon2 time cost or the
// bcrypt cost; zero selects the scheme default.
func New(algo Algorithm, workFactor int) (Hasher, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(string(algo)))) {
	case AlgorithmArgon2id, "":
		cfg := DefaultArgon2Config()
		if workFactor > 0 {
			cfg.Time = uint32(workFactor)
		}
		return NewArgon2(cfg)
	case AlgorithmBcrypt:
		return NewBcrypt(workFactor)
	default:
		return nil, fmt.Errorf("unsupported password algorithm %q", algo)
	}
}

func checkLength(password string, max int) error {
	if password == "" {
		return ErrEmptyPassword
	}
	if len(password) > max {
		return ErrPasswordTooLong
	}
	return nil
}
