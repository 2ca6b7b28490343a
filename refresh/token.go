package refresh

import (
	"encoding/hex"

	"github.com/MrEthical07/authcore/internal"
)

const (
	// RawSize is the number of random bytes in a token.
	RawSize = 64
	// EncodedLen is the length of the hex form returned by Generate.
	EncodedLen = RawSize * 2
	// DigestLen is the length of the hex digest returned by Digest.
	DigestLen = 64
)

// Generate returns a fresh opaque refresh token.
func Generate() (string, error) {
	raw, err := internal.RandomBytes(RawSize)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

// Digest returns the storage key for token. Equal inputs always yield
// equal digests.
func Digest(token string) string {
	return internal.SHA256Hex(token)
}

// Valid reports whether token has the shape produced by Generate.
func Valid(token string) bool {
	if len(token) != EncodedLen {
		return false
	}
	for i := 0; i < len(token); i++ {
		c := token[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
