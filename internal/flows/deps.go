package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/authcore/jwt"
	"github.com/MrEthical07/authcore/store"
)

// Deps groups flow dependency sets. The root engine builds this once and
// delegates request methods to the matching flow implementation.
type Deps struct {
	Register       RegisterDeps
	Login          LoginDeps
	Refresh        RefreshDeps
	Logout         LogoutDeps
	Authenticate   AuthenticateDeps
	ChangePassword ChangePasswordDeps
}

// Failure classifies flow failures for root-level mapping.
type Failure int

const (
	FailureNone Failure = iota
	FailureMissingFields
	FailureInvalidEmail
	FailureInvalidRole
	FailureInvalidPassword
	FailureConflict
	FailureInvalidCredentials
	FailureInvalidToken
	FailureTokenExpired
	FailureTokenRevoked
	FailureNotFound
	FailureStorage
	FailureInternal
)

func (f Failure) String() string {
	switch f {
	case FailureNone:
		return "none"
	case FailureMissingFields:
		return "missing_fields"
	case FailureInvalidEmail:
		return "invalid_email"
	case FailureInvalidRole:
		return "invalid_role"
	case FailureInvalidPassword:
		return "invalid_password"
	case FailureConflict:
		return "conflict"
	case FailureInvalidCredentials:
		return "invalid_credentials"
	case FailureInvalidToken:
		return "invalid_token"
	case FailureTokenExpired:
		return "token_expired"
	case FailureTokenRevoked:
		return "token_revoked"
	case FailureNotFound:
		return "not_found"
	case FailureStorage:
		return "storage"
	default:
		return "internal"
	}
}

// PasswordHasher is the context-aware hashing surface (see password.Limited).
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, password string, encodedHash string) (bool, error)
}

// TokenIssuer mints access credentials.
type TokenIssuer interface {
	Issue(sub jwt.Subject) (string, time.Time, error)
}

// TokenVerifier checks access credentials.
type TokenVerifier interface {
	Verify(token string) (*jwt.Claims, error)
}

// RevocationRegistry records revoked access credentials.
type RevocationRegistry interface {
	Revoke(ctx context.Context, credential string, until time.Time) error
	IsRevoked(ctx context.Context, credential string) (bool, error)
}

// Issued is a freshly minted credential pair.
type Issued struct {
	AccessToken     string
	AccessExpiresAt time.Time
	RefreshToken    string
}

// IssueDeps is shared by every flow that ends in a new credential pair.
type IssueDeps struct {
	Issuer          TokenIssuer
	Sessions        store.SessionStore
	RefreshTTL      time.Duration
	GenerateRefresh func() (string, error)
	DigestRefresh   func(string) string
}
