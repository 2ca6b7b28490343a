package authcore

import (
	"context"
	"time"

	"github.com/MrEthical07/authcore/jwt"
	"github.com/MrEthical07/authcore/permission"
	"github.com/MrEthical07/authcore/store"
)

// TokenTypeBearer is the token type reported with every issued pair.
const TokenTypeBearer = "Bearer"

// Identity is a registered user as held by the identity store.
type Identity = store.Identity

// Claims is the verified payload of an access credential.
type Claims = jwt.Claims

// RefreshTokenEntry is one stored refresh session. Only the digest of the
// refresh token is ever persisted.
type RefreshTokenEntry = store.RefreshTokenEntry

// Role is the closed role enum.
type Role = permission.Role

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	// ExpiresIn is the access credential lifetime.
	ExpiresIn time.Duration
	// ExpiresAt is the access credential exp claim.
	ExpiresAt time.Time
}

// RegisterRequest is the input of [Engine.Register]. An empty Role selects
// the default role.
type RegisterRequest struct {
	Username string
	Email    string
	Password string
	Role     string
}

// RevocationRegistry records access credentials revoked before their
// expiry. Implementations live in the revocation package.
type RevocationRegistry interface {
	Revoke(ctx context.Context, credential string, until time.Time) error
	IsRevoked(ctx context.Context, credential string) (bool, error)
}

// PasswordHasher is the context-aware hashing surface used by the Engine.
// [password.Limited] satisfies it.
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, password string, encodedHash string) (bool, error)
}

// Authenticator is the narrow surface consumed by HTTP middleware.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*Claims, error)
}

var _ Authenticator = (*Engine)(nil)
