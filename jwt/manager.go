package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SigningMethod selects the HMAC algorithm used to sign access credentials.
type SigningMethod string

const (
	// MethodHS256 signs with HMAC-SHA256.
	MethodHS256 SigningMethod = "hs256"
	// MethodHS384 signs with HMAC-SHA384.
	MethodHS384 SigningMethod = "hs384"
	// MethodHS512 signs with HMAC-SHA512.
	MethodHS512 SigningMethod = "hs512"
)

var (
	// ErrInvalid is returned for malformed tokens, bad signatures, unexpected
	// algorithms and tokens missing a subject.
	ErrInvalid = errors.New("access token invalid")
	// ErrExpired is returned once the current time reaches the exp claim.
	ErrExpired = errors.New("access token expired")
)

// Config defines how a Manager issues and verifies access credentials.
//
// Config instances are intended to be configured during initialization and then treated as immutable.
type Config struct {
	Secret        []byte
	AccessTTL     time.Duration
	SigningMethod SigningMethod
	Issuer        string
	// Now overrides the clock. Nil means time.Now.
	Now func() time.Time
}

// Subject is the identity snapshot embedded into an access credential.
type Subject struct {
	ID       string
	Username string
	Role     string
}

// Claims is the decoded payload of a verified access credential.
type Claims struct {
	Role     string `json:"role"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// Manager issues and verifies HMAC-signed access credentials.
//
// Manager is safe for concurrent use.
type Manager struct {
	config Config
	method jwt.SigningMethod
}

// NewManager validates cfg and returns a ready Manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("access secret is required")
	}
	if cfg.AccessTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.SigningMethod == "" {
		cfg.SigningMethod = MethodHS256
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	cfg.Issuer = strings.TrimSpace(cfg.Issuer)

	var method jwt.SigningMethod
	switch SigningMethod(strings.ToLower(string(cfg.SigningMethod))) {
	case MethodHS256:
		method = jwt.SigningMethodHS256
	case MethodHS384:
		method = jwt.SigningMethodHS384
	case MethodHS512:
		method = jwt.SigningMethodHS512
	default:
		return nil, errors.New("unsupported signing method")
	}

	return &Manager{config: cfg, method: method}, nil
}

// TTL returns the configured access credential lifetime.
func (j *Manager) TTL() time.Duration {
	return j.config.AccessTTL
}

// Issue signs a new access credential for sub. The returned time is the
// credential's exp.
func (j *Manager) Issue(sub Subject) (string, time.Time, error) {
	if strings.TrimSpace(sub.ID) == "" {
		return "", time.Time{}, errors.New("subject id is required")
	}

	now := j.config.Now()
	exp := now.Add(j.config.AccessTTL)
	claims := Claims{
		Role:     sub.Role,
		Username: sub.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub.ID,
			Issuer:    j.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}

	token, err := jwt.NewWithClaims(j.method, claims).SignedString(j.config.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	// exp is encoded at second precision.
	return token, exp.Truncate(time.Second), nil
}

// Verify checks the signature and expiry of tokenStr. It returns ErrExpired
// when the credential is past exp and ErrInvalid for every other failure.
func (j *Manager) Verify(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrInvalid
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{j.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.config.Now),
	}
	if j.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(j.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != j.method.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return j.config.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) && !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalid
	}
	return claims, nil
}

// ExpiresAt reads the exp claim without verifying the signature. It is only
// suitable for bounding how long a revocation entry must be retained.
func ExpiresAt(tokenStr string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
