package authcore

import (
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/authcore/jwt"
	"github.com/MrEthical07/authcore/password"
)

// Config holds Engine tuning. Obtain defaults through [New] and override
// with [Builder.WithConfig].
type Config struct {
	JWT        JWTConfig
	Password   PasswordConfig
	Revocation RevocationConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig controls access credentials and refresh lifetime.
type JWTConfig struct {
	Secret        []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod string // "hs256" (default), "hs384", "hs512"
	Issuer        string
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig selects the adaptive hash used when no hasher is injected.
type PasswordConfig struct {
	Algorithm string // "argon2id" (default) or "bcrypt"
	// WorkFactor is the argon2 time cost or bcrypt cost. Zero keeps the
	// scheme default.
	WorkFactor int
	// MaxConcurrent caps parallel hash computations. Zero means
	// 2 x GOMAXPROCS.
	MaxConcurrent int
}

/*
====================================
REVOCATION CONFIG
====================================
*/

// RevocationConfig sizes the default in-memory registry.
type RevocationConfig struct {
	// MaxEntries bounds the in-memory registry. Zero means unbounded.
	MaxEntries int
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    30 * 24 * time.Hour,
			SigningMethod: string(jwt.MethodHS256),
		},
		Password: PasswordConfig{
			Algorithm: string(password.AlgorithmArgon2id),
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

// DefaultConfig returns the configuration [New] starts from.
func DefaultConfig() Config {
	return defaultConfig()
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate rejects configurations the Engine cannot run with.
func (c *Config) Validate() error {
	if len(c.JWT.Secret) == 0 {
		return errors.New("JWT Secret is required")
	}
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT RefreshTTL must be > 0")
	}
	switch jwt.SigningMethod(strings.ToLower(c.JWT.SigningMethod)) {
	case jwt.MethodHS256, jwt.MethodHS384, jwt.MethodHS512:
	default:
		return errors.New("unsupported JWT signing method")
	}

	switch password.Algorithm(strings.ToLower(c.Password.Algorithm)) {
	case password.AlgorithmArgon2id, password.AlgorithmBcrypt, "":
	default:
		return errors.New("unsupported password algorithm")
	}
	if c.Password.WorkFactor < 0 {
		return errors.New("Password WorkFactor must be >= 0")
	}
	if c.Password.MaxConcurrent < 0 {
		return errors.New("Password MaxConcurrent must be >= 0")
	}

	if c.Revocation.MaxEntries < 0 {
		return errors.New("Revocation MaxEntries must be >= 0")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}
	return nil
}
