package authcore

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "defaults with secret",
			mutate:    func(c *Config) {},
			wantValid: true,
		},
		{
			name:      "missing secret",
			mutate:    func(c *Config) { c.JWT.Secret = nil },
			wantValid: false,
		},
		{
			name:      "zero access ttl",
			mutate:    func(c *Config) { c.JWT.AccessTTL = 0 },
			wantValid: false,
		},
		{
			name:      "negative refresh ttl",
			mutate:    func(c *Config) { c.JWT.RefreshTTL = -time.Second },
			wantValid: false,
		},
		{
			name:      "hs512 accepted",
			mutate:    func(c *Config) { c.JWT.SigningMethod = "HS512" },
			wantValid: true,
		},
		{
			name:      "asymmetric signing rejected",
			mutate:    func(c *Config) { c.JWT.SigningMethod = "ed25519" },
			wantValid: false,
		},
		{
			name:      "bcrypt accepted",
			mutate:    func(c *Config) { c.Password.Algorithm = "bcrypt" },
			wantValid: true,
		},
		{
			name:      "unknown hasher rejected",
			mutate:    func(c *Config) { c.Password.Algorithm = "md5" },
			wantValid: false,
		},
		{
			name:      "negative revocation size",
			mutate:    func(c *Config) { c.Revocation.MaxEntries = -1 },
			wantValid: false,
		},
		{
			name: "audit without buffer",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = 0
			},
			wantValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.JWT.Secret = []byte("secret")
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tt.wantValid && err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestWithConfigClonesSecret(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JWT.Secret = []byte("secret")
	b := New().WithConfig(cfg)
	cfg.JWT.Secret[0] = 'X'
	if string(b.config.JWT.Secret) != "secret" {
		t.Fatal("builder must not alias the caller's secret")
	}
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{ErrMissingFields, KindValidation},
		{ErrIdentityExists, KindConflict},
		{ErrInvalidCredentials, KindAuthentication},
		{ErrTokenRevoked, KindAuthentication},
		{ErrForbidden, KindAuthorization},
		{ErrIdentityNotFound, KindNotFound},
		{fmt.Errorf("%w: db down", ErrInternal), KindInternal},
		{errors.New("other"), KindInternal},
		{fmt.Errorf("wrapped: %w", ErrInvalidToken), KindAuthentication},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Fatalf("%v: expected %s, got %s", tc.err, tc.want, got)
		}
	}
}
