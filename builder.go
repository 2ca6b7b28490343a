package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MrEthical07/authcore/internal"
	"github.com/MrEthical07/authcore/internal/audit"
	"github.com/MrEthical07/authcore/internal/flows"
	"github.com/MrEthical07/authcore/internal/metrics"
	"github.com/MrEthical07/authcore/jwt"
	"github.com/MrEthical07/authcore/password"
	"github.com/MrEthical07/authcore/refresh"
	"github.com/MrEthical07/authcore/revocation"
	"github.com/MrEthical07/authcore/store"
	"github.com/MrEthical07/authcore/store/memory"
)

// Builder assembles an [Engine]. A Builder is single use.
type Builder struct {
	config Config

	identities  store.IdentityStore
	sessions    store.SessionStore
	revocations RevocationRegistry
	hasher      password.Hasher

	logger    *zap.Logger
	auditSink AuditSink
	now       func() time.Time
	newID     func() string

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithSecret sets the access credential signing secret.
func (b *Builder) WithSecret(secret []byte) *Builder {
	b.config.JWT.Secret = cloneBytes(secret)
	return b
}

// WithIdentityStore sets the identity backend. Without it, and without a
// session store, Build falls back to a process-local memory store.
func (b *Builder) WithIdentityStore(s store.IdentityStore) *Builder {
	b.identities = s
	return b
}

func (b *Builder) WithSessionStore(s store.SessionStore) *Builder {
	b.sessions = s
	return b
}

// WithStore uses one backend for identities and sessions.
func (b *Builder) WithStore(s interface {
	store.IdentityStore
	store.SessionStore
}) *Builder {
	b.identities = s
	b.sessions = s
	return b
}

// WithRevocationRegistry replaces the default in-memory registry, e.g. with
// [revocation.Redis] for multi-instance deployments.
func (b *Builder) WithRevocationRegistry(r RevocationRegistry) *Builder {
	b.revocations = r
	return b
}

// WithPasswordHasher injects a hasher. The Engine still bounds its
// concurrency with Config.Password.MaxConcurrent.
func (b *Builder) WithPasswordHasher(h password.Hasher) *Builder {
	b.hasher = h
	return b
}

func (b *Builder) WithLogger(log *zap.Logger) *Builder {
	b.logger = log
	return b
}

// WithAuditSink sets the sink and enables audit dispatch.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = sink != nil
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// WithClock overrides time.Now for every time-dependent decision.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithIDGenerator overrides identity id generation (uuid v4 by default).
func (b *Builder) WithIDGenerator(fn func() string) *Builder {
	b.newID = fn
	return b
}

// Build validates the configuration and wires the Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	now := b.now
	if now == nil {
		now = time.Now
	}
	newID := b.newID
	if newID == nil {
		newID = uuid.NewString
	}
	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// -------- STORES --------
	identities, sessions := b.identities, b.sessions
	if identities == nil || sessions == nil {
		mem := memory.New(now)
		if identities == nil {
			identities = mem
		}
		if sessions == nil {
			sessions = mem
		}
	}

	revocations := b.revocations
	if revocations == nil {
		revocations = revocation.NewMemory(cfg.JWT.AccessTTL, cfg.Revocation.MaxEntries, now)
	}

	// -------- CREDENTIALS --------
	jm, err := jwt.NewManager(jwt.Config{
		Secret:        cloneBytes(cfg.JWT.Secret),
		AccessTTL:     cfg.JWT.AccessTTL,
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		Issuer:        cfg.JWT.Issuer,
		Now:           now,
	})
	if err != nil {
		return nil, err
	}

	inner := b.hasher
	if inner == nil {
		inner, err = password.New(password.Algorithm(cfg.Password.Algorithm), cfg.Password.WorkFactor)
		if err != nil {
			return nil, err
		}
	}
	hasher := password.NewLimited(inner, cfg.Password.MaxConcurrent)

	// Unknown logins are verified against this so both failure paths cost
	// one hash.
	dummyPlain, err := internal.RandomBytes(16)
	if err != nil {
		return nil, err
	}
	dummyHash, err := hasher.Hash(context.Background(), string(dummyPlain))
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}

	engine := &Engine{
		config:      cfg,
		identities:  identities,
		sessions:    sessions,
		revocations: revocations,
		jwtManager:  jm,
		log:         logger.Named("authcore"),
		now:         now,
		metrics:     metrics.New(metrics.Config(cfg.Metrics)),
		audit: audit.NewDispatcher(audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
			Logger:     logger.Named("audit"),
			Now:        now,
		}, b.auditSink),
	}

	issue := flows.IssueDeps{
		Issuer:          jm,
		Sessions:        sessions,
		RefreshTTL:      cfg.JWT.RefreshTTL,
		GenerateRefresh: refresh.Generate,
		DigestRefresh:   refresh.Digest,
	}
	engine.flowDeps = flows.Deps{
		Register: flows.RegisterDeps{
			Identities: identities,
			Hasher:     hasher,
			NewID:      newID,
			Now:        now,
		},
		Login: flows.LoginDeps{
			Identities: identities,
			Hasher:     hasher,
			DummyHash:  dummyHash,
			Issue:      issue,
		},
		Refresh: flows.RefreshDeps{
			Identities: identities,
			ValidShape: refresh.Valid,
			Issue:      issue,
		},
		Logout: flows.LogoutDeps{
			Sessions:      sessions,
			Revocations:   revocations,
			DigestRefresh: refresh.Digest,
			ExpiresAt:     jwt.ExpiresAt,
			AccessTTL:     cfg.JWT.AccessTTL,
			Now:           now,
		},
		Authenticate: flows.AuthenticateDeps{
			Verifier:    jm,
			Revocations: revocations,
		},
		ChangePassword: flows.ChangePasswordDeps{
			Identities: identities,
			Sessions:   sessions,
			Hasher:     hasher,
		},
	}

	b.built = true

	return engine, nil
}
