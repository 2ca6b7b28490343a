package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/MrEthical07/authcore/internal/audit"
	"github.com/MrEthical07/authcore/internal/flows"
	"github.com/MrEthical07/authcore/internal/metrics"
	"github.com/MrEthical07/authcore/jwt"
	"github.com/MrEthical07/authcore/store"
)

// Engine issues, rotates, revokes and verifies credentials. Build one with
// [New] and [Builder.Build]; it is safe for concurrent use.
type Engine struct {
	config      Config
	identities  store.IdentityStore
	sessions    store.SessionStore
	revocations RevocationRegistry
	jwtManager  *jwt.Manager
	log         *zap.Logger
	now         func() time.Time
	metrics     *metrics.Metrics
	audit       *audit.Dispatcher
	flowDeps    flows.Deps
}

// Close drains the audit dispatcher. Stores are owned by the caller.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were dropped under
// backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// AccessTTL is the lifetime of every issued access credential.
func (e *Engine) AccessTTL() time.Duration {
	if e == nil {
		return 0
	}
	return e.config.JWT.AccessTTL
}

// RefreshTTL is the lifetime of every issued refresh token.
func (e *Engine) RefreshTTL() time.Duration {
	if e == nil {
		return 0
	}
	return e.config.JWT.RefreshTTL
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) observe(id MetricID, start time.Time) {
	if e == nil || !e.metrics.LatencyEnabled() {
		return
	}
	e.metrics.Observe(id, time.Since(start))
}

// Register creates an identity with a hashed password. An empty role
// defaults to user.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (Identity, error) {
	if e == nil {
		return Identity{}, ErrEngineNotReady
	}

	res := flows.RunRegister(ctx, flows.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	}, e.flowDeps.Register)
	if res.Failure != flows.FailureNone {
		err := e.failureError("register", res.Failure, res.Err)
		switch res.Failure {
		case flows.FailureConflict:
			e.metricInc(MetricRegisterConflict)
		default:
			e.metricInc(MetricRegisterRejected)
		}
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", err, func() map[string]string {
			return map[string]string{"username": req.Username}
		})
		return Identity{}, err
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, res.Identity.ID, nil, func() map[string]string {
		return map[string]string{"role": string(res.Identity.Role)}
	})
	return res.Identity, nil
}

// Login checks credentials and issues a new token pair. Unknown logins and
// wrong passwords both return ErrInvalidCredentials.
func (e *Engine) Login(ctx context.Context, login, password string) (TokenPair, error) {
	if e == nil {
		return TokenPair{}, ErrEngineNotReady
	}
	start := time.Now()
	defer e.observe(MetricLoginLatency, start)

	res := flows.RunLogin(ctx, login, password, e.flowDeps.Login)
	if res.Failure != flows.FailureNone {
		err := e.failureError("login", res.Failure, res.Err)
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, res.Identity.ID, err, func() map[string]string {
			return map[string]string{"identifier": login}
		})
		return TokenPair{}, err
	}

	e.metricInc(MetricLoginSuccess)
	e.metricInc(MetricSessionCreated)
	e.emitAudit(ctx, auditEventLoginSuccess, true, res.Identity.ID, nil, nil)
	return e.pair(res.Issued), nil
}

// Refresh consumes refreshToken and issues a new pair. A refresh token is
// accepted at most once, also under concurrent use.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if e == nil {
		return TokenPair{}, ErrEngineNotReady
	}

	res := flows.RunRefresh(ctx, refreshToken, e.flowDeps.Refresh)
	if res.Failure != flows.FailureNone {
		err := e.failureError("refresh", res.Failure, res.Err)
		if res.Failure == flows.FailureTokenExpired {
			e.metricInc(MetricRefreshExpired)
		}
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, res.IdentityID, err, nil)
		return TokenPair{}, err
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, res.IdentityID, nil, nil)
	return e.pair(res.Issued), nil
}

// Logout removes the refresh session and revokes the access credential
// until its expiry. Either token may be empty. Logging out twice is not an
// error; only storage failures are.
func (e *Engine) Logout(ctx context.Context, refreshToken, accessToken string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	res := flows.RunLogout(ctx, refreshToken, accessToken, e.flowDeps.Logout)
	if res.RefreshRemoved {
		e.metricInc(MetricSessionInvalidated)
	}
	if res.AccessRevoked {
		e.metricInc(MetricAccessRevoked)
	}
	if res.Failure != flows.FailureNone {
		err := e.failureError("logout", res.Failure, res.Err)
		e.emitAudit(ctx, auditEventLogout, false, "", err, nil)
		return err
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, "", nil, func() map[string]string {
		return map[string]string{
			"refresh_removed": boolString(res.RefreshRemoved),
			"access_revoked":  boolString(res.AccessRevoked),
		}
	})
	return nil
}

// Authenticate verifies an access credential. Revocation is checked first.
// Failures are ErrTokenRevoked, ErrTokenExpired or ErrUnauthenticated.
func (e *Engine) Authenticate(ctx context.Context, accessToken string) (*Claims, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	start := time.Now()
	defer e.observe(MetricAuthenticateLatency, start)

	res := flows.RunAuthenticate(ctx, accessToken, e.flowDeps.Authenticate)
	switch res.Failure {
	case flows.FailureNone:
		e.metricInc(MetricAuthenticateSuccess)
		return res.Claims, nil
	case flows.FailureTokenRevoked:
		e.metricInc(MetricAuthenticateRevoked)
		e.emitAudit(ctx, auditEventRevokedTokenUsed, false, "", ErrTokenRevoked, nil)
		return nil, ErrTokenRevoked
	case flows.FailureInvalidToken:
		e.metricInc(MetricAuthenticateFailure)
		return nil, ErrUnauthenticated
	default:
		e.metricInc(MetricAuthenticateFailure)
		return nil, e.failureError("authenticate", res.Failure, res.Err)
	}
}

// ChangePassword replaces the password of identityID after checking the
// current one, then drops every refresh session of that identity.
func (e *Engine) ChangePassword(ctx context.Context, identityID, oldPassword, newPassword string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	res := flows.RunChangePassword(ctx, identityID, oldPassword, newPassword, e.flowDeps.ChangePassword)
	if res.Failure != flows.FailureNone {
		err := e.failureError("change_password", res.Failure, res.Err)
		if res.Failure == flows.FailureInvalidCredentials {
			e.metricInc(MetricPasswordChangeInvalidOld)
		}
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, identityID, err, nil)
		return err
	}

	e.metricInc(MetricPasswordChangeSuccess)
	for i := 0; i < res.SessionsRemoved; i++ {
		e.metricInc(MetricSessionInvalidated)
	}
	e.emitAudit(ctx, auditEventPasswordChangeSuccess, true, identityID, nil, func() map[string]string {
		return map[string]string{"sessions_removed": fmt.Sprint(res.SessionsRemoved)}
	})
	return nil
}

// Identity returns the identity with id.
func (e *Engine) Identity(ctx context.Context, id string) (Identity, error) {
	if e == nil {
		return Identity{}, ErrEngineNotReady
	}
	out, err := e.identities.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Identity{}, ErrIdentityNotFound
		}
		return Identity{}, e.internalError("identity", err)
	}
	return out, nil
}

// Identities lists every identity ordered by creation time.
func (e *Engine) Identities(ctx context.Context) ([]Identity, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	out, err := e.identities.List(ctx)
	if err != nil {
		return nil, e.internalError("identities", err)
	}
	return out, nil
}

// Sessions lists the unexpired refresh sessions of identityID.
func (e *Engine) Sessions(ctx context.Context, identityID string) ([]RefreshTokenEntry, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	entries, err := e.sessions.Entries(ctx, identityID)
	if err != nil {
		return nil, e.internalError("sessions", err)
	}

	now := e.now()
	active := entries[:0]
	for _, entry := range entries {
		if !entry.Expired(now) {
			active = append(active, entry)
		}
	}
	return active, nil
}

func (e *Engine) pair(issued flows.Issued) TokenPair {
	return TokenPair{
		AccessToken:  issued.AccessToken,
		RefreshToken: issued.RefreshToken,
		TokenType:    TokenTypeBearer,
		ExpiresIn:    e.config.JWT.AccessTTL,
		ExpiresAt:    issued.AccessExpiresAt,
	}
}

func (e *Engine) failureError(op string, f flows.Failure, cause error) error {
	switch f {
	case flows.FailureMissingFields:
		return ErrMissingFields
	case flows.FailureInvalidEmail:
		return ErrInvalidEmail
	case flows.FailureInvalidRole:
		return ErrInvalidRole
	case flows.FailureInvalidPassword:
		return ErrInvalidPassword
	case flows.FailureConflict:
		return ErrIdentityExists
	case flows.FailureInvalidCredentials:
		return ErrInvalidCredentials
	case flows.FailureInvalidToken:
		return ErrInvalidToken
	case flows.FailureTokenExpired:
		return ErrTokenExpired
	case flows.FailureTokenRevoked:
		return ErrTokenRevoked
	case flows.FailureNotFound:
		return ErrIdentityNotFound
	default:
		if cause == nil {
			cause = errors.New(f.String())
		}
		return e.internalError(op, cause)
	}
}

func (e *Engine) internalError(op string, cause error) error {
	e.metricInc(MetricStorageFailure)
	e.log.Error("operation failed", zap.String("op", op), zap.Error(cause))
	return fmt.Errorf("%w: %v", ErrInternal, cause)
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
