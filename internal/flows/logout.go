package flows

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/authcore/store"
)

// LogoutResult reports what a logout touched.
type LogoutResult struct {
	Failure        Failure
	Err            error
	// RefreshRemoved is set only when an entry existed and was deleted.
	RefreshRemoved bool
	AccessRevoked  bool
}

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Sessions      store.SessionStore
	Revocations   RevocationRegistry
	DigestRefresh func(string) string
	// ExpiresAt reads a credential's exp without verifying it.
	ExpiresAt func(string) (time.Time, bool)
	AccessTTL time.Duration
	Now       func() time.Time
}

// RunLogout removes the refresh entry and revokes the access credential.
// The two steps are independent; both are attempted and both are
// idempotent.
func RunLogout(ctx context.Context, refreshToken, accessToken string, deps LogoutDeps) LogoutResult {
	var (
		res  LogoutResult
		errs []error
	)

	if refreshToken = strings.TrimSpace(refreshToken); refreshToken != "" {
		removed, err := deps.Sessions.Remove(ctx, deps.DigestRefresh(refreshToken))
		if err != nil {
			errs = append(errs, err)
		}
		res.RefreshRemoved = removed
	}

	if accessToken = strings.TrimSpace(accessToken); accessToken != "" {
		now := deps.Now()
		until, ok := deps.ExpiresAt(accessToken)
		if !ok {
			until = now.Add(deps.AccessTTL)
		}
		if until.After(now) {
			if err := deps.Revocations.Revoke(ctx, accessToken, until); err != nil {
				errs = append(errs, err)
			} else {
				res.AccessRevoked = true
			}
		}
	}

	if len(errs) > 0 {
		res.Failure = FailureStorage
		res.Err = errors.Join(errs...)
	}
	return res
}
