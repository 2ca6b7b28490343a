package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/authcore/password"
	"github.com/MrEthical07/authcore/store"
)

// ChangePasswordResult carries failure metadata and how many refresh
// entries were dropped.
type ChangePasswordResult struct {
	Failure         Failure
	Err             error
	SessionsRemoved int
}

// ChangePasswordDeps captures change-password flow dependencies.
type ChangePasswordDeps struct {
	Identities store.IdentityStore
	Sessions   store.SessionStore
	Hasher     PasswordHasher
}

// RunChangePassword verifies the current password, stores the new hash and
// drops every refresh entry of the identity.
func RunChangePassword(ctx context.Context, identityID, oldPassword, newPassword string, deps ChangePasswordDeps) ChangePasswordResult {
	if identityID == "" || oldPassword == "" || newPassword == "" {
		return ChangePasswordResult{Failure: FailureMissingFields}
	}

	id, err := deps.Identities.ByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ChangePasswordResult{Failure: FailureNotFound}
		}
		return ChangePasswordResult{Failure: FailureStorage, Err: err}
	}

	ok, err := deps.Hasher.Verify(ctx, oldPassword, id.PasswordHash)
	if err != nil {
		if errors.Is(err, password.ErrPasswordTooLong) {
			return ChangePasswordResult{Failure: FailureInvalidCredentials}
		}
		return ChangePasswordResult{Failure: FailureInternal, Err: err}
	}
	if !ok {
		return ChangePasswordResult{Failure: FailureInvalidCredentials}
	}

	hash, err := deps.Hasher.Hash(ctx, newPassword)
	if err != nil {
		if errors.Is(err, password.ErrPasswordTooLong) {
			return ChangePasswordResult{Failure: FailureInvalidPassword, Err: err}
		}
		return ChangePasswordResult{Failure: FailureInternal, Err: err}
	}
	if err := deps.Identities.UpdatePasswordHash(ctx, identityID, hash); err != nil {
		return ChangePasswordResult{Failure: FailureStorage, Err: err}
	}

	n, err := deps.Sessions.RemoveAll(ctx, identityID)
	if err != nil {
		return ChangePasswordResult{Failure: FailureStorage, Err: err}
	}
	return ChangePasswordResult{SessionsRemoved: n}
}
