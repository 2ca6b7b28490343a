package flows

import (
	"context"
	"errors"
	"strings"

	"github.com/MrEthical07/authcore/password"
	"github.com/MrEthical07/authcore/store"
)

// LoginResult carries the issued pair or failure metadata.
type LoginResult struct {
	Failure  Failure
	Err      error
	Identity store.Identity
	Issued   Issued
}

// LoginDeps captures login flow dependencies.
type LoginDeps struct {
	Identities store.IdentityStore
	Hasher     PasswordHasher
	// DummyHash is verified against when the identity does not exist so
	// that both failure paths cost one hash computation.
	DummyHash string
	Issue     IssueDeps
}

// RunLogin checks credentials and issues a new credential pair.
func RunLogin(ctx context.Context, login, secret string, deps LoginDeps) LoginResult {
	login = strings.TrimSpace(login)
	if login == "" || secret == "" {
		return LoginResult{Failure: FailureMissingFields}
	}

	id, err := deps.Identities.ByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			if deps.DummyHash != "" {
				_, _ = deps.Hasher.Verify(ctx, secret, deps.DummyHash)
			}
			return LoginResult{Failure: FailureInvalidCredentials}
		}
		return LoginResult{Failure: FailureStorage, Err: err}
	}

	ok, err := deps.Hasher.Verify(ctx, secret, id.PasswordHash)
	if err != nil {
		// An over-long password is a wrong password; the unknown-login path
		// above reports it the same way.
		if errors.Is(err, password.ErrPasswordTooLong) {
			return LoginResult{Failure: FailureInvalidCredentials, Identity: id}
		}
		return LoginResult{Failure: FailureInternal, Err: err, Identity: id}
	}
	if !ok {
		return LoginResult{Failure: FailureInvalidCredentials, Identity: id}
	}

	issued, failure, err := issuePair(ctx, id, deps.Issue)
	if err != nil {
		return LoginResult{Failure: failure, Err: err, Identity: id}
	}
	return LoginResult{Identity: id, Issued: issued}
}
