package flows

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/MrEthical07/authcore/password"
	"github.com/MrEthical07/authcore/permission"
	"github.com/MrEthical07/authcore/store"
)

// RegisterInput is the raw registration request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

// RegisterResult carries the created identity or failure metadata.
type RegisterResult struct {
	Failure  Failure
	Err      error
	Identity store.Identity
}

// RegisterDeps captures register flow dependencies.
type RegisterDeps struct {
	Identities store.IdentityStore
	Hasher     PasswordHasher
	NewID      func() string
	Now        func() time.Time
}

// RunRegister validates input, hashes the password and stores a new identity.
func RunRegister(ctx context.Context, in RegisterInput, deps RegisterDeps) RegisterResult {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if username == "" || email == "" || in.Password == "" {
		return RegisterResult{Failure: FailureMissingFields}
	}
	if !validEmail(email) {
		return RegisterResult{Failure: FailureInvalidEmail}
	}

	role := permission.DefaultRole
	if strings.TrimSpace(in.Role) != "" {
		parsed, err := permission.ParseRole(in.Role)
		if err != nil {
			return RegisterResult{Failure: FailureInvalidRole, Err: err}
		}
		role = parsed
	}

	hash, err := deps.Hasher.Hash(ctx, in.Password)
	if err != nil {
		if errors.Is(err, password.ErrPasswordTooLong) || errors.Is(err, password.ErrEmptyPassword) {
			return RegisterResult{Failure: FailureInvalidPassword, Err: err}
		}
		return RegisterResult{Failure: FailureInternal, Err: err}
	}

	id := store.Identity{
		ID:           deps.NewID(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    deps.Now().UTC(),
	}
	if err := deps.Identities.Create(ctx, id); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return RegisterResult{Failure: FailureConflict, Err: err}
		}
		return RegisterResult{Failure: FailureStorage, Err: err}
	}
	return RegisterResult{Identity: id}
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndexByte(email, '@')
	return at > 0 && strings.Contains(email[at+1:], ".")
}
