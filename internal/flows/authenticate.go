package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/authcore/jwt"
)

// AuthenticateResult carries verified claims or failure metadata.
type AuthenticateResult struct {
	Failure Failure
	Err     error
	Claims  *jwt.Claims
}

// AuthenticateDeps captures authenticate flow dependencies.
type AuthenticateDeps struct {
	Verifier    TokenVerifier
	Revocations RevocationRegistry
}

// RunAuthenticate checks revocation first, then signature and expiry.
func RunAuthenticate(ctx context.Context, accessToken string, deps AuthenticateDeps) AuthenticateResult {
	if accessToken == "" {
		return AuthenticateResult{Failure: FailureInvalidToken}
	}

	revoked, err := deps.Revocations.IsRevoked(ctx, accessToken)
	if err != nil {
		return AuthenticateResult{Failure: FailureStorage, Err: err}
	}
	if revoked {
		return AuthenticateResult{Failure: FailureTokenRevoked}
	}

	claims, err := deps.Verifier.Verify(accessToken)
	if err != nil {
		if errors.Is(err, jwt.ErrExpired) {
			return AuthenticateResult{Failure: FailureTokenExpired, Err: err}
		}
		return AuthenticateResult{Failure: FailureInvalidToken, Err: err}
	}
	return AuthenticateResult{Claims: claims}
}
