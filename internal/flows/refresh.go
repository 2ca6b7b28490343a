package flows

import (
	"context"
	"errors"
	"strings"

	"github.com/MrEthical07/authcore/store"
)

// RefreshResult carries the rotated pair or failure metadata.
type RefreshResult struct {
	Failure    Failure
	Err        error
	IdentityID string
	Identity   store.Identity
	Issued     Issued
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	Identities store.IdentityStore
	// ValidShape rejects tokens that could never have been generated.
	ValidShape func(string) bool
	Issue      IssueDeps
}

// RunRefresh consumes the presented refresh token and issues a new pair.
// The old token is unusable whether or not issuance succeeds.
func RunRefresh(ctx context.Context, refreshToken string, deps RefreshDeps) RefreshResult {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return RefreshResult{Failure: FailureMissingFields}
	}
	if deps.ValidShape != nil && !deps.ValidShape(refreshToken) {
		return RefreshResult{Failure: FailureInvalidToken}
	}

	sessions := deps.Issue.Sessions
	digest := deps.Issue.DigestRefresh(refreshToken)

	owner, err := sessions.Owner(ctx, digest)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return RefreshResult{Failure: FailureInvalidToken}
		}
		return RefreshResult{Failure: FailureStorage, Err: err}
	}

	status, err := sessions.Consume(ctx, owner, digest)
	if err != nil {
		return RefreshResult{Failure: FailureStorage, Err: err, IdentityID: owner}
	}
	switch status {
	case store.ConsumeMissing:
		return RefreshResult{Failure: FailureInvalidToken, IdentityID: owner}
	case store.ConsumeExpired:
		return RefreshResult{Failure: FailureTokenExpired, IdentityID: owner}
	}

	id, err := deps.Identities.ByID(ctx, owner)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return RefreshResult{Failure: FailureInvalidToken, IdentityID: owner}
		}
		return RefreshResult{Failure: FailureStorage, Err: err, IdentityID: owner}
	}

	issued, failure, err := issuePair(ctx, id, deps.Issue)
	if err != nil {
		return RefreshResult{Failure: failure, Err: err, IdentityID: owner, Identity: id}
	}
	return RefreshResult{IdentityID: owner, Identity: id, Issued: issued}
}
