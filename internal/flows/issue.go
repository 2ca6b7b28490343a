package flows

import (
	"context"

	"github.com/MrEthical07/authcore/jwt"
	"github.com/MrEthical07/authcore/store"
)

// issuePair signs an access credential for id and records a new refresh
// entry. The failure kind distinguishes storage trouble from signing
// trouble.
func issuePair(ctx context.Context, id store.Identity, deps IssueDeps) (Issued, Failure, error) {
	access, exp, err := deps.Issuer.Issue(jwt.Subject{
		ID:       id.ID,
		Username: id.Username,
		Role:     string(id.Role),
	})
	if err != nil {
		return Issued{}, FailureInternal, err
	}

	plain, err := deps.GenerateRefresh()
	if err != nil {
		return Issued{}, FailureInternal, err
	}
	if err := deps.Sessions.Add(ctx, id.ID, deps.DigestRefresh(plain), deps.RefreshTTL); err != nil {
		return Issued{}, FailureStorage, err
	}

	return Issued{AccessToken: access, AccessExpiresAt: exp, RefreshToken: plain}, FailureNone, nil
}
