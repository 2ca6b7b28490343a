package store

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/authcore/permission"
)

var (
	// ErrNotFound is returned when a lookup matches nothing.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict is returned when a unique username or email is already taken.
	ErrConflict = errors.New("store: conflict")
)

// Identity is a registered principal.
type Identity struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         permission.Role
	CreatedAt    time.Time
}

// RefreshTokenEntry is the persisted form of an issued refresh token. Only
// the digest is kept; ExpiresAt nil means the entry never auto-expires.
type RefreshTokenEntry struct {
	Digest     string
	IdentityID string
	CreatedAt  time.Time
	ExpiresAt  *time.Time
}

// Expired reports whether the entry is past its expiry at now.
func (e RefreshTokenEntry) Expired(now time.Time) bool {
	return e.ExpiresAt != nil && !now.Before(*e.ExpiresAt)
}

// ConsumeStatus is the outcome of SessionStore.Consume.
type ConsumeStatus int

const (
	// ConsumeMissing means no entry matched; it may never have existed or
	// another caller consumed it first.
	ConsumeMissing ConsumeStatus = iota
	// ConsumeExpired means the entry existed but was past expiry. It has
	// been removed.
	ConsumeExpired
	// ConsumeOK means this caller removed a live entry.
	ConsumeOK
)

func (s ConsumeStatus) String() string {
	switch s {
	case ConsumeOK:
		return "consumed"
	case ConsumeExpired:
		return "expired"
	default:
		return "missing"
	}
}

// IdentityStore persists identities.
type IdentityStore interface {
	// Create inserts id. It returns ErrConflict when the username or email
	// is already registered.
	Create(ctx context.Context, id Identity) error
	// ByID returns ErrNotFound when absent.
	ByID(ctx context.Context, id string) (Identity, error)
	// ByLogin matches login against username or (case-folded) email.
	ByLogin(ctx context.Context, login string) (Identity, error)
	// List returns all identities ordered by creation time.
	List(ctx context.Context) ([]Identity, error)
	// UpdatePasswordHash replaces the stored hash.
	UpdatePasswordHash(ctx context.Context, id string, hash string) error
}

// SessionStore persists refresh token digests per identity.
//
// Implementations must make Consume atomic: for a given digest at most one
// concurrent caller observes ConsumeOK.
type SessionStore interface {
	// Add records digest for identityID with the given lifetime and prunes
	// that identity's expired entries in the same write.
	Add(ctx context.Context, identityID, digest string, ttl time.Duration) error
	// Owner returns the identity holding digest, or ErrNotFound.
	Owner(ctx context.Context, digest string) (string, error)
	// Consume removes the entry if present and reports what it found.
	Consume(ctx context.Context, identityID, digest string) (ConsumeStatus, error)
	// Remove deletes digest wherever it is and reports whether an entry
	// existed. Removing an absent digest is not an error.
	Remove(ctx context.Context, digest string) (bool, error)
	// RemoveAll deletes every entry of identityID and returns how many were removed.
	RemoveAll(ctx context.Context, identityID string) (int, error)
	// PruneExpired deletes identityID's expired entries.
	PruneExpired(ctx context.Context, identityID string) (int, error)
	// Entries returns identityID's live entries.
	Entries(ctx context.Context, identityID string) ([]RefreshTokenEntry, error)
}
