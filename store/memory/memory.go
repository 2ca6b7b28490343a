// Package memory is a process-local implementation of the store contracts.
// It is the default backend for tests and single-instance deployments.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/MrEthical07/authcore/store"
)

type bucket struct {
	mu      sync.Mutex
	entries map[string]store.RefreshTokenEntry
}

// Store keeps identities and refresh entries in maps. Refresh entries are
// serialised per identity so Consume cannot race with Add or another Consume.
type Store struct {
	now func() time.Time

	idMu       sync.RWMutex
	byID       map[string]store.Identity
	byUsername map[string]string
	byEmail    map[string]string

	bucketsMu sync.Mutex
	buckets   map[string]*bucket

	ownersMu sync.RWMutex
	owners   map[string]string
}

// New returns an empty Store. now may be nil.
func New(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		now:        now,
		byID:       make(map[string]store.Identity),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
		buckets:    make(map[string]*bucket),
		owners:     make(map[string]string),
	}
}

var (
	_ store.IdentityStore = (*Store)(nil)
	_ store.SessionStore  = (*Store)(nil)
)

func (s *Store) Create(ctx context.Context, id store.Identity) error {
	email := strings.ToLower(id.Email)

	s.idMu.Lock()
	defer s.idMu.Unlock()

	if _, ok := s.byUsername[id.Username]; ok {
		return store.ErrConflict
	}
	if _, ok := s.byEmail[email]; ok {
		return store.ErrConflict
	}
	if _, ok := s.byID[id.ID]; ok {
		return store.ErrConflict
	}
	s.byID[id.ID] = id
	s.byUsername[id.Username] = id.ID
	s.byEmail[email] = id.ID
	return nil
}

func (s *Store) ByID(ctx context.Context, id string) (store.Identity, error) {
	s.idMu.RLock()
	defer s.idMu.RUnlock()

	out, ok := s.byID[id]
	if !ok {
		return store.Identity{}, store.ErrNotFound
	}
	return out, nil
}

func (s *Store) ByLogin(ctx context.Context, login string) (store.Identity, error) {
	s.idMu.RLock()
	defer s.idMu.RUnlock()

	if id, ok := s.byUsername[login]; ok {
		return s.byID[id], nil
	}
	if id, ok := s.byEmail[strings.ToLower(login)]; ok {
		return s.byID[id], nil
	}
	return store.Identity{}, store.ErrNotFound
}

func (s *Store) List(ctx context.Context) ([]store.Identity, error) {
	s.idMu.RLock()
	out := make([]store.Identity, 0, len(s.byID))
	for _, id := range s.byID {
		out = append(out, id)
	}
	s.idMu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) UpdatePasswordHash(ctx context.Context, id string, hash string) error {
	s.idMu.Lock()
	defer s.idMu.Unlock()

	cur, ok := s.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	cur.PasswordHash = hash
	s.byID[id] = cur
	return nil
}

func (s *Store) bucket(identityID string) *bucket {
	s.bucketsMu.Lock()
	defer s.bucketsMu.Unlock()

	b, ok := s.buckets[identityID]
	if !ok {
		b = &bucket{entries: make(map[string]store.RefreshTokenEntry)}
		s.buckets[identityID] = b
	}
	return b
}

// lookup returns identityID's bucket without creating one.
func (s *Store) lookup(identityID string) (*bucket, bool) {
	s.bucketsMu.Lock()
	defer s.bucketsMu.Unlock()

	b, ok := s.buckets[identityID]
	return b, ok
}

// Lock order: bucket.mu before ownersMu.

func (s *Store) Add(ctx context.Context, identityID, digest string, ttl time.Duration) error {
	now := s.now()
	entry := store.RefreshTokenEntry{Digest: digest, IdentityID: identityID, CreatedAt: now}
	if ttl > 0 {
		exp := now.Add(ttl)
		entry.ExpiresAt = &exp
	}

	b := s.bucket(identityID)
	b.mu.Lock()
	defer b.mu.Unlock()

	s.pruneLocked(b, now)
	b.entries[digest] = entry

	s.ownersMu.Lock()
	s.owners[digest] = identityID
	s.ownersMu.Unlock()
	return nil
}

func (s *Store) Owner(ctx context.Context, digest string) (string, error) {
	s.ownersMu.RLock()
	defer s.ownersMu.RUnlock()

	id, ok := s.owners[digest]
	if !ok {
		return "", store.ErrNotFound
	}
	return id, nil
}

func (s *Store) Consume(ctx context.Context, identityID, digest string) (store.ConsumeStatus, error) {
	b, ok := s.lookup(identityID)
	if !ok {
		return store.ConsumeMissing, nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.entries[digest]
	if !ok {
		return store.ConsumeMissing, nil
	}
	s.deleteLocked(b, digest)

	if entry.Expired(s.now()) {
		return store.ConsumeExpired, nil
	}
	return store.ConsumeOK, nil
}

func (s *Store) Remove(ctx context.Context, digest string) (bool, error) {
	owner, err := s.Owner(ctx, digest)
	if err != nil {
		return false, nil
	}
	b, ok := s.lookup(owner)
	if !ok {
		return false, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	// a concurrent Consume may have taken it since Owner
	if _, ok := b.entries[digest]; !ok {
		return false, nil
	}
	s.deleteLocked(b, digest)
	return true, nil
}

func (s *Store) RemoveAll(ctx context.Context, identityID string) (int, error) {
	b, ok := s.lookup(identityID)
	if !ok {
		return 0, nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(b.entries)
	for digest := range b.entries {
		s.deleteLocked(b, digest)
	}
	return n, nil
}

func (s *Store) PruneExpired(ctx context.Context, identityID string) (int, error) {
	b, ok := s.lookup(identityID)
	if !ok {
		return 0, nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	return s.pruneLocked(b, s.now()), nil
}

func (s *Store) Entries(ctx context.Context, identityID string) ([]store.RefreshTokenEntry, error) {
	b, ok := s.lookup(identityID)
	if !ok {
		return nil, nil
	}
	now := s.now()

	b.mu.Lock()
	out := make([]store.RefreshTokenEntry, 0, len(b.entries))
	for _, e := range b.entries {
		if !e.Expired(now) {
			out = append(out, e)
		}
	}
	b.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) pruneLocked(b *bucket, now time.Time) int {
	n := 0
	for digest, e := range b.entries {
		if e.Expired(now) {
			s.deleteLocked(b, digest)
			n++
		}
	}
	return n
}

func (s *Store) deleteLocked(b *bucket, digest string) {
	delete(b.entries, digest)
	s.ownersMu.Lock()
	delete(s.owners, digest)
	s.ownersMu.Unlock()
}
