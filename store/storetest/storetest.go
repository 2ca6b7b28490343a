// Package storetest holds behavioural suites shared by every store backend.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/authcore/permission"
	"github.com/MrEthical07/authcore/store"
)

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at start.
func NewClock(start time.Time) *Clock { return &Clock{now: start} }

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// SessionHarness is a fresh SessionStore plus the means to move its clock.
type SessionHarness struct {
	Sessions store.SessionStore
	Advance  func(time.Duration)
}

// RunSessionStore runs the SessionStore contract against stores built by newHarness.
func RunSessionStore(t *testing.T, newHarness func(t *testing.T) SessionHarness) {
	t.Run("AddOwnerEntries", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()

		if err := h.Sessions.Add(ctx, "u1", "d1", time.Hour); err != nil {
			t.Fatalf("add: %v", err)
		}
		owner, err := h.Sessions.Owner(ctx, "d1")
		if err != nil || owner != "u1" {
			t.Fatalf("owner: got %q err=%v", owner, err)
		}
		if _, err := h.Sessions.Owner(ctx, "nope"); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		entries, err := h.Sessions.Entries(ctx, "u1")
		if err != nil || len(entries) != 1 || entries[0].Digest != "d1" || entries[0].ExpiresAt == nil {
			t.Fatalf("entries: %+v err=%v", entries, err)
		}
	})

	t.Run("ConsumeIsSingleUse", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()

		if err := h.Sessions.Add(ctx, "u1", "d1", time.Hour); err != nil {
			t.Fatalf("add: %v", err)
		}
		if st, err := h.Sessions.Consume(ctx, "u1", "d1"); err != nil || st != store.ConsumeOK {
			t.Fatalf("first consume: %v err=%v", st, err)
		}
		if st, err := h.Sessions.Consume(ctx, "u1", "d1"); err != nil || st != store.ConsumeMissing {
			t.Fatalf("second consume: %v err=%v", st, err)
		}
		if _, err := h.Sessions.Owner(ctx, "d1"); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected owner gone after consume, got %v", err)
		}
	})

	t.Run("ConsumeWrongOwnerIsMissing", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()

		_ = h.Sessions.Add(ctx, "u1", "d1", time.Hour)
		if st, err := h.Sessions.Consume(ctx, "u2", "d1"); err != nil || st != store.ConsumeMissing {
			t.Fatalf("expected missing for foreign identity: %v err=%v", st, err)
		}
		if owner, _ := h.Sessions.Owner(ctx, "d1"); owner != "u1" {
			t.Fatal("entry must survive a foreign consume attempt")
		}
	})

	t.Run("ConsumeExpiredRemovesEntry", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()

		_ = h.Sessions.Add(ctx, "u1", "d1", time.Minute)
		h.Advance(time.Minute + time.Second)

		if st, err := h.Sessions.Consume(ctx, "u1", "d1"); err != nil || st != store.ConsumeExpired {
			t.Fatalf("expected expired: %v err=%v", st, err)
		}
		if st, _ := h.Sessions.Consume(ctx, "u1", "d1"); st != store.ConsumeMissing {
			t.Fatalf("expected missing after expired consume, got %v", st)
		}
	})

	t.Run("RemoveIsIdempotent", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()

		_ = h.Sessions.Add(ctx, "u1", "d1", time.Hour)
		for i, want := range []bool{true, false} {
			removed, err := h.Sessions.Remove(ctx, "d1")
			if err != nil {
				t.Fatalf("remove #%d: %v", i, err)
			}
			if removed != want {
				t.Fatalf("remove #%d: expected removed=%v, got %v", i, want, removed)
			}
		}
		if removed, err := h.Sessions.Remove(ctx, "never-existed"); err != nil || removed {
			t.Fatalf("remove unknown: removed=%v err=%v", removed, err)
		}
		if st, _ := h.Sessions.Consume(ctx, "u1", "d1"); st != store.ConsumeMissing {
			t.Fatalf("expected missing after remove, got %v", st)
		}
	})

	t.Run("AddPrunesExpired", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()

		_ = h.Sessions.Add(ctx, "u1", "old", time.Minute)
		_ = h.Sessions.Add(ctx, "u2", "other", time.Minute)
		h.Advance(2 * time.Minute)
		_ = h.Sessions.Add(ctx, "u1", "new", time.Hour)

		if _, err := h.Sessions.Owner(ctx, "old"); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected expired entry pruned on add, got %v", err)
		}
		entries, _ := h.Sessions.Entries(ctx, "u1")
		if len(entries) != 1 || entries[0].Digest != "new" {
			t.Fatalf("unexpected entries %+v", entries)
		}
		if n, err := h.Sessions.PruneExpired(ctx, "u2"); err != nil || n != 1 {
			t.Fatalf("expected explicit prune of u2 to remove 1, got %d err=%v", n, err)
		}
	})

	t.Run("RemoveAll", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()

		for i := 0; i < 3; i++ {
			_ = h.Sessions.Add(ctx, "u1", fmt.Sprintf("d%d", i), time.Hour)
		}
		_ = h.Sessions.Add(ctx, "u2", "keep", time.Hour)

		if n, err := h.Sessions.RemoveAll(ctx, "u1"); err != nil || n != 3 {
			t.Fatalf("remove all: n=%d err=%v", n, err)
		}
		if entries, _ := h.Sessions.Entries(ctx, "u1"); len(entries) != 0 {
			t.Fatalf("expected no entries, got %+v", entries)
		}
		if owner, _ := h.Sessions.Owner(ctx, "keep"); owner != "u2" {
			t.Fatal("other identity's entries must survive")
		}
	})

	t.Run("ConcurrentConsumeSingleWinner", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()

		if err := h.Sessions.Add(ctx, "u1", "race", time.Hour); err != nil {
			t.Fatalf("add: %v", err)
		}

		const workers = 16
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			winners int
			errs    []error
		)
		start := make(chan struct{})
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				st, err := h.Sessions.Consume(ctx, "u1", "race")
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					errs = append(errs, err)
					return
				}
				if st == store.ConsumeOK {
					winners++
				}
			}()
		}
		close(start)
		wg.Wait()

		if len(errs) > 0 {
			t.Fatalf("unexpected consume errors: %v", errs)
		}
		if winners != 1 {
			t.Fatalf("expected exactly one winner, got %d", winners)
		}
	})
}

// RunIdentityStore runs the IdentityStore contract against stores built by newStore.
func RunIdentityStore(t *testing.T, newStore func(t *testing.T) store.IdentityStore) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	alice := store.Identity{
		ID:           "id-alice",
		Username:     "alice",
		Email:        "a@x.com",
		PasswordHash: "hash-a",
		Role:         permission.RoleUser,
		CreatedAt:    base,
	}

	t.Run("CreateAndLookup", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		if err := s.Create(ctx, alice); err != nil {
			t.Fatalf("create: %v", err)
		}
		got, err := s.ByID(ctx, alice.ID)
		if err != nil || got.Username != "alice" || got.Role != permission.RoleUser || !got.CreatedAt.Equal(base) {
			t.Fatalf("by id: %+v err=%v", got, err)
		}
		for _, login := range []string{"alice", "a@x.com", "A@X.com"} {
			got, err := s.ByLogin(ctx, login)
			if err != nil || got.ID != alice.ID {
				t.Fatalf("by login %q: %+v err=%v", login, got, err)
			}
		}
		if _, err := s.ByLogin(ctx, "bob"); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if _, err := s.ByID(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("DuplicatesConflict", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		if err := s.Create(ctx, alice); err != nil {
			t.Fatalf("create: %v", err)
		}
		sameName := alice
		sameName.ID, sameName.Email = "id-2", "other@x.com"
		if err := s.Create(ctx, sameName); !errors.Is(err, store.ErrConflict) {
			t.Fatalf("expected username conflict, got %v", err)
		}
		sameEmail := alice
		sameEmail.ID, sameEmail.Username = "id-3", "alice2"
		if err := s.Create(ctx, sameEmail); !errors.Is(err, store.ErrConflict) {
			t.Fatalf("expected email conflict, got %v", err)
		}
	})

	t.Run("ListOrderedAndUpdatePassword", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		bob := store.Identity{ID: "id-bob", Username: "bob", Email: "b@x.com", PasswordHash: "hash-b", Role: permission.RoleAdmin, CreatedAt: base.Add(time.Minute)}
		_ = s.Create(ctx, bob)
		_ = s.Create(ctx, alice)

		all, err := s.List(ctx)
		if err != nil || len(all) != 2 || all[0].ID != alice.ID || all[1].ID != bob.ID {
			t.Fatalf("list: %+v err=%v", all, err)
		}

		if err := s.UpdatePasswordHash(ctx, bob.ID, "hash-b2"); err != nil {
			t.Fatalf("update: %v", err)
		}
		got, _ := s.ByID(ctx, bob.ID)
		if got.PasswordHash != "hash-b2" {
			t.Fatalf("expected updated hash, got %q", got.PasswordHash)
		}
		if err := s.UpdatePasswordHash(ctx, "missing", "x"); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
