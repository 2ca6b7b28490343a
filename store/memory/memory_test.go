package memory

import (
	"context"
	"testing"
	"time"

	"github.com/MrEthical07/authcore/store"
	"github.com/MrEthical07/authcore/store/storetest"
)

func TestSessionStoreContract(t *testing.T) {
	storetest.RunSessionStore(t, func(t *testing.T) storetest.SessionHarness {
		clock := storetest.NewClock(time.Unix(1_700_000_000, 0))
		return storetest.SessionHarness{Sessions: New(clock.Now), Advance: clock.Advance}
	})
}

func TestIdentityStoreContract(t *testing.T) {
	storetest.RunIdentityStore(t, func(t *testing.T) store.IdentityStore {
		return New(nil)
	})
}

func TestEntriesWithoutExpiryNeverExpire(t *testing.T) {
	clock := storetest.NewClock(time.Unix(1_700_000_000, 0))
	s := New(clock.Now)
	ctx := t.Context()

	if err := s.Add(ctx, "u1", "forever", 0); err != nil {
		t.Fatalf("add: %v", err)
	}
	clock.Advance(24 * 365 * time.Hour)

	if st, _ := s.Consume(ctx, "u1", "forever"); st != store.ConsumeOK {
		t.Fatalf("expected consume ok, got %v", st)
	}
}

func TestReadsDoNotAllocateBuckets(t *testing.T) {
	s := New(nil)
	ctx := context.Background()

	for _, id := range []string{"ghost-1", "ghost-2", "ghost-3", "ghost-4"} {
		if entries, err := s.Entries(ctx, id); err != nil || len(entries) != 0 {
			t.Fatalf("entries %q: %v err=%v", id, entries, err)
		}
		_, _ = s.PruneExpired(ctx, id)
		_, _ = s.RemoveAll(ctx, id)
		_, _ = s.Consume(ctx, id, "d")
	}
	if removed, _ := s.Remove(ctx, "unknown"); removed {
		t.Fatal("expected unknown digest not to be removed")
	}

	s.bucketsMu.Lock()
	n := len(s.buckets)
	s.bucketsMu.Unlock()
	if n != 0 {
		t.Fatalf("expected no buckets for unknown identities, got %d", n)
	}

	if err := s.Add(ctx, "u1", "d1", time.Hour); err != nil {
		t.Fatalf("add: %v", err)
	}
	if entries, _ := s.Entries(ctx, "u1"); len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
}
