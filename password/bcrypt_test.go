package password

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHashAndVerify(t *testing.T) {
	hasher, err := NewBcrypt(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}

	hash, err := hasher.Hash("Secr3t!")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if ok, err := hasher.Verify("Secr3t!", hash); err != nil || !ok {
		t.Fatalf("expected match: ok=%v err=%v", ok, err)
	}
	if ok, err := hasher.Verify("secr3t!", hash); err != nil || ok {
		t.Fatalf("expected mismatch: ok=%v err=%v", ok, err)
	}
	if _, err := hasher.Verify("Secr3t!", "garbage"); err == nil {
		t.Fatal("expected malformed hash error")
	}
}

func TestBcryptRejectsOutOfRangeCost(t *testing.T) {
	if _, err := NewBcrypt(bcrypt.MaxCost + 1); err == nil {
		t.Fatal("expected cost above max to be rejected")
	}
	if _, err := NewBcrypt(1); err == nil {
		t.Fatal("expected cost below min to be rejected")
	}
}

func TestBcryptLongPassword(t *testing.T) {
	hasher, _ := NewBcrypt(bcrypt.MinCost)
	if _, err := hasher.Hash(strings.Repeat("x", 73)); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
}

func TestBcryptNeedsUpgrade(t *testing.T) {
	weak, _ := NewBcrypt(bcrypt.MinCost)
	strong, _ := NewBcrypt(bcrypt.MinCost + 1)
	hash, _ := weak.Hash("pw")

	if up, err := strong.NeedsUpgrade(hash); err != nil || !up {
		t.Fatalf("expected upgrade: up=%v err=%v", up, err)
	}
}

func TestNewSelectsAlgorithm(t *testing.T) {
	h, err := New("BCRYPT", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("New bcrypt: %v", err)
	}
	if _, ok := h.(*Bcrypt); !ok {
		t.Fatalf("expected *Bcrypt, got %T", h)
	}

	h, err = New("", 0)
	if err != nil {
		t.Fatalf("New default: %v", err)
	}
	if _, ok := h.(*Argon2); !ok {
		t.Fatalf("expected *Argon2, got %T", h)
	}

	if _, err := New("md5", 0); err == nil {
		t.Fatal("expected unsupported algorithm error")
	}
}

type slowHasher struct {
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (s *slowHasher) Hash(string) (string, error) {
	n := s.active.Add(1)
	for {
		cur := s.maxSeen.Load()
		if n <= cur || s.maxSeen.CompareAndSwap(cur, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	s.active.Add(-1)
	return "h", nil
}

func (s *slowHasher) Verify(string, string) (bool, error) { return true, nil }

func TestLimitedCapsConcurrency(t *testing.T) {
	inner := &slowHasher{}
	limited := NewLimited(inner, 2)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := limited.Hash(context.Background(), "pw"); err != nil {
				t.Errorf("hash: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := inner.maxSeen.Load(); got > 2 {
		t.Fatalf("expected at most 2 concurrent hashes, saw %d", got)
	}
}

func TestLimitedHonoursCancellation(t *testing.T) {
	limited := NewLimited(&slowHasher{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Occupy the only slot so Acquire has to wait on ctx.
	if err := limited.sem.Acquire(context.Background(), 1); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer limited.sem.Release(1)

	if _, err := limited.Verify(ctx, "pw", "h"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
