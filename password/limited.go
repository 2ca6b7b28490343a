package password

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// Limited bounds how many hash computations run at once. Callers waiting
// for a slot give up when their context is done.
type Limited struct {
	inner Hasher
	sem   *semaphore.Weighted
}

// NewLimited wraps h. max <= 0 selects 2 x GOMAXPROCS.
func NewLimited(h Hasher, max int) *Limited {
	if max <= 0 {
		max = 2 * runtime.GOMAXPROCS(0)
	}
	return &Limited{inner: h, sem: semaphore.NewWeighted(int64(max))}
}

// Hash hashes password once a slot is free.
func (l *Limited) Hash(ctx context.Context, password string) (string, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer l.sem.Release(1)
	return l.inner.Hash(password)
}

// Verify compares password against encodedHash once a slot is free.
func (l *Limited) Verify(ctx context.Context, password string, encodedHash string) (bool, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer l.sem.Release(1)
	return l.inner.Verify(password, encodedHash)
}
