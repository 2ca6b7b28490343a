package revocation

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/MrEthical07/authcore/internal"
)

// Memory is a process-local registry. Every entry is retained for the
// configured horizon, which must be at least the access credential TTL.
type Memory struct {
	cache *expirable.LRU[string, time.Time]
	now   func() time.Time
}

// NewMemory returns a registry that forgets entries after horizon.
// maxEntries 0 means unbounded.
func NewMemory(horizon time.Duration, maxEntries int, now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{
		cache: expirable.NewLRU[string, time.Time](maxEntries, nil, horizon),
		now:   now,
	}
}

// Revoke marks credential as revoked. Credentials already past until are
// ignored.
func (m *Memory) Revoke(ctx context.Context, credential string, until time.Time) error {
	if !until.IsZero() && !m.now().Before(until) {
		return nil
	}
	m.cache.Add(internal.SHA256Hex(credential), until)
	return nil
}

func (m *Memory) IsRevoked(ctx context.Context, credential string) (bool, error) {
	_, ok := m.cache.Get(internal.SHA256Hex(credential))
	return ok, nil
}

// Len reports how many entries are currently held.
func (m *Memory) Len() int { return m.cache.Len() }
