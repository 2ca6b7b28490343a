package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/authcore/internal"
)

// ErrRedisUnavailable wraps every Redis failure.
var ErrRedisUnavailable = errors.New("revocation redis unavailable")

// Redis is a registry shared by every instance pointed at the same Redis.
type Redis struct {
	redis    redis.UniversalClient
	prefix   string
	fallback time.Duration
	now      func() time.Time
}

// NewRedis returns a Redis registry. fallback is the TTL used when a
// credential's expiry is unknown and the upper bound for every entry;
// pass the access TTL. A non-positive fallback disables the bound.
func NewRedis(rdb redis.UniversalClient, prefix string, fallback time.Duration, now func() time.Time) *Redis {
	if prefix == "" {
		prefix = "authcore"
	}
	if now == nil {
		now = time.Now
	}
	return &Redis{redis: rdb, prefix: prefix, fallback: fallback, now: now}
}

func (r *Redis) key(credential string) string {
	return r.prefix + ":rv:" + internal.SHA256Hex(credential)
}

func (r *Redis) Revoke(ctx context.Context, credential string, until time.Time) error {
	ttl := r.fallback
	if !until.IsZero() {
		ttl = until.Sub(r.now())
	}
	if ttl <= 0 {
		return nil
	}
	// until comes from an unverified exp claim; a credential cannot be
	// valid for longer than the access TTL.
	if r.fallback > 0 && ttl > r.fallback {
		ttl = r.fallback
	}
	// Redis expiry has millisecond resolution.
	if ttl < time.Millisecond {
		ttl = time.Millisecond
	}
	if err := r.redis.Set(ctx, r.key(credential), 1, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (r *Redis) IsRevoked(ctx context.Context, credential string) (bool, error) {
	n, err := r.redis.Exists(ctx, r.key(credential)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return n == 1, nil
}
