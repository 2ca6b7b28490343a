package rate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/authcore/internal"
)

// Config holds fixed-window budgets. A zero attempt count disables that
// check.
type Config struct {
	Prefix             string
	MaxLoginAttempts   int
	LoginWindow        time.Duration
	MaxRefreshAttempts int
	RefreshWindow      time.Duration
}

// Limiter throttles failed logins per login name and per client IP, and
// refresh calls per client IP, with Redis counters.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a Limiter backed by rdb.
func New(rdb redis.UniversalClient, cfg Config) *Limiter {
	if cfg.Prefix == "" {
		cfg.Prefix = "authcore"
	}
	return &Limiter{redis: rdb, config: cfg}
}

func (l *Limiter) loginKey(login string) string {
	return l.config.Prefix + ":rl:login:" + internal.SHA256Hex(strings.ToLower(strings.TrimSpace(login)))
}

func (l *Limiter) loginIPKey(ip string) string {
	return l.config.Prefix + ":rl:login-ip:" + ip
}

func (l *Limiter) refreshIPKey(ip string) string {
	return l.config.Prefix + ":rl:refresh-ip:" + ip
}

func (l *Limiter) loginKeys(login, ip string) []string {
	keys := []string{l.loginKey(login)}
	if ip != "" {
		keys = append(keys, l.loginIPKey(ip))
	}
	return keys
}

// CheckLogin returns ErrRateLimited once the failure budget for login or
// ip is spent. It does not count the attempt.
func (l *Limiter) CheckLogin(ctx context.Context, login, ip string) error {
	if l.config.MaxLoginAttempts <= 0 {
		return nil
	}
	for _, key := range l.loginKeys(login, ip) {
		count, err := l.redis.Get(ctx, key).Int64()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		if count >= int64(l.config.MaxLoginAttempts) {
			return ErrRateLimited
		}
	}
	return nil
}

// RecordLoginFailure counts one failed attempt against login and ip.
func (l *Limiter) RecordLoginFailure(ctx context.Context, login, ip string) error {
	if l.config.MaxLoginAttempts <= 0 {
		return nil
	}
	for _, key := range l.loginKeys(login, ip) {
		if _, err := l.incrementWithTTL(ctx, key, l.config.LoginWindow); err != nil {
			return err
		}
	}
	return nil
}

// ResetLogin clears the per-login counter after a successful login. The
// per-IP counter keeps running.
func (l *Limiter) ResetLogin(ctx context.Context, login, _ string) error {
	if l.config.MaxLoginAttempts <= 0 {
		return nil
	}
	if err := l.redis.Del(ctx, l.loginKey(login)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// CheckRefresh counts a refresh call from ip and returns ErrRateLimited
// once the window budget is exceeded.
func (l *Limiter) CheckRefresh(ctx context.Context, ip string) error {
	if l.config.MaxRefreshAttempts <= 0 || ip == "" {
		return nil
	}
	count, err := l.incrementWithTTL(ctx, l.refreshIPKey(ip), l.config.RefreshWindow)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxRefreshAttempts) {
		return ErrRateLimited
	}
	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed window: the first hit starts it.
	if count == 1 && ttl > 0 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}
	return count, nil
}
