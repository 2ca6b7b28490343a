package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/authcore/store"
)

// ErrRedisUnavailable wraps every transport or script failure.
var ErrRedisUnavailable = errors.New("redis unavailable")

// DefaultExpiredGrace keeps an expired entry readable long enough for
// Consume to report it as expired rather than missing.
const DefaultExpiredGrace = time.Hour

const (
	consumeStatusMissing  int64 = 0
	consumeStatusExpired  int64 = 1
	consumeStatusConsumed int64 = 2
)

// pruneFn deletes expired members of the identity set KEYS[2]. Entry keys
// are ARGV[entryPrefixArg] .. digest and now is ARGV[nowArg] in unix ms.
const pruneFn = `
local function prune(setKey, entryPrefix, now)
  local removed = 0
  for _, d in ipairs(redis.call("SMEMBERS", setKey)) do
    local k = entryPrefix .. d
    local exp = redis.call("HGET", k, "exp")
    if not exp then
      redis.call("SREM", setKey, d)
    else
      local e = tonumber(exp)
      if e > 0 and e <= now then
        redis.call("DEL", k)
        redis.call("SREM", setKey, d)
        removed = removed + 1
      end
    end
  end
  return removed
end
`

// KEYS: entry, set. ARGV: digest, uid, now, exp, pttl, entryPrefix.
var addLua = redis.NewScript(pruneFn + `
prune(KEYS[2], ARGV[6], tonumber(ARGV[3]))
redis.call("HSET", KEYS[1], "uid", ARGV[2], "created", ARGV[3], "exp", ARGV[4])
local pttl = tonumber(ARGV[5])
if pttl > 0 then
  redis.call("PEXPIRE", KEYS[1], pttl)
end
redis.call("SADD", KEYS[2], ARGV[1])
return 1
`)

// KEYS: set. ARGV: now, entryPrefix.
var pruneLua = redis.NewScript(pruneFn + `
return prune(KEYS[1], ARGV[2], tonumber(ARGV[1]))
`)

// KEYS: entry, set. ARGV: digest, uid, now.
var consumeLua = redis.NewScript(`
local uid = redis.call("HGET", KEYS[1], "uid")
if not uid or uid ~= ARGV[2] then
  return 0
end
local exp = tonumber(redis.call("HGET", KEYS[1], "exp") or "0")
redis.call("DEL", KEYS[1])
redis.call("SREM", KEYS[2], ARGV[1])
if exp > 0 and exp <= tonumber(ARGV[3]) then
  return 1
end
return 2
`)

// KEYS: entry. ARGV: digest, setPrefix. Returns 1 when the entry existed.
var removeLua = redis.NewScript(`
local uid = redis.call("HGET", KEYS[1], "uid")
if not uid then
  return redis.call("DEL", KEYS[1])
end
redis.call("DEL", KEYS[1])
redis.call("SREM", ARGV[2] .. uid, ARGV[1])
return 1
`)

// KEYS: set. ARGV: entryPrefix.
var removeAllLua = redis.NewScript(`
local removed = 0
for _, d in ipairs(redis.call("SMEMBERS", KEYS[1])) do
  removed = removed + redis.call("DEL", ARGV[1] .. d)
end
redis.call("DEL", KEYS[1])
return removed
`)

// Config tunes a Redis session Store.
type Config struct {
	// Prefix namespaces every key. Defaults to "authcore".
	Prefix string
	// ExpiredGrace is added to the Redis TTL of each entry.
	ExpiredGrace time.Duration
	// Now overrides the clock used for expiry decisions.
	Now func() time.Time
}

// Store is a store.SessionStore on Redis. Each entry is a hash at
// {<prefix>}:rt:<digest>; each identity has a set of its digests at
// {<prefix>}:ru:<identity>. Every mutation is a single Lua script.
//
// The scripts derive entry and index keys from the prefix at run time, so
// every key shares the {<prefix>} hash tag and lands in one Redis Cluster
// slot.
type Store struct {
	redis  redis.UniversalClient
	prefix string
	grace  time.Duration
	now    func() time.Time
}

var _ store.SessionStore = (*Store)(nil)

// NewStore creates a session Store backed by rdb.
func NewStore(rdb redis.UniversalClient, cfg Config) *Store {
	if cfg.Prefix == "" {
		cfg.Prefix = "authcore"
	}
	if cfg.ExpiredGrace <= 0 {
		cfg.ExpiredGrace = DefaultExpiredGrace
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Store{redis: rdb, prefix: cfg.Prefix, grace: cfg.ExpiredGrace, now: cfg.Now}
}

func (s *Store) entryPrefix() string { return "{" + s.prefix + "}:rt:" }
func (s *Store) setPrefix() string   { return "{" + s.prefix + "}:ru:" }

func (s *Store) entryKey(digest string) string   { return s.entryPrefix() + digest }
func (s *Store) setKey(identityID string) string { return s.setPrefix() + identityID }

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
}

// Add writes the entry and prunes the identity's expired entries.
//
//	Performance: 1 Lua EVALSHA.
func (s *Store) Add(ctx context.Context, identityID, digest string, ttl time.Duration) error {
	now := s.now()
	var exp, pttl int64
	if ttl > 0 {
		exp = now.Add(ttl).UnixMilli()
		pttl = (ttl + s.grace).Milliseconds()
	}

	err := addLua.Run(ctx, s.redis,
		[]string{s.entryKey(digest), s.setKey(identityID)},
		digest, identityID, now.UnixMilli(), exp, pttl, s.entryPrefix(),
	).Err()
	if err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *Store) Owner(ctx context.Context, digest string) (string, error) {
	uid, err := s.redis.HGet(ctx, s.entryKey(digest), "uid").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", store.ErrNotFound
		}
		return "", unavailable(err)
	}
	return uid, nil
}

// Consume deletes the entry if identityID owns it.
//
//	Performance: 1 Lua EVALSHA.
func (s *Store) Consume(ctx context.Context, identityID, digest string) (store.ConsumeStatus, error) {
	code, err := consumeLua.Run(ctx, s.redis,
		[]string{s.entryKey(digest), s.setKey(identityID)},
		digest, identityID, s.now().UnixMilli(),
	).Int64()
	if err != nil {
		return store.ConsumeMissing, unavailable(err)
	}

	switch code {
	case consumeStatusConsumed:
		return store.ConsumeOK, nil
	case consumeStatusExpired:
		return store.ConsumeExpired, nil
	case consumeStatusMissing:
		return store.ConsumeMissing, nil
	default:
		return store.ConsumeMissing, fmt.Errorf("%w: unknown consume status %d", ErrRedisUnavailable, code)
	}
}

func (s *Store) Remove(ctx context.Context, digest string) (bool, error) {
	n, err := removeLua.Run(ctx, s.redis, []string{s.entryKey(digest)}, digest, s.setPrefix()).Int()
	if err != nil {
		return false, unavailable(err)
	}
	return n > 0, nil
}

func (s *Store) RemoveAll(ctx context.Context, identityID string) (int, error) {
	n, err := removeAllLua.Run(ctx, s.redis, []string{s.setKey(identityID)}, s.entryPrefix()).Int()
	if err != nil {
		return 0, unavailable(err)
	}
	return n, nil
}

func (s *Store) PruneExpired(ctx context.Context, identityID string) (int, error) {
	n, err := pruneLua.Run(ctx, s.redis, []string{s.setKey(identityID)}, s.now().UnixMilli(), s.entryPrefix()).Int()
	if err != nil {
		return 0, unavailable(err)
	}
	return n, nil
}

// Entries returns the identity's live entries.
//
//	Performance: 1 SMEMBERS + 1 pipelined HGETALL batch.
func (s *Store) Entries(ctx context.Context, identityID string) ([]store.RefreshTokenEntry, error) {
	digests, err := s.redis.SMembers(ctx, s.setKey(identityID)).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	if len(digests) == 0 {
		return nil, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(digests))
	_, err = s.redis.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, d := range digests {
			cmds[i] = pipe.HGetAll(ctx, s.entryKey(d))
		}
		return nil
	})
	if err != nil {
		return nil, unavailable(err)
	}

	now := s.now()
	out := make([]store.RefreshTokenEntry, 0, len(digests))
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		entry := store.RefreshTokenEntry{Digest: digests[i], IdentityID: identityID}
		if ms, err := strconv.ParseInt(fields["created"], 10, 64); err == nil {
			entry.CreatedAt = time.UnixMilli(ms).UTC()
		}
		if ms, err := strconv.ParseInt(fields["exp"], 10, 64); err == nil && ms > 0 {
			exp := time.UnixMilli(ms).UTC()
			entry.ExpiresAt = &exp
		}
		if entry.Expired(now) {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

// Ping measures a Redis round trip.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return 0, unavailable(err)
	}
	return time.Since(start), nil
}
