package ratelimiter

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// takeScript mirrors MemoryStore.Take. Times are unix milliseconds.
var takeScript = redis.NewScript(`
local capacity = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local interval = tonumber(ARGV[3])
local now = tonumber(ARGV[4])
local n = tonumber(ARGV[5])
local full = tonumber(ARGV[6])

local state = redis.call('HMGET', KEYS[1], 'tokens', 'refill')
local tokens = tonumber(state[1])
local refill = tonumber(state[2])
if tokens == nil or refill == nil then
  tokens = capacity
  refill = now
end

local elapsed = now - refill
if elapsed >= full then
  tokens = capacity
  refill = now
elseif elapsed >= interval then
  local intervals = math.floor(elapsed / interval)
  tokens = math.min(tokens + intervals * rate, capacity)
  refill = refill + intervals * interval
end

local remaining = tokens - n
if remaining >= 0 then
  tokens = remaining
end
redis.call('HSET', KEYS[1], 'tokens', tokens, 'refill', refill)
redis.call('PEXPIRE', KEYS[1], full + interval)
return {remaining, refill + interval}
`)

// RedisStore keeps buckets in Redis hashes so replicas share limits.
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

// NewRedisStore creates a store writing keys under prefix. Panics if client is nil.
func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	if client == nil {
		panic("ratelimiter: redis client is required")
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Take(ctx context.Context, key string, n int, cfg Config, now time.Time) (int, time.Time, error) {
	res, err := takeScript.Run(ctx, s.client, []string{s.prefix + key},
		cfg.Capacity,
		cfg.RefillRate,
		cfg.RefillInterval.Milliseconds(),
		now.UnixMilli(),
		n,
		cfg.fullAfter().Milliseconds(),
	).Int64Slice()
	if err != nil {
		return 0, time.Time{}, errors.Join(ErrStoreUnavailable, err)
	}
	if len(res) != 2 {
		return 0, time.Time{}, ErrStoreUnavailable
	}
	return int(res[0]), time.UnixMilli(res[1]), nil
}

func (s *RedisStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}
