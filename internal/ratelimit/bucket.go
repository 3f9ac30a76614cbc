package ratelimit

import (
	"context"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// tokenBucketScript refills and takes from the bucket atomically so
// concurrent callers cannot both spend the last token.
const tokenBucketScript = `
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local state = redis.call("HMGET", key, "tokens", "ts")
local tokens = tonumber(state[1])
local ts = tonumber(state[2])
if tokens == nil then
  tokens = burst
  ts = now
end

local elapsed = math.max(0, now - ts)
tokens = math.min(burst, tokens + elapsed * rate)

local allowed = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
end

redis.call("HSET", key, "tokens", tokens, "ts", now)
redis.call("EXPIRE", key, math.ceil(burst / rate) + 60)
return allowed
`

type TokenBucket struct {
	client *redis.Client
	script *redis.Script
}

func NewTokenBucket(client *redis.Client) *TokenBucket {
	if client == nil {
		return nil
	}
	return &TokenBucket{
		client: client,
		script: redis.NewScript(tokenBucketScript),
	}
}

// Allow reports whether one unit may pass for key at the given
// sustained rate (tokens per second) and burst capacity.
func (b *TokenBucket) Allow(ctx context.Context, key string, rate float64, burst int) (bool, error) {
	if b == nil || b.client == nil {
		return false, errors.New("token bucket client not configured")
	}
	if key == "" {
		return false, errors.New("token bucket key is empty")
	}
	if rate <= 0 || burst <= 0 {
		return false, errors.New("token bucket rate and burst must be positive")
	}

	now := float64(time.Now().UnixMicro()) / 1e6
	res, err := b.script.Run(ctx, b.client, []string{key}, rate, burst, now).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}
