package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/storefront/commerce-api/internal/core/ports"
)

// tokenBucket refills one token per interval up to capacity. State lives in a
// hash so the read-modify-write runs atomically inside Redis.
//
//	KEYS[1] bucket key
//	ARGV    now_ms, capacity, interval_ms, ttl_seconds
//	returns {allowed, remaining, retry_after_ms}
var tokenBucket = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local interval_ms = tonumber(ARGV[3])
local ttl_seconds = tonumber(ARGV[4])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if tokens == nil or last_refill == nil then
	tokens = capacity
	last_refill = now_ms
end

local elapsed = math.max(0, now_ms - last_refill)
local intervals = math.floor(elapsed / interval_ms)
if intervals > 0 then
	tokens = math.min(capacity, tokens + intervals)
	last_refill = last_refill + (intervals * interval_ms)
end

local allowed = 0
local retry_after_ms = 0
if tokens > 0 then
	allowed = 1
	tokens = tokens - 1
else
	retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)

return { allowed, tokens, retry_after_ms }
`)

// Limiter is a token-bucket rate limiter shared by every API replica.
type Limiter struct {
	client   *redis.Client
	capacity int
	interval time.Duration
	ttl      time.Duration
	now      func() time.Time
}

// NewLimiter returns a limiter allowing bursts of capacity requests and
// refilling one token every interval.
func NewLimiter(client *redis.Client, capacity int, interval time.Duration) *Limiter {
	if capacity < 1 {
		capacity = 1
	}
	if interval <= 0 {
		interval = time.Second
	}
	ttl := time.Duration(capacity) * interval
	if ttl < time.Minute {
		ttl = time.Minute
	}
	return &Limiter{client: client, capacity: capacity, interval: interval, ttl: ttl, now: time.Now}
}

var _ ports.RateLimiter = (*Limiter)(nil)

func (l *Limiter) Allow(ctx context.Context, key string) (ports.RateDecision, error) {
	args := []interface{}{
		l.now().UnixMilli(),
		l.capacity,
		l.interval.Milliseconds(),
		int64(l.ttl / time.Second),
	}

	vals, err := tokenBucket.Run(ctx, l.client, []string{key}, args...).Int64Slice()
	if err != nil {
		return ports.RateDecision{}, fmt.Errorf("rate limit script: %w", err)
	}
	if len(vals) != 3 {
		return ports.RateDecision{}, fmt.Errorf("rate limit script: unexpected result %v", vals)
	}

	return ports.RateDecision{
		Allowed:    vals[0] == 1,
		Remaining:  int(vals[1]),
		RetryAfter: time.Duration(vals[2]) * time.Millisecond,
	}, nil
}
