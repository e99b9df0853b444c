package ratelimit

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// recipientBucketScript refills KEYS[1] at ARGV[1] tokens per second up to
// ARGV[2] and takes one token. It returns {allowed, retry_after_ms}.
const recipientBucketScript = `
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local ttl = tonumber(ARGV[3])

local clock = redis.call("TIME")
local now = (clock[1] * 1000) + math.floor(clock[2] / 1000)

local state = redis.call("HMGET", KEYS[1], "tokens", "ts")
local tokens = tonumber(state[1]) or burst
local ts = tonumber(state[2]) or now
tokens = math.min(burst, tokens + math.max(0, now - ts) / 1000 * rate)

local allowed = 0
local retry = 0
if tokens >= 1 then
  allowed = 1
  tokens = tokens - 1
else
  retry = math.ceil((1 - tokens) / rate * 1000)
end

redis.call("HSET", KEYS[1], "tokens", tostring(tokens), "ts", now)
redis.call("PEXPIRE", KEYS[1], ttl)
return {allowed, retry}
`

// sendLeaseReleaseScript deletes KEYS[1] only while it still holds ARGV[1].
const sendLeaseReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

var errNoRedis = errors.New("rate limit redis client not configured")

// recipientBuckets keeps one token bucket per recipient address.
type recipientBuckets struct {
	client *redis.Client
	script *redis.Script
}

func newRecipientBuckets(client *redis.Client) *recipientBuckets {
	return &recipientBuckets{client: client, script: redis.NewScript(recipientBucketScript)}
}

func (b *recipientBuckets) take(ctx context.Context, key string, rate float64, burst int) (bool, time.Duration, error) {
	if b == nil || b.client == nil {
		return false, 0, errNoRedis
	}
	if key == "" {
		return false, 0, errors.New("rate limit key is empty")
	}
	if rate <= 0 || burst <= 0 {
		return false, 0, errors.New("rate limit rate and burst must be positive")
	}

	res, err := b.script.Run(ctx, b.client, []string{key}, rate, burst, bucketTTL(rate, burst).Milliseconds()).Int64Slice()
	if err != nil {
		return false, 0, err
	}
	if len(res) != 2 {
		return false, 0, errors.New("unexpected rate limit script response")
	}
	return res[0] == 1, time.Duration(res[1]) * time.Millisecond, nil
}

// bucketTTL keeps an idle bucket around for twice its full refill time.
func bucketTTL(rate float64, burst int) time.Duration {
	if rate <= 0 || burst <= 0 {
		return time.Second
	}
	seconds := math.Max(1, math.Ceil(float64(burst)/rate*2))
	return time.Duration(seconds) * time.Second
}

// sendLeases are short per-invoice locks taken around a send.
type sendLeases struct {
	client  *redis.Client
	release *redis.Script
}

func newSendLeases(client *redis.Client) *sendLeases {
	return &sendLeases{client: client, release: redis.NewScript(sendLeaseReleaseScript)}
}

func (l *sendLeases) acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if l == nil || l.client == nil {
		return "", false, errNoRedis
	}
	if key == "" {
		return "", false, errors.New("lease key is empty")
	}
	if ttl <= 0 {
		return "", false, errors.New("lease ttl must be positive")
	}
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

func (l *sendLeases) drop(ctx context.Context, key, token string) error {
	if l == nil || l.client == nil || key == "" || token == "" {
		return nil
	}
	return l.release.Run(ctx, l.client, []string{key}, token).Err()
}
