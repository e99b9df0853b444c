package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/invoicebuilder/internal/config"
	"go.uber.org/zap"
)

const (
	keySendRecipient = "invoice:send:recipient:%s"
	keySendLock      = "invoice:send:lock:%s"
)

// SendLimiter throttles outbound invoice email per recipient and keeps two
// sends of the same invoice from running at once. A nil or disabled limiter
// allows everything.
type SendLimiter struct {
	enabled bool

	buckets *recipientBuckets
	leases  *sendLeases

	rate    float64
	burst   int
	lockTTL time.Duration
}

func NewSendLimiter(cfg config.Config, log *zap.Logger) (*SendLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})

	limiter, err := newSendLimiter(client, limitCfg)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	if log != nil {
		log.Named("ratelimit").Info("invoice send limiter enabled",
			zap.String("redis_addr", addr),
			zap.Float64("rate", limitCfg.SendRate),
			zap.Int("burst", limitCfg.SendBurst),
		)
	}
	return limiter, nil
}

func newSendLimiter(client *redis.Client, cfg config.RateLimitConfig) (*SendLimiter, error) {
	if cfg.SendRate <= 0 || cfg.SendBurst <= 0 {
		return nil, errors.New("invoice send rate limit must be positive")
	}
	if cfg.SendLockTTLSeconds <= 0 {
		return nil, errors.New("invoice send lock ttl must be positive")
	}
	return &SendLimiter{
		enabled: true,
		buckets: newRecipientBuckets(client),
		leases:  newSendLeases(client),
		rate:    cfg.SendRate,
		burst:   cfg.SendBurst,
		lockTTL: time.Duration(cfg.SendLockTTLSeconds) * time.Second,
	}, nil
}

func (l *SendLimiter) Enabled() bool {
	return l != nil && l.enabled
}

// AllowRecipient takes one token from the recipient's bucket. When denied,
// retryAfter is the wait until the next token.
func (l *SendLimiter) AllowRecipient(ctx context.Context, recipient string) (allowed bool, retryAfter time.Duration, err error) {
	if !l.Enabled() {
		return true, 0, nil
	}
	return l.buckets.take(ctx, fmt.Sprintf(keySendRecipient, normalizeRecipient(recipient)), l.rate, l.burst)
}

func (l *SendLimiter) TryLockInvoice(ctx context.Context, invoiceID string) (string, bool, error) {
	if !l.Enabled() {
		return "", true, nil
	}
	return l.leases.acquire(ctx, fmt.Sprintf(keySendLock, strings.TrimSpace(invoiceID)), l.lockTTL)
}

func (l *SendLimiter) ReleaseInvoice(ctx context.Context, invoiceID, token string) error {
	if !l.Enabled() {
		return nil
	}
	return l.leases.drop(ctx, fmt.Sprintf(keySendLock, strings.TrimSpace(invoiceID)), token)
}

func normalizeRecipient(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}
