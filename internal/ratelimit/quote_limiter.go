package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/freightrate/internal/config"
)

const keyQuote = "freightrate:quote:%s"

// QuoteLimiter throttles rate quote requests per client. Disabled entirely
// when no redis address is configured; every check then passes.
type QuoteLimiter struct {
	enabled bool
	bucket  *TokenBucket
	rate    float64
	burst   int
}

func NewQuoteLimiter(cfg config.Config) *QuoteLimiter {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return &QuoteLimiter{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
	})

	return &QuoteLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		rate:    10,
		burst:   30,
	}
}

func (l *QuoteLimiter) Enabled() bool {
	return l != nil && l.enabled
}

// Allow checks the caller's bucket. Limiter errors fail open; throttling is
// protective, not load-bearing.
func (l *QuoteLimiter) Allow(ctx context.Context, clientKey string) (bool, time.Duration) {
	if !l.Enabled() {
		return true, 0
	}
	result, err := l.bucket.Allow(ctx, fmt.Sprintf(keyQuote, strings.TrimSpace(clientKey)), l.rate, l.burst)
	if err != nil {
		return true, 0
	}
	return result.Allowed, result.RetryAfter
}
