package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/soko/internal/config"
)

const keyOrderPlacementUser = "order:place:user:%s"

// OrderPlacementLimiter throttles order creation per user. A nil or
// disabled limiter allows everything, so callers never special-case the
// config.
type OrderPlacementLimiter struct {
	enabled bool

	bucket *TokenBucket

	rate  float64
	burst int
}

func NewOrderPlacementLimiter(cfg config.Config) (*OrderPlacementLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.OrderRate <= 0 || limitCfg.OrderBurst <= 0 {
		return nil, errors.New("order rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})

	return &OrderPlacementLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		rate:    limitCfg.OrderRate,
		burst:   limitCfg.OrderBurst,
	}, nil
}

func (l *OrderPlacementLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *OrderPlacementLimiter) AllowUser(ctx context.Context, userID string) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyOrderPlacementUser, strings.TrimSpace(userID)), l.rate, l.burst)
}
