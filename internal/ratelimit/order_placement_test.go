package ratelimit

import (
	"context"
	"testing"

	"github.com/smallbiznis/soko/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilLimiterAllowsEverything(t *testing.T) {
	var l *OrderPlacementLimiter

	assert.False(t, l.Enabled())
	allowed, err := l.AllowUser(context.Background(), "123")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestNewOrderPlacementLimiterDisabled(t *testing.T) {
	l, err := NewOrderPlacementLimiter(config.Config{})
	require.NoError(t, err)
	assert.Nil(t, l)
}

func TestNewOrderPlacementLimiterConfigErrors(t *testing.T) {
	cfg := config.Config{}
	cfg.RateLimit.Enabled = true

	_, err := NewOrderPlacementLimiter(cfg)
	assert.Error(t, err, "missing redis addr must fail")

	cfg.RateLimit.RedisAddr = "localhost:6379"
	_, err = NewOrderPlacementLimiter(cfg)
	assert.Error(t, err, "zero rate must fail")

	cfg.RateLimit.OrderRate = 1
	cfg.RateLimit.OrderBurst = 5
	l, err := NewOrderPlacementLimiter(cfg)
	require.NoError(t, err)
	assert.True(t, l.Enabled())
}
