package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Limiter is a fixed-window counter backed by Redis. It caps login attempts
// per client key; it is not a session or revocation store.
type Limiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	logger *zap.Logger
}

// NewLimiter builds a limiter. A nil client disables limiting.
func NewLimiter(client *redis.Client, limit int, window time.Duration, logger *zap.Logger) *Limiter {
	return &Limiter{client: client, limit: limit, window: window, logger: logger}
}

// Allow reports whether the key may proceed within the current window.
// Redis being unreachable fails open: throttling is protection, not a
// dependency the login path may die on.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	if l == nil || l.client == nil || l.limit <= 0 {
		return true
	}

	redisKey := fmt.Sprintf("ratelimit:login:%s", key)

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		l.logger.Warn("rate limiter unavailable; allowing request", zap.Error(err))
		return true
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			l.logger.Warn("rate limiter expire failed", zap.Error(err))
		}
	}

	return count <= int64(l.limit)
}
