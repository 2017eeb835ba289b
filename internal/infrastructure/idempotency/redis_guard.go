package idempotency

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "payment:inflight:"

// RedisGuard marks payment ids as claimed for TTL so concurrent
// notifications for one payment trigger a single upstream fetch.
type RedisGuard struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisGuard(rdb *redis.Client, ttl time.Duration) *RedisGuard {
	return &RedisGuard{rdb: rdb, ttl: ttl}
}

func (g *RedisGuard) Key(paymentID string) string {
	return keyPrefix + paymentID
}

func (g *RedisGuard) Claim(ctx context.Context, paymentID string) (bool, error) {
	return g.rdb.SetNX(ctx, g.Key(paymentID), "1", g.ttl).Result()
}

func (g *RedisGuard) Release(ctx context.Context, paymentID string) error {
	return g.rdb.Del(ctx, g.Key(paymentID)).Err()
}
