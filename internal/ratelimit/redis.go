package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Limiter backed by a shared Redis instance so that a
// multi-instance deployment enforces one budget per client. It uses
// per-window INCR+EXPIRE counters; two adjacent windows approximate the
// sliding window closely enough for an abuse budget.
type Redis struct {
	client *redis.Client
	window time.Duration
	limit  int
}

func NewRedis(client *redis.Client, limit int, window time.Duration) *Redis {
	return &Redis{client: client, window: window, limit: limit}
}

func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	if r.limit <= 0 {
		return true, nil
	}

	bucket := time.Now().UTC().Truncate(r.window).Unix()
	redisKey := fmt.Sprintf("yomu:rl:%s:%d", key, bucket)

	count, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		// First hit in this window; set TTL
		_ = r.client.Expire(ctx, redisKey, r.window*2)
	}

	return count <= int64(r.limit), nil
}
