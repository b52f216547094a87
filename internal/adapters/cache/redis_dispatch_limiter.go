package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisDispatchLimiter caps confirmation code sends per destination with a
// counter whose TTL is the rolling window.
type RedisDispatchLimiter struct {
	client *redis.Client
}

func NewRedisDispatchLimiter(client *redis.Client) *RedisDispatchLimiter {
	return &RedisDispatchLimiter{client: client}
}

func (l *RedisDispatchLimiter) Allow(ctx context.Context, destination string, limit int, window time.Duration) (bool, error) {
	key := "settlement:wdsend:" + destination
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, window).Err(); err != nil {
			return false, err
		}
	}
	return count <= int64(limit), nil
}
