package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisLimiter shares fixed-window counters between instances. The first hit
// of a window sets the key's expiry; the key vanishing is the reset.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: "ratelimit:", now: time.Now}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, p Policy) (Result, error) {
	k := l.prefix + windowKey(p, key)

	count, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return Result{}, fmt.Errorf("incr %s: %w", k, err)
	}

	ttl, err := l.client.PTTL(ctx, k).Result()
	if err != nil {
		return Result{}, fmt.Errorf("pttl %s: %w", k, err)
	}

	// -1: no expiry yet (first hit, or a previous PEXPIRE got lost).
	if count == 1 || ttl < 0 {
		if err := l.client.PExpire(ctx, k, p.Window).Err(); err != nil {
			return Result{}, fmt.Errorf("pexpire %s: %w", k, err)
		}
		ttl = p.Window
	}

	res := Result{
		Limit:   p.Limit,
		ResetAt: l.now().Add(ttl),
	}
	if count > int64(p.Limit) {
		return res, nil
	}

	res.Allowed = true
	res.Remaining = p.Limit - int(count)
	return res, nil
}
