package identity

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// AttemptLimiter counts failed sign-ins per key inside a sliding lockout window.
type AttemptLimiter interface {
	Blocked(ctx context.Context, key string) (bool, error)
	Fail(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

type RedisAttemptLimiter struct {
	rdb    *redis.Client
	max    int
	window time.Duration
}

func NewRedisAttemptLimiter(rdb *redis.Client, max int, window time.Duration) *RedisAttemptLimiter {
	return &RedisAttemptLimiter{rdb: rdb, max: max, window: window}
}

func attemptsKey(key string) string {
	return "login_attempts:" + key
}

func (l *RedisAttemptLimiter) Blocked(ctx context.Context, key string) (bool, error) {
	val, err := l.rdb.Get(ctx, attemptsKey(key)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read login attempts: %w", err)
	}

	n, err := strconv.Atoi(val)
	if err != nil {
		return false, fmt.Errorf("parse login attempts: %w", err)
	}
	return n >= l.max, nil
}

func (l *RedisAttemptLimiter) Fail(ctx context.Context, key string) error {
	pipe := l.rdb.TxPipeline()
	pipe.Incr(ctx, attemptsKey(key))
	pipe.Expire(ctx, attemptsKey(key), l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record login attempt: %w", err)
	}
	return nil
}

func (l *RedisAttemptLimiter) Reset(ctx context.Context, key string) error {
	return l.rdb.Del(ctx, attemptsKey(key)).Err()
}
