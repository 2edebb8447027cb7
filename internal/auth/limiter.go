package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const attemptKeyPrefix = "sitetrack:login:attempts:"

// Limiter tracks failed admin logins per client.
type Limiter interface {
	Blocked(ctx context.Context, client string) (bool, error)
	Fail(ctx context.Context, client string) error
	Reset(ctx context.Context, client string) error
}

// NopLimiter never blocks.
type NopLimiter struct{}

func (NopLimiter) Blocked(context.Context, string) (bool, error) { return false, nil }
func (NopLimiter) Fail(context.Context, string) error            { return nil }
func (NopLimiter) Reset(context.Context, string) error           { return nil }

// RedisLimiter counts failures in Redis with a sliding lockout window.
type RedisLimiter struct {
	client      *redis.Client
	maxAttempts int64
	window      time.Duration
}

// NewRedisLimiter connects to redisURL and verifies the connection.
func NewRedisLimiter(redisURL string, maxAttempts int, window time.Duration) (*RedisLimiter, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisLimiterWithClient(client, maxAttempts, window), nil
}

// NewRedisLimiterWithClient wraps an existing client.
func NewRedisLimiterWithClient(client *redis.Client, maxAttempts int, window time.Duration) *RedisLimiter {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &RedisLimiter{client: client, maxAttempts: int64(maxAttempts), window: window}
}

func (l *RedisLimiter) Blocked(ctx context.Context, client string) (bool, error) {
	n, err := l.client.Get(ctx, attemptKeyPrefix+client).Int64()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return n >= l.maxAttempts, nil
}

func (l *RedisLimiter) Fail(ctx context.Context, client string) error {
	key := attemptKeyPrefix + client

	pipe := l.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.window)
	_, err := pipe.Exec(ctx)
	return err
}

func (l *RedisLimiter) Reset(ctx context.Context, client string) error {
	return l.client.Del(ctx, attemptKeyPrefix+client).Err()
}

// Close releases the redis connection.
func (l *RedisLimiter) Close() error {
	return l.client.Close()
}
