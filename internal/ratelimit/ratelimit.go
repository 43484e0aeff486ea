package ratelimit

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/config"

	"github.com/redis/go-redis/v9"
)

// Result describes the state of a key after one hit.
type Result struct {
	Allowed    bool
	Count      int64
	Remaining  int64
	RetryAfter time.Duration
}

// Limiter is a fixed-window counter stored in Redis.
type Limiter struct {
	client redis.Cmdable
	max    int64
	window time.Duration
	prefix string
}

// New connects to Redis and also returns the client so callers can close it.
// Everything is nil when rate limiting is disabled.
func New(ctx context.Context, cfg config.RateLimitConfig) (*Limiter, *redis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping redis %s: %w", cfg.RedisAddr, err)
	}
	return NewWithClient(client, cfg.Max, cfg.Window), client, nil
}

func NewWithClient(client redis.Cmdable, limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{client: client, max: int64(limit), window: window, prefix: "ratelimit:"}
}

// Hit counts one request against key. The window starts with the first hit.
func (l *Limiter) Hit(ctx context.Context, key string) (Result, error) {
	full := l.prefix + key

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, full)
	pipe.ExpireNX(ctx, full, l.window)
	ttl := pipe.PTTL(ctx, full)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("rate limit %s: %w", key, err)
	}

	count := incr.Val()
	res := Result{
		Allowed:   count <= l.max,
		Count:     count,
		Remaining: max(l.max-count, 0),
	}
	if !res.Allowed {
		res.RetryAfter = ttl.Val()
		if res.RetryAfter <= 0 {
			res.RetryAfter = l.window
		}
	}
	return res, nil
}
