// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dailypulse/pollengine/metrics"
)

// Redis backs Cache with a Redis server. All operations honor the degraded
// contract: errors are logged and counted, and the documented default is
// returned.
type Redis struct {
	client *redis.Client
}

// NewRedis connects using a redis:// URL.
func NewRedis(redisURL string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Redis{client: redis.NewClient(opts)}, nil
}

func (r *Redis) Allow(ctx context.Context, key string, limit int, window time.Duration) bool {
	n, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		degraded("rate_limit", err)
		return true
	}
	if n == 1 {
		// First hit in this window; the TTL is hygiene, the window index in
		// the key is what rolls the counter over.
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			degraded("rate_limit", err)
		}
	}
	return n <= int64(limit)
}

func (r *Redis) ClaimIdempotent(ctx context.Context, key string, ttl time.Duration) bool {
	claimed, err := r.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		degraded("idempotency", err)
		return true
	}
	return claimed
}

func (r *Redis) HasVoted(ctx context.Context, key string) bool {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		degraded("dedup_check", err)
		return false
	}
	return n > 0
}

func (r *Redis) MarkVoted(ctx context.Context, key string, ttl time.Duration) {
	if err := r.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		degraded("dedup_mark", err)
	}
}

func (r *Redis) GetBytes(ctx context.Context, key string) ([]byte, bool) {
	payload, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			degraded("get", err)
		}
		return nil, false
	}
	return payload, true
}

func (r *Redis) SetBytes(ctx context.Context, key string, payload []byte, ttl time.Duration) {
	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		degraded("set", err)
	}
}

func (r *Redis) Delete(ctx context.Context, key string) {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		degraded("delete", err)
	}
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func degraded(op string, err error) {
	slog.Warn("cache degraded", "op", op, "error", err)
	metrics.CacheErrors.WithLabelValues(op).Inc()
}
