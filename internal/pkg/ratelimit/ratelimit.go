// Package ratelimit implements a fixed-window request limiter backed by a
// shared Redis instance, so the limit holds across replicas.
package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	// Allow records one hit for key and reports whether it is within the
	// configured limit for the current window.
	Allow(ctx context.Context, key string) (bool, error)
}

// FixedWindow is a Limiter counting hits per key in fixed time windows.
//
// The counter key is created with the window as TTL on the first hit; the
// INCR/EXPIRE pair runs in one atomic pipeline so a crashed request cannot
// leave an immortal counter behind.
type FixedWindow struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

// NewFixedWindow constructs a FixedWindow limiter.
//
// prefix namespaces the counters of one route class (e.g. "rl:generate:").
func NewFixedWindow(client *redis.Client, prefix string, limit int64, window time.Duration) *FixedWindow {
	if limit < 1 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}

	return &FixedWindow{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

// Allow records one hit for key and reports whether it is within the limit.
//
// Errors from the store fail open: rate limiting is protective throttling,
// not an authorization gate, and a Redis hiccup should not take down the
// endpoint it protects.
func (l *FixedWindow) Allow(ctx context.Context, key string) (bool, error) {
	fk := l.prefix + key

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, fk)
	pipe.ExpireNX(ctx, fk, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, err
	}

	return incr.Val() <= l.limit, nil
}
