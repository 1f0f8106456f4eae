package kvstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Store implementation backed by github.com/redis/go-redis.
type Redis struct {
	client *redis.Client
}

// NewRedis wraps an existing Redis client.
//
// The client is injected (not constructed here) so the application owns its
// lifecycle and tests can point the adapter at a disposable instance.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Get returns the string value at key, or ErrNotFound when absent.
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("kvstore: get %q: %w", key, err)
	}
	return val, nil
}

// SetWithTTL writes a string value with the given expiry.
func (r *Redis) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("kvstore: set %q: %w", key, err)
	}
	return nil
}

// Increment atomically increments the integer at key by one.
func (r *Redis) Increment(ctx context.Context, key string) (int64, error) {
	val, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("kvstore: incr %q: %w", key, err)
	}
	return val, nil
}

// Delete removes the given keys.
func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("kvstore: del: %w", err)
	}
	return nil
}

// HashGetAll returns all fields of the hash at key.
func (r *Redis) HashGetAll(ctx context.Context, key string) (map[string]string, error) {
	val, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("kvstore: hgetall %q: %w", key, err)
	}
	return val, nil
}

// HashSet writes the given fields of the hash at key.
func (r *Redis) HashSet(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	if err := r.client.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("kvstore: hset %q: %w", key, err)
	}
	return nil
}

// HashIncrement atomically increments a hash field by the given amount.
func (r *Redis) HashIncrement(ctx context.Context, key, field string, by int64) (int64, error) {
	val, err := r.client.HIncrBy(ctx, key, field, by).Result()
	if err != nil {
		return 0, fmt.Errorf("kvstore: hincrby %q %q: %w", key, field, err)
	}
	return val, nil
}

// ScanKeys returns every key matching the glob pattern.
func (r *Redis) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)

	for {
		batch, next, err := r.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("kvstore: scan %q: %w", pattern, err)
		}
		keys = append(keys, batch...)

		cursor = next
		if cursor == 0 {
			return keys, nil
		}
	}
}

// Atomic executes the queued commands in one MULTI/EXEC transaction.
func (r *Redis) Atomic(ctx context.Context, fn func(b Batch)) error {
	if _, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		fn(&redisBatch{pipe: pipe, ctx: ctx})
		return nil
	}); err != nil {
		return fmt.Errorf("kvstore: atomic batch: %w", err)
	}
	return nil
}

type redisBatch struct {
	pipe redis.Pipeliner
	ctx  context.Context
}

func (b *redisBatch) Set(key, value string, ttl time.Duration) {
	b.pipe.Set(b.ctx, key, value, ttl)
}

func (b *redisBatch) HashSet(key string, fields map[string]string) {
	b.pipe.HSet(b.ctx, key, fields)
}

func (b *redisBatch) HashIncrement(key, field string, by int64) {
	b.pipe.HIncrBy(b.ctx, key, field, by)
}

func (b *redisBatch) Delete(keys ...string) {
	b.pipe.Del(b.ctx, keys...)
}
