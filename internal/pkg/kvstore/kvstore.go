package kvstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates the requested key does not exist (or has expired).
var ErrNotFound = errors.New("kvstore: key not found")

// Batch queues write commands for atomic execution.
//
// Commands queued on a Batch are applied all-or-nothing: a reader never
// observes a subset of the queued writes.
type Batch interface {
	// Set queues a plain string write. A zero ttl means no expiry.
	Set(key, value string, ttl time.Duration)
	// HashSet queues a write of multiple hash fields.
	HashSet(key string, fields map[string]string)
	// HashIncrement queues an increment of a single hash field.
	HashIncrement(key, field string, by int64)
	// Delete queues removal of the given keys.
	Delete(keys ...string)
}

// Store is the contract over the external key-value store.
//
// All operations take a context and complete within a single store round
// trip; cancellation and timeouts are delegated to the underlying client.
type Store interface {
	// Get returns the string value at key, or ErrNotFound when absent.
	Get(ctx context.Context, key string) (string, error)

	// SetWithTTL writes a string value. A zero ttl means no expiry.
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error

	// Increment atomically increments the integer at key by one and returns
	// the post-increment value. A missing key counts as zero.
	Increment(ctx context.Context, key string) (int64, error)

	// Delete removes the given keys. Deleting a missing key is not an error.
	Delete(ctx context.Context, keys ...string) error

	// HashGetAll returns all fields of the hash at key. A missing key yields
	// an empty map, not an error.
	HashGetAll(ctx context.Context, key string) (map[string]string, error)

	// HashSet writes the given fields of the hash at key.
	HashSet(ctx context.Context, key string, fields map[string]string) error

	// HashIncrement atomically increments a hash field by the given amount
	// and returns the post-increment value.
	HashIncrement(ctx context.Context, key, field string, by int64) (int64, error)

	// ScanKeys returns every key matching the glob pattern. It iterates the
	// keyspace with a cursor, so the result is a point-in-time approximation
	// under concurrent writes.
	ScanKeys(ctx context.Context, pattern string) ([]string, error)

	// Atomic executes every command queued by fn as one all-or-nothing batch.
	Atomic(ctx context.Context, fn func(b Batch)) error
}
