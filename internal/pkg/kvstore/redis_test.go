package kvstore

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newTestStore(t *testing.T) *Redis {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()
	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("start redis container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			t.Logf("terminate redis container: %v", err)
		}
	})

	uri, err := ctr.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("redis connection string: %v", err)
	}
	opt, err := redis.ParseURL(uri)
	if err != nil {
		t.Fatalf("parse redis url: %v", err)
	}

	client := redis.NewClient(opt)
	t.Cleanup(func() { client.Close() })

	return NewRedis(client)
}

func TestRedisStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("get missing key", func(t *testing.T) {
		if _, err := store.Get(ctx, "nope"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("set and get", func(t *testing.T) {
		if err := store.SetWithTTL(ctx, "greeting", "hello", time.Minute); err != nil {
			t.Fatalf("set: %v", err)
		}
		got, err := store.Get(ctx, "greeting")
		if err != nil || got != "hello" {
			t.Fatalf("get = %q, %v", got, err)
		}
	})

	t.Run("ttl expires the key", func(t *testing.T) {
		if err := store.SetWithTTL(ctx, "ephemeral", "x", 100*time.Millisecond); err != nil {
			t.Fatalf("set: %v", err)
		}
		time.Sleep(300 * time.Millisecond)
		if _, err := store.Get(ctx, "ephemeral"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected expiry, got %v", err)
		}
	})

	t.Run("increment", func(t *testing.T) {
		for want := int64(1); want <= 3; want++ {
			got, err := store.Increment(ctx, "counter")
			if err != nil || got != want {
				t.Fatalf("incr = %d, %v (want %d)", got, err, want)
			}
		}
	})

	t.Run("hash fields", func(t *testing.T) {
		if err := store.HashSet(ctx, "record", map[string]string{"a": "1", "b": "2"}); err != nil {
			t.Fatalf("hset: %v", err)
		}
		got, err := store.HashGetAll(ctx, "record")
		if err != nil || got["a"] != "1" || got["b"] != "2" {
			t.Fatalf("hgetall = %v, %v", got, err)
		}

		n, err := store.HashIncrement(ctx, "record", "a", 4)
		if err != nil || n != 5 {
			t.Fatalf("hincrby = %d, %v", n, err)
		}
	})

	t.Run("hash missing key yields empty map", func(t *testing.T) {
		got, err := store.HashGetAll(ctx, "missing")
		if err != nil || len(got) != 0 {
			t.Fatalf("hgetall = %v, %v", got, err)
		}
	})

	t.Run("scan keys", func(t *testing.T) {
		for _, key := range []string{"scan:a", "scan:b", "other:c"} {
			if err := store.SetWithTTL(ctx, key, "v", 0); err != nil {
				t.Fatalf("set %s: %v", key, err)
			}
		}
		keys, err := store.ScanKeys(ctx, "scan:*")
		if err != nil {
			t.Fatalf("scan: %v", err)
		}
		sort.Strings(keys)
		if len(keys) != 2 || keys[0] != "scan:a" || keys[1] != "scan:b" {
			t.Fatalf("scan = %v", keys)
		}
	})

	t.Run("atomic batch", func(t *testing.T) {
		err := store.Atomic(ctx, func(b Batch) {
			b.Set("tx:str", "v", 0)
			b.HashSet("tx:hash", map[string]string{"f": "1"})
			b.HashIncrement("tx:hash", "f", 2)
		})
		if err != nil {
			t.Fatalf("atomic: %v", err)
		}

		if got, _ := store.Get(ctx, "tx:str"); got != "v" {
			t.Fatalf("tx:str = %q", got)
		}
		fields, _ := store.HashGetAll(ctx, "tx:hash")
		if fields["f"] != "3" {
			t.Fatalf("tx:hash f = %q", fields["f"])
		}

		err = store.Atomic(ctx, func(b Batch) {
			b.Delete("tx:str", "tx:hash")
		})
		if err != nil {
			t.Fatalf("atomic delete: %v", err)
		}
		if _, err := store.Get(ctx, "tx:str"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected tx:str deleted, got %v", err)
		}
	})
}
