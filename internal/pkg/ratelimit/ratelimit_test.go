package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newTestClient(t *testing.T) *redis.Client {
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

	return client
}

func TestFixedWindowAllow(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	limiter := NewFixedWindow(client, "rl:test:", 3, time.Minute)

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, "203.0.113.7")
		if err != nil {
			t.Fatalf("allow %d: %v", i+1, err)
		}
		if !ok {
			t.Fatalf("hit %d should be within the limit", i+1)
		}
	}

	ok, err := limiter.Allow(ctx, "203.0.113.7")
	if err != nil {
		t.Fatalf("allow over limit: %v", err)
	}
	if ok {
		t.Fatal("fourth hit should be throttled")
	}

	// Other keys have independent counters.
	ok, err = limiter.Allow(ctx, "198.51.100.9")
	if err != nil || !ok {
		t.Fatalf("independent key throttled: ok=%v err=%v", ok, err)
	}
}

func TestFixedWindowExpiry(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	limiter := NewFixedWindow(client, "rl:test:", 1, time.Second)

	if ok, _ := limiter.Allow(ctx, "k"); !ok {
		t.Fatal("first hit should pass")
	}
	if ok, _ := limiter.Allow(ctx, "k"); ok {
		t.Fatal("second hit should be throttled")
	}

	time.Sleep(1500 * time.Millisecond)

	if ok, _ := limiter.Allow(ctx, "k"); !ok {
		t.Fatal("counter should reset after the window")
	}
}

func TestFixedWindowFailsOpen(t *testing.T) {
	// A client pointed at nothing reproduces a Redis outage.
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { client.Close() })

	limiter := NewFixedWindow(client, "rl:test:", 1, time.Minute)

	ok, err := limiter.Allow(context.Background(), "k")
	if err == nil {
		t.Fatal("expected a connection error")
	}
	if !ok {
		t.Fatal("limiter must fail open on store errors")
	}
}
