package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func testClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	return client
}

func TestRateCounterCountsWithinWindow(t *testing.T) {
	client := testClient(t)
	counter := NewRateCounter(client, "pto-test")
	key := "actor:" + uuid.NewString()
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		count, resetIn, err := counter.Hit(ctx, key, time.Minute)
		if err != nil {
			t.Fatalf("hit failed: %v", err)
		}
		if count != want {
			t.Fatalf("expected count %d, got %d", want, count)
		}
		if resetIn <= 0 || resetIn > time.Minute {
			t.Fatalf("unexpected reset %v", resetIn)
		}
	}
}

func TestRateCounterWindowExpires(t *testing.T) {
	client := testClient(t)
	counter := NewRateCounter(client, "pto-test")
	key := "auth-ip:" + uuid.NewString()
	ctx := context.Background()

	if _, _, err := counter.Hit(ctx, key, 50*time.Millisecond); err != nil {
		t.Fatalf("hit failed: %v", err)
	}
	time.Sleep(120 * time.Millisecond)

	count, _, err := counter.Hit(ctx, key, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("hit failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a fresh window, got count %d", count)
	}
}
