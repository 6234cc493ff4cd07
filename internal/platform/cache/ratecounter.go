package cache

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
)

// RateCounter keeps fixed-window request counts in redis so every replica
// sees the same totals.
type RateCounter struct {
	client *redis.Client
	prefix string
}

func NewRateCounter(client *redis.Client, prefix string) *RateCounter {
	return &RateCounter{client: client, prefix: prefix}
}

func (c *RateCounter) Hit(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	full := c.prefix + ":ratelimit:" + key

	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, full)
	ttl := pipe.PTTL(ctx, full)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, goerr.Wrap(err, "failed to count request", goerr.V("key", full))
	}

	resetIn := ttl.Val()
	if resetIn <= 0 {
		// First hit of the window, or a key left without expiry.
		if err := c.client.PExpire(ctx, full, window).Err(); err != nil {
			return 0, 0, goerr.Wrap(err, "failed to set rate window", goerr.V("key", full))
		}
		resetIn = window
	}
	return int(incr.Val()), resetIn, nil
}
