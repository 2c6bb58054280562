package quota

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

// BurstCounter increments a short-lived counter and returns the new value.
// The first increment in a window sets the expiry; implementations must do
// both in one atomic step.
type BurstCounter interface {
	IncrementWithExpiry(ctx context.Context, key string, window time.Duration) (int64, error)
}

// WindowTTL is implemented by counters that can report how long the current
// window of key has left. Zero means unknown.
type WindowTTL interface {
	TTL(ctx context.Context, key string) (time.Duration, error)
}

var incrWithExpiry = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// RedisBurstCounter keeps burst windows in Redis so every replica sees the same count.
type RedisBurstCounter struct {
	client redis.UniversalClient
}

func NewRedisBurstCounter(client redis.UniversalClient) *RedisBurstCounter {
	return &RedisBurstCounter{client: client}
}

func (c *RedisBurstCounter) IncrementWithExpiry(ctx context.Context, key string, window time.Duration) (int64, error) {
	seconds := int64(math.Ceil(window.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	res, err := incrWithExpiry.Run(ctx, c.client, []string{key}, seconds).Result()
	if err != nil {
		return 0, err
	}
	switch v := res.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	}
	return 0, errors.New("burst counter: unexpected redis response type")
}

func (c *RedisBurstCounter) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := c.client.PTTL(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	// Missing keys and keys without expiry report negative values.
	if d < 0 {
		return 0, nil
	}
	return d, nil
}

func (c *RedisBurstCounter) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
