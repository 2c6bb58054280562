package database

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"clarifier/internal/platform/config"
)

// OpenRedis builds a client from the URL or address and pings it. The client
// is returned even when the ping fails so callers can keep it and degrade per
// request; the error reports the failed ping.
func OpenRedis(cfg config.RedisConfig) (*redis.Client, error) {
	var opts *redis.Options
	switch {
	case cfg.URL != "":
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, err
		}
		opts = parsed
	case cfg.Addr != "":
		opts = &redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
	default:
		return nil, errors.New("redis: no url or addr configured")
	}
	opts.DialTimeout = 2 * time.Second
	opts.ReadTimeout = time.Second
	opts.WriteTimeout = time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return client, client.Ping(ctx).Err()
}
