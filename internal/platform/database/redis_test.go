package database

import (
	"testing"

	"github.com/alicebob/miniredis/v2"

	"clarifier/internal/platform/config"
)

func TestOpenRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := OpenRedis(config.RedisConfig{URL: "redis://" + mr.Addr() + "/0"})
	if err != nil {
		t.Fatalf("OpenRedis(url) error = %v", err)
	}
	client.Close()

	client, err = OpenRedis(config.RedisConfig{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("OpenRedis(addr) error = %v", err)
	}
	client.Close()

	if _, err := OpenRedis(config.RedisConfig{}); err == nil {
		t.Error("expected error without url or addr")
	}
}
