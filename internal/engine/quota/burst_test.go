package quota

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredisCounter(t *testing.T) (*RedisBurstCounter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisBurstCounter(client), mr
}

func TestRedisBurstCounter_SetsExpiryOnFirstIncrement(t *testing.T) {
	counter, mr := newMiniredisCounter(t)
	ctx := context.Background()

	n, err := counter.IncrementWithExpiry(ctx, "rate:acme", 60*time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 60*time.Second, mr.TTL("rate:acme"))

	mr.FastForward(10 * time.Second)
	n, err = counter.IncrementWithExpiry(ctx, "rate:acme", 60*time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	// Later increments must not extend the window.
	assert.Equal(t, 50*time.Second, mr.TTL("rate:acme"))

	mr.FastForward(51 * time.Second)
	n, err = counter.IncrementWithExpiry(ctx, "rate:acme", 60*time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRedisBurstCounter_ConcurrentIncrementsAreAtomic(t *testing.T) {
	counter, _ := newMiniredisCounter(t)
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	seen := make([]int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := counter.IncrementWithExpiry(ctx, "rate:acme", time.Minute)
			assert.NoError(t, err)
			seen[i] = v
		}(i)
	}
	wg.Wait()

	unique := make(map[int64]bool)
	for _, v := range seen {
		unique[v] = true
	}
	assert.Len(t, unique, n, "every caller must observe a distinct count")
}

func TestRedisBurstCounter_Unavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	defer client.Close()
	counter := NewRedisBurstCounter(client)

	_, err := counter.IncrementWithExpiry(context.Background(), "rate:acme", time.Minute)
	assert.Error(t, err)
}

func TestMemoryBurstCounter_WindowExpiry(t *testing.T) {
	var mu sync.Mutex
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}

	counter := newMemoryBurstCounter(clock)
	defer counter.Close()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		n, err := counter.IncrementWithExpiry(ctx, "acme", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(i), n)
	}

	other, _ := counter.IncrementWithExpiry(ctx, "globex", time.Minute)
	assert.Equal(t, int64(1), other, "keys are independent")

	advance(20 * time.Second)
	ttl, err := counter.TTL(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, 40*time.Second, ttl)

	advance(40 * time.Second)
	ttl, _ = counter.TTL(ctx, "acme")
	assert.Zero(t, ttl, "expired window has no time left")
	n, _ := counter.IncrementWithExpiry(ctx, "acme", time.Minute)
	assert.Equal(t, int64(1), n)

	advance(2 * time.Minute)
	counter.sweep()
	counter.mu.Lock()
	assert.Empty(t, counter.windows)
	counter.mu.Unlock()
}

func TestMemoryBurstCounter_Concurrent(t *testing.T) {
	counter := NewMemoryBurstCounter()
	defer counter.Close()

	var highest atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, _ := counter.IncrementWithExpiry(context.Background(), "acme", time.Minute)
			for {
				cur := highest.Load()
				if n <= cur || highest.CompareAndSwap(cur, n) {
					break
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(100), highest.Load())
}
