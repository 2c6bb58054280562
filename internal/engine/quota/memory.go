package quota

import (
	"context"
	"sync"
	"time"
)

type burstWindow struct {
	count     int64
	expiresAt time.Time
}

// MemoryBurstCounter is a single-process BurstCounter. Counts are not shared
// between replicas.
type MemoryBurstCounter struct {
	mu      sync.Mutex
	windows map[string]*burstWindow
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

func NewMemoryBurstCounter() *MemoryBurstCounter {
	return newMemoryBurstCounter(time.Now)
}

func newMemoryBurstCounter(now func() time.Time) *MemoryBurstCounter {
	c := &MemoryBurstCounter{
		windows: make(map[string]*burstWindow),
		now:     now,
		stop:    make(chan struct{}),
	}

	go c.cleanupLoop(time.Minute)

	return c
}

func (c *MemoryBurstCounter) IncrementWithExpiry(_ context.Context, key string, window time.Duration) (int64, error) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	w, ok := c.windows[key]
	if !ok || !now.Before(w.expiresAt) {
		w = &burstWindow{expiresAt: now.Add(window)}
		c.windows[key] = w
	}
	w.count++
	return w.count, nil
}

func (c *MemoryBurstCounter) TTL(_ context.Context, key string) (time.Duration, error) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	w, ok := c.windows[key]
	if !ok || !now.Before(w.expiresAt) {
		return 0, nil
	}
	return w.expiresAt.Sub(now), nil
}

func (c *MemoryBurstCounter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *MemoryBurstCounter) sweep() {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, w := range c.windows {
		if !now.Before(w.expiresAt) {
			delete(c.windows, key)
		}
	}
}

func (c *MemoryBurstCounter) Close() error {
	c.once.Do(func() { close(c.stop) })
	return nil
}
