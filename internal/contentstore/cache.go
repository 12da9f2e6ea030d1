package contentstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisContentKeyPrefix = "ipfs:content:"

// Cache stores fetched documents by content identifier. There is no
// invalidation beyond TTL, so keep it short: a gateway may serve different
// bytes for one address over time.
type Cache interface {
	// Get returns ErrNotFound on a miss.
	Get(ctx context.Context, contentID string) ([]byte, error)
	Set(ctx context.Context, contentID string, data []byte) error
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryCache is a process-local Cache. Expired entries are dropped on read
// and by Sweep.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
	metrics *Metrics
}

// NewMemoryCache builds a MemoryCache; metrics may be nil.
func NewMemoryCache(ttl time.Duration, metrics *Metrics) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
		metrics: metrics,
	}
}

func (c *MemoryCache) Get(_ context.Context, contentID string) ([]byte, error) {
	c.mu.RLock()
	entry, ok := c.entries[contentID]
	c.mu.RUnlock()
	if !ok {
		c.metrics.recordCacheMiss("memory")
		return nil, ErrNotFound
	}
	if c.ttl > 0 && !c.now().Before(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, contentID)
		c.mu.Unlock()
		c.metrics.recordCacheMiss("memory")
		return nil, ErrNotFound
	}
	c.metrics.recordCacheHit("memory")
	return append([]byte(nil), entry.data...), nil
}

func (c *MemoryCache) Set(_ context.Context, contentID string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[contentID] = memoryEntry{
		data:      append([]byte(nil), data...),
		expiresAt: c.now().Add(c.ttl),
	}
	return nil
}

// Sweep drops expired entries and returns how many were removed.
func (c *MemoryCache) Sweep() int {
	if c.ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for id, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, id)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep on every tick until ctx is cancelled.
func (c *MemoryCache) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// RedisCache persists fetched documents in Redis with TTL-based eviction.
type RedisCache struct {
	client  *redis.Client
	ttl     time.Duration
	metrics *Metrics
}

// NewRedisCache constructs a Redis-backed content cache; metrics may be nil.
func NewRedisCache(client *redis.Client, ttl time.Duration, metrics *Metrics) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, metrics: metrics}
}

// Get performs a Redis GET and records hit/miss metrics.
func (c *RedisCache) Get(ctx context.Context, contentID string) ([]byte, error) {
	data, err := c.client.Get(ctx, contentKey(contentID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.metrics.recordCacheMiss("redis")
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find content cache: %w", err)
	}
	c.metrics.recordCacheHit("redis")
	return data, nil
}

// Set overwrites any existing entry.
func (c *RedisCache) Set(ctx context.Context, contentID string, data []byte) error {
	if err := c.client.Set(ctx, contentKey(contentID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("save content cache: %w", err)
	}
	return nil
}

func contentKey(contentID string) string {
	return redisContentKeyPrefix + contentID
}

var (
	_ Cache = (*MemoryCache)(nil)
	_ Cache = (*RedisCache)(nil)
)
