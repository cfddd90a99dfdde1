package infrastructure

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Cache is a two-tier cache: a bounded in-memory L1 in front of an optional
// Redis L2. Values are stored as JSON.
type Cache struct {
	mu         sync.Mutex
	l1         map[string]cacheEntry
	rdb        *redis.Client
	ttl        time.Duration
	maxEntries int
	log        *logrus.Entry
	now        func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

type cacheEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewCache builds a cache; rdb may be nil to run L1 only.
func NewCache(rdb *redis.Client, ttl time.Duration, maxEntries int, log *logrus.Entry) *Cache {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &Cache{
		l1:         make(map[string]cacheEntry),
		rdb:        rdb,
		ttl:        ttl,
		maxEntries: maxEntries,
		log:        log,
		now:        time.Now,
	}
}

// NewRedisClient connects to redisURL. An empty URL disables L2.
func NewRedisClient(ctx context.Context, redisURL string, log *logrus.Entry) *redis.Client {
	if redisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.WithError(err).Warn("cache: invalid redis URL, L2 disabled")
		return nil
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.WithError(err).Warn("cache: redis unreachable, L2 disabled")
		_ = rdb.Close()
		return nil
	}
	log.WithField("addr", opts.Addr).Info("cache: L2 redis connected")
	return rdb
}

// Get loads key into dst. It reports false on a miss or a decode failure.
func (c *Cache) Get(ctx context.Context, key string, dst interface{}) bool {
	if data, ok := c.getL1(key); ok {
		if json.Unmarshal(data, dst) == nil {
			c.hits.Add(1)
			return true
		}
	}

	if c.rdb != nil {
		data, err := c.rdb.Get(ctx, key).Bytes()
		if err == nil && json.Unmarshal(data, dst) == nil {
			c.setL1(key, data)
			c.hits.Add(1)
			return true
		}
		if err != nil && err != redis.Nil {
			c.log.WithError(err).Debug("cache: redis get failed")
		}
	}

	c.misses.Add(1)
	return false
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		c.log.WithError(err).Warn("cache: value not serializable")
		return
	}
	c.setL1(key, data)

	if c.rdb != nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.log.WithError(err).Debug("cache: redis set failed")
		}
	}
}

// InvalidatePrefix drops every key starting with prefix from both tiers.
func (c *Cache) InvalidatePrefix(ctx context.Context, prefix string) {
	c.mu.Lock()
	for k := range c.l1 {
		if strings.HasPrefix(k, prefix) {
			delete(c.l1, k)
		}
	}
	c.mu.Unlock()

	if c.rdb == nil {
		return
	}
	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, prefix+"*", 200).Result()
		if err != nil {
			c.log.WithError(err).Warn("cache: redis scan failed")
			return
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				c.log.WithError(err).Warn("cache: redis delete failed")
			}
		}
		if next == 0 {
			return
		}
		cursor = next
	}
}

// Stats returns hit and miss counters.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Len reports the number of L1 entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.l1)
}

func (c *Cache) getL1(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.l1[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.l1, key)
		return nil, false
	}
	return e.data, true
}

func (c *Cache) setL1(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.l1[key]; !exists && len(c.l1) >= c.maxEntries {
		c.evictLocked(now)
	}
	c.l1[key] = cacheEntry{data: data, expiresAt: now.Add(c.ttl)}
}

// evictLocked drops expired entries; if none expired it drops the entry
// closest to expiry.
func (c *Cache) evictLocked(now time.Time) {
	var (
		oldestKey string
		oldestAt  time.Time
	)
	removed := false
	for k, e := range c.l1 {
		if !now.Before(e.expiresAt) {
			delete(c.l1, k)
			removed = true
			continue
		}
		if oldestKey == "" || e.expiresAt.Before(oldestAt) {
			oldestKey, oldestAt = k, e.expiresAt
		}
	}
	if !removed && oldestKey != "" {
		delete(c.l1, oldestKey)
	}
}

// Cleanup drops expired L1 entries.
func (c *Cache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, e := range c.l1 {
		if !now.Before(e.expiresAt) {
			delete(c.l1, k)
		}
	}
}
