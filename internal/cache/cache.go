// ===============================
// FILE: internal/cache/cache.go
// ===============================

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ===============================
// CACHE INTERFACE
// ===============================

// Cache is the backend contract shared by the unread-badge cache and the
// rate limiter. Counters rely on Increment being atomic per key.
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, bool)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	SetTTL(ctx context.Context, key string, ttl time.Duration) error
	Increment(ctx context.Context, key string, delta int64) (int64, error)
	Stats(ctx context.Context) (*CacheStats, error)
	Close() error
}

// CacheStats is a point-in-time view of backend activity
type CacheStats struct {
	Hits     int64         `json:"hits"`
	Misses   int64         `json:"misses"`
	Sets     int64         `json:"sets"`
	Deletes  int64         `json:"deletes"`
	Keys     int64         `json:"keys"`
	HitRatio float64       `json:"hit_ratio"`
	Uptime   time.Duration `json:"uptime"`

	// Redis only
	UsedMemory       int64 `json:"used_memory,omitempty"`
	ConnectedClients int64 `json:"connected_clients,omitempty"`
	EvictedKeys      int64 `json:"evicted_keys,omitempty"`
}

// ===============================
// CACHE CONFIGURATION
// ===============================

// Config holds cache configuration
type Config struct {
	Provider        string        `json:"provider" yaml:"provider"` // "memory", "redis"
	TTL             time.Duration `json:"ttl" yaml:"ttl"`
	MaxKeys         int           `json:"max_keys" yaml:"max_keys"`
	CleanupInterval time.Duration `json:"cleanup_interval" yaml:"cleanup_interval"`

	RedisURL      string `json:"redis_url" yaml:"redis_url"`
	RedisDB       int    `json:"redis_db" yaml:"redis_db"`
	RedisPassword string `json:"redis_password" yaml:"redis_password"`
	PoolSize      int    `json:"pool_size" yaml:"pool_size"`
}

// DefaultConfig returns a default cache configuration
func DefaultConfig() *Config {
	return &Config{
		Provider:        "memory",
		TTL:             15 * time.Minute,
		MaxKeys:         10000,
		CleanupInterval: 5 * time.Minute,
		PoolSize:        10,
	}
}

// NewCache builds the backend named by the configuration
func NewCache(config *Config, logger *zap.Logger) (Cache, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	switch strings.ToLower(config.Provider) {
	case "redis":
		return NewRedisCache(config, logger)
	case "memory", "":
		logger.Info("Using in-memory cache")
		return NewMemoryCache(config, logger), nil
	default:
		return nil, fmt.Errorf("unsupported cache provider: %s", config.Provider)
	}
}

// ===============================
// MEMORY CACHE IMPLEMENTATION
// ===============================

type memoryCache struct {
	mu              sync.Mutex
	items           map[string]*cacheItem
	maxKeys         int
	cleanupInterval time.Duration
	logger          *zap.Logger
	stats           CacheStats
	startTime       time.Time
	stopCh          chan struct{}
}

type cacheItem struct {
	value      interface{}
	expiresAt  time.Time
	accessedAt time.Time
}

// NewMemoryCache creates an in-memory cache with a background sweep of
// expired entries.
func NewMemoryCache(config *Config, logger *zap.Logger) Cache {
	c := &memoryCache{
		items:           make(map[string]*cacheItem),
		maxKeys:         config.MaxKeys,
		cleanupInterval: config.CleanupInterval,
		logger:          logger,
		startTime:       time.Now(),
		stopCh:          make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

func (c *memoryCache) Get(ctx context.Context, key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, exists := c.items[key]
	if !exists || time.Now().After(item.expiresAt) {
		if exists {
			delete(c.items, key)
		}
		c.stats.Misses++
		return nil, false
	}

	item.accessedAt = time.Now()
	c.stats.Hits++
	return item.value, true
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxKeys {
		c.evictOldest()
	}

	now := time.Now()
	c.items[key] = &cacheItem{
		value:      value,
		expiresAt:  now.Add(ttl),
		accessedAt: now,
	}
	c.stats.Sets++
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; exists {
		delete(c.items, key)
		c.stats.Deletes++
	}
	return nil
}

func (c *memoryCache) SetTTL(ctx context.Context, key string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if item, exists := c.items[key]; exists {
		item.expiresAt = time.Now().Add(ttl)
	}
	return nil
}

// Increment creates missing keys with the delta value so callers can use
// it as a counter without a prior Set.
func (c *memoryCache) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	item, exists := c.items[key]
	if !exists || now.After(item.expiresAt) {
		c.items[key] = &cacheItem{
			value:      delta,
			expiresAt:  now.Add(24 * time.Hour),
			accessedAt: now,
		}
		return delta, nil
	}

	switch v := item.value.(type) {
	case int64:
		item.value = v + delta
		item.accessedAt = now
		return v + delta, nil
	case int:
		item.value = int64(v) + delta
		item.accessedAt = now
		return int64(v) + delta, nil
	default:
		return 0, fmt.Errorf("value at %q is not numeric", key)
	}
}

func (c *memoryCache) Stats(ctx context.Context) (*CacheStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Keys = int64(len(c.items))
	stats.Uptime = time.Since(c.startTime)
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRatio = float64(stats.Hits) / float64(total)
	}
	return &stats, nil
}

func (c *memoryCache) Close() error {
	close(c.stopCh)
	return nil
}

func (c *memoryCache) cleanupLoop() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopCh:
			return
		}
	}
}

func (c *memoryCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, key)
			removed++
		}
	}

	if removed > 0 {
		c.logger.Debug("Swept expired cache entries",
			zap.Int("removed", removed),
			zap.Int("remaining", len(c.items)),
		)
	}
}

// evictOldest drops the least recently touched entry. Caller holds the lock.
func (c *memoryCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, item := range c.items {
		if oldestKey == "" || item.accessedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = item.accessedAt
		}
	}
	if oldestKey != "" {
		delete(c.items, oldestKey)
	}
}

// ===============================
// REDIS CACHE IMPLEMENTATION
// ===============================

type redisCache struct {
	client *redis.Client
	logger *zap.Logger
	config *Config
}

// NewRedisCache connects to Redis and verifies the connection before
// handing the backend out.
func NewRedisCache(config *Config, logger *zap.Logger) (Cache, error) {
	if config == nil {
		return nil, fmt.Errorf("cache config cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var options *redis.Options
	if config.RedisURL != "" {
		var err error
		options, err = redis.ParseURL(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
		}
	} else {
		options = &redis.Options{
			Addr:     "localhost:6379",
			Password: config.RedisPassword,
			DB:       config.RedisDB,
		}
	}
	if config.PoolSize > 0 {
		options.PoolSize = config.PoolSize
	}

	client := redis.NewClient(options)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis cache initialized",
		zap.String("addr", options.Addr),
		zap.Int("db", options.DB),
	)
	return &redisCache{client: client, logger: logger, config: config}, nil
}

func (r *redisCache) Get(ctx context.Context, key string) (interface{}, bool) {
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false
	} else if err != nil {
		r.logger.Error("Redis get failed",
			zap.String("key", key),
			zap.Error(err))
		return nil, false
	}

	// Values round-trip through JSON; plain strings come back as-is.
	var result interface{}
	if err := json.Unmarshal([]byte(val), &result); err == nil {
		return result, true
	}
	return val, true
}

func (r *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	var val string
	switch v := value.(type) {
	case string:
		val = v
	case []byte:
		val = string(v)
	default:
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal value: %w", err)
		}
		val = string(data)
	}

	if ttl <= 0 {
		ttl = r.config.TTL
	}
	return r.client.Set(ctx, key, val, ttl).Err()
}

func (r *redisCache) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *redisCache) SetTTL(ctx context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.config.TTL
	}
	return r.client.Expire(ctx, key, ttl).Err()
}

func (r *redisCache) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	return r.client.IncrBy(ctx, key, delta).Result()
}

func (r *redisCache) Stats(ctx context.Context) (*CacheStats, error) {
	stats := &CacheStats{}

	for _, section := range []string{"stats", "memory", "clients"} {
		info, err := r.client.Info(ctx, section).Result()
		if err != nil {
			r.logger.Warn("Failed to read Redis info",
				zap.String("section", section),
				zap.Error(err))
			continue
		}

		for _, line := range strings.Split(info, "\r\n") {
			parts := strings.SplitN(line, ":", 2)
			if len(parts) != 2 {
				continue
			}
			value, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
			if err != nil {
				continue
			}

			switch strings.TrimSpace(parts[0]) {
			case "keyspace_hits":
				stats.Hits = value
			case "keyspace_misses":
				stats.Misses = value
			case "used_memory":
				stats.UsedMemory = value
			case "connected_clients":
				stats.ConnectedClients = value
			case "evicted_keys":
				stats.EvictedKeys = value
			}
		}
	}

	if keys, err := r.client.DBSize(ctx).Result(); err == nil {
		stats.Keys = keys
	}
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRatio = float64(stats.Hits) / float64(total)
	}
	return stats, nil
}

func (r *redisCache) Close() error {
	return r.client.Close()
}
