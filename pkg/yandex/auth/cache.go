package auth

import (
	"context"
	"log/slog"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// TokenCache stores minted IAM tokens until shortly before they expire.
type TokenCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, token string, ttl time.Duration)
}

type memoryEntry struct {
	token     string
	expiresAt time.Time
}

// MemoryCache is the default in-process token cache.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}

	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)

		return "", false
	}

	return entry.token, true
}

func (c *MemoryCache) Set(_ context.Context, key string, token string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoryEntry{
		token:     token,
		expiresAt: c.now().Add(ttl),
	}
}

// RedisCache shares minted tokens between processes. Cache failures are
// logged and treated as misses so a broken Redis never blocks an execution.
type RedisCache struct {
	client redis.UniversalClient
	logger *slog.Logger
}

func NewRedisCache(client redis.UniversalClient, logger *slog.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		logger: logger.With("module", "token_cache"),
	}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	token, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.WarnContext(ctx, "Token cache read failed", "error", err)
		}

		return "", false
	}

	return token, true
}

func (c *RedisCache) Set(ctx context.Context, key string, token string, ttl time.Duration) {
	if err := c.client.Set(ctx, key, token, ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "Token cache write failed", "error", err)
	}
}
