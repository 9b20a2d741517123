// Package redis provides the Redis-backed translation cache. Cached entries
// are shared across all server instances pointing at the same Redis.
package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turaslabs/turas/internal/observability"
)

// Config contains Redis connection settings.
type Config struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// TranslationCache implements domain.TranslationCache on Redis with
// per-entry TTL.
type TranslationCache struct {
	client *redis.Client
}

// NewClient creates a Redis client from config.
func NewClient(cfg Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// NewTranslationCache creates a new Redis-backed translation cache.
func NewTranslationCache(client *redis.Client) *TranslationCache {
	return &TranslationCache{client: client}
}

// Get retrieves a cached translation. Redis failures degrade to a cache miss.
func (c *TranslationCache) Get(ctx context.Context, text, target string) (string, bool) {
	value, err := c.client.Get(ctx, cacheKey(text, target)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			observability.FromContext(ctx).Warn("translation cache get failed",
				observability.Error(err))
		}
		return "", false
	}

	return value, true
}

// Set stores a translation with the given TTL. Failures are logged and
// swallowed; the cache is an optimization, never a correctness dependency.
func (c *TranslationCache) Set(ctx context.Context, text, target, translated string, ttl time.Duration) {
	if err := c.client.Set(ctx, cacheKey(text, target), translated, ttl).Err(); err != nil {
		observability.FromContext(ctx).Warn("translation cache set failed",
			observability.Error(err))
	}
}

// cacheKey hashes the source text so arbitrary user input never lands in a
// Redis key verbatim.
func cacheKey(text, target string) string {
	hash := sha256.Sum256([]byte(text))
	return fmt.Sprintf("trans:%s:%s", hex.EncodeToString(hash[:]), target)
}
