package extractor

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore persists embedding vectors keyed by input digest. The cache is
// advisory: lookup or store failures fall back to the wrapped provider.
type CacheStore interface {
	Get(ctx context.Context, key string) (Vector, bool, error)
	Set(ctx context.Context, key string, vec Vector) error
	Close() error
}

// memoryCache is the default in-process store.
type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]Vector
}

// NewMemoryCache creates an unbounded in-process cache store.
func NewMemoryCache() CacheStore {
	return &memoryCache{entries: make(map[string]Vector)}
}

func (c *memoryCache) Get(ctx context.Context, key string) (Vector, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	vec, ok := c.entries[key]
	return vec, ok, nil
}

func (c *memoryCache) Set(ctx context.Context, key string, vec Vector) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = vec
	return nil
}

func (c *memoryCache) Close() error { return nil }

// redisCache shares embeddings across processes.
type redisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisCacheConfig carries redis cache store settings.
type RedisCacheConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// NewRedisCache connects a redis-backed cache store.
func NewRedisCache(cfg RedisCacheConfig) CacheStore {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "trulogo:embed:"
	}
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &redisCache{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *redisCache) Get(ctx context.Context, key string) (Vector, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var vec Vector
	if err := json.Unmarshal(data, &vec); err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

func (c *redisCache) Set(ctx context.Context, key string, vec Vector) error {
	data, err := json.Marshal(vec)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key, data, c.ttl).Err()
}

func (c *redisCache) Close() error {
	return c.client.Close()
}

// cached decorates a provider with an embedding cache. Hashing stays on the
// wrapped provider; it is cheaper than a cache round trip.
type cached struct {
	inner Provider
	store CacheStore
}

// NewCached wraps a provider with the given cache store.
func NewCached(inner Provider, store CacheStore) Provider {
	return &cached{inner: inner, store: store}
}

func cacheKey(space string, payload []byte) string {
	return fmt.Sprintf("%s:%x", space, sha256.Sum256(payload))
}

func (c *cached) lookup(ctx context.Context, key string, miss func() (Vector, error)) (Vector, error) {
	if vec, ok, err := c.store.Get(ctx, key); err == nil && ok {
		return vec, nil
	}
	vec, err := miss()
	if err != nil {
		return nil, err
	}
	_ = c.store.Set(ctx, key, vec)
	return vec, nil
}

func (c *cached) EmbedImage(ctx context.Context, data []byte) (Vector, error) {
	return c.lookup(ctx, cacheKey("img", data), func() (Vector, error) {
		return c.inner.EmbedImage(ctx, data)
	})
}

func (c *cached) EmbedText(ctx context.Context, text string) (Vector, error) {
	return c.lookup(ctx, cacheKey("txt", []byte(text)), func() (Vector, error) {
		return c.inner.EmbedText(ctx, text)
	})
}

func (c *cached) EmbedTextAsVisualConcept(ctx context.Context, text string) (Vector, error) {
	return c.lookup(ctx, cacheKey("vis", []byte(text)), func() (Vector, error) {
		return c.inner.EmbedTextAsVisualConcept(ctx, text)
	})
}

func (c *cached) PerceptualHash(data []byte) (string, error) {
	return c.inner.PerceptualHash(data)
}

func (c *cached) Initialize() error { return c.inner.Initialize() }

func (c *cached) Cleanup() error {
	err := c.inner.Cleanup()
	if cerr := c.store.Close(); err == nil {
		err = cerr
	}
	return err
}
