package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Cache stores JSON payloads under string keys. Misses and backend errors
// are indistinguishable to callers; the source of truth is always the DB.
type Cache interface {
	GetJSON(ctx context.Context, key string, v any) bool
	SetJSON(ctx context.Context, key string, v any)
	InvalidatePrefix(ctx context.Context, prefix string)
}

// New returns a Redis backed cache, or a no-op cache when client is nil.
func New(client *redis.Client, ttl time.Duration, log zerolog.Logger) Cache {
	if client == nil {
		return Noop{}
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisCache{
		client: client,
		ttl:    ttl,
		log:    log.With().Str("component", "cache").Logger(),
	}
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

func (c *RedisCache) GetJSON(ctx context.Context, key string, v any) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	b, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn().Err(err).Str("key", key).Msg("cache get failed")
		}
		return false
	}
	if err := json.Unmarshal(b, v); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache entry undecodable")
		return false
	}
	return true
}

func (c *RedisCache) SetJSON(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.client.Set(ctx, key, b, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
}

// InvalidatePrefix deletes every key starting with prefix using SCAN.
func (c *RedisCache) InvalidatePrefix(ctx context.Context, prefix string) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var cursor uint64
	for range 10 {
		keys, next, err := c.client.Scan(ctx, cursor, prefix+"*", 1000).Result()
		if err != nil {
			c.log.Warn().Err(err).Str("prefix", prefix).Msg("cache invalidation failed")
			return
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.log.Warn().Err(err).Str("prefix", prefix).Msg("cache delete failed")
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}

// Noop never stores anything.
type Noop struct{}

func (Noop) GetJSON(context.Context, string, any) bool { return false }
func (Noop) SetJSON(context.Context, string, any) {}
func (Noop) InvalidatePrefix(context.Context, string) {}
