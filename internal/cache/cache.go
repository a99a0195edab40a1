package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores read-model views by key. Misses and backend failures look
// the same to callers: the view is simply not there.
type Cache[T any] interface {
	Get(ctx context.Context, key string) (*T, bool)
	Set(ctx context.Context, key string, value *T)
	Delete(ctx context.Context, key string)
}

// ViewCache is a JSON-backed Redis cache bound to one view type. A zero TTL
// stores keys without expiry.
type ViewCache[T any] struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ Cache[struct{}] = (*ViewCache[struct{}])(nil)

func NewViewCache[T any](client *redis.Client, ttl time.Duration, logger *slog.Logger) *ViewCache[T] {
	return &ViewCache[T]{client: client, ttl: ttl, logger: logger}
}

func (c *ViewCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("Cache read failed", "key", key, "error", err)
		}
		return nil, false
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.Warn("Cache entry is not valid JSON", "key", key, "error", err)
		return nil, false
	}
	return &v, true
}

// Set errors are logged rather than returned; a failed cache write is not fatal.
func (c *ViewCache[T]) Set(ctx context.Context, key string, value *T) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("Cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Cache write failed", "key", key, "error", err)
	}
}

func (c *ViewCache[T]) Delete(ctx context.Context, key string) {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Warn("Cache delete failed", "key", key, "error", err)
	}
}

// NopCache never stores anything. Used when Redis is not configured.
type NopCache[T any] struct{}

func (NopCache[T]) Get(context.Context, string) (*T, bool) { return nil, false }
func (NopCache[T]) Set(context.Context, string, *T)        {}
func (NopCache[T]) Delete(context.Context, string)         {}
