package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/achufistov/shortypanel/internal/app/models"
)

// DefaultCacheTTL bounds how long a resolved code stays cached.
const DefaultCacheTTL = 24 * time.Hour

// CachedStorage is a read-through redis cache of short code lookups in front of a Storage.
// Redis failures degrade to the underlying store.
type CachedStorage struct {
	Storage
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedStorage wraps next with a redis cache. A non-positive ttl uses DefaultCacheTTL.
func NewCachedStorage(next Storage, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedStorage {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedStorage{Storage: next, redis: client, ttl: ttl, logger: logger}
}

func cacheKey(shortURL string) string {
	return fmt.Sprintf("shorturl:code:%s", shortURL)
}

// GetURLByShort returns the cached URL or loads it from the store and caches it.
func (c *CachedStorage) GetURLByShort(ctx context.Context, shortURL string) (models.URL, error) {
	key := cacheKey(shortURL)

	raw, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var u models.URL
		if jsonErr := json.Unmarshal(raw, &u); jsonErr == nil {
			return u, nil
		}
		c.logger.Warn("dropping malformed cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("redis get failed", zap.String("key", key), zap.Error(err))
	}

	u, err := c.Storage.GetURLByShort(ctx, shortURL)
	if err != nil {
		return models.URL{}, err
	}

	if data, err := json.Marshal(u); err == nil {
		if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("redis set failed", zap.String("key", key), zap.Error(err))
		}
	}
	return u, nil
}

// DeleteURL removes the URL from the store and evicts its cache entry.
func (c *CachedStorage) DeleteURL(ctx context.Context, id int64) error {
	u, lookupErr := c.Storage.GetURLByID(ctx, id)
	if err := c.Storage.DeleteURL(ctx, id); err != nil {
		return err
	}
	if lookupErr == nil {
		if err := c.redis.Del(ctx, cacheKey(u.ShortURL)).Err(); err != nil {
			c.logger.Warn("redis del failed", zap.Int64("url_id", id), zap.Error(err))
		}
	}
	return nil
}

// Ping checks both the store and redis.
func (c *CachedStorage) Ping(ctx context.Context) error {
	if err := c.Storage.Ping(ctx); err != nil {
		return err
	}
	return c.redis.Ping(ctx).Err()
}

// Close closes the store and the redis client.
func (c *CachedStorage) Close() error {
	storeErr := c.Storage.Close()
	redisErr := c.redis.Close()
	if storeErr != nil {
		return fmt.Errorf("failed to close store: %w", storeErr)
	}
	if redisErr != nil {
		return fmt.Errorf("failed to close redis: %w", redisErr)
	}
	return nil
}
