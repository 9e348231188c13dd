package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"restaurant-match-backend/internal/catalog"

	"github.com/redis/go-redis/v9"
)

// CatalogCache keeps catalog search pages in Redis
type CatalogCache struct {
	redis *redis.Client
}

// NewCatalogCache creates a new catalog cache
func NewCatalogCache(client *redis.Client) *CatalogCache {
	return &CatalogCache{redis: client}
}

// Get returns a cached page or nil on a miss
func (c *CatalogCache) Get(ctx context.Context, key string) (*catalog.Page, error) {
	raw, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cached page: %w", err)
	}

	var page catalog.Page
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("failed to decode cached page: %w", err)
	}
	return &page, nil
}

// Set caches a page for ttl
func (c *CatalogCache) Set(ctx context.Context, key string, page *catalog.Page, ttl time.Duration) error {
	raw, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("failed to encode page: %w", err)
	}
	if err := c.redis.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache page: %w", err)
	}
	return nil
}
