package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/crawlpulse/datafilters/pkg/filter"
)

// CachedCatalog is the serialized form of a dataset's field list
type CachedCatalog struct {
	DatasetType string        `json:"dataset_type"`
	Fields      filter.Fields `json:"fields"`
	UpdatedAt   time.Time     `json:"updated_at"`
	TTL         time.Duration `json:"ttl"`
}

// Cache stores field catalogs in Redis
type Cache struct {
	redisClient *redis.Client
	keyPrefix   string
}

// NewCache creates a catalog cache. keyPrefix is prepended to the dataset type.
func NewCache(redisClient *redis.Client, keyPrefix string) *Cache {
	return &Cache{
		redisClient: redisClient,
		keyPrefix:   keyPrefix,
	}
}

func (c *Cache) key(datasetType string) string {
	return c.keyPrefix + datasetType
}

// Get retrieves a cached catalog. A miss or an expired entry returns nil, nil.
func (c *Cache) Get(ctx context.Context, datasetType string) (*CachedCatalog, error) {
	key := c.key(datasetType)

	data, err := c.redisClient.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var cached CachedCatalog
	if err := json.Unmarshal([]byte(data), &cached); err != nil {
		return nil, err
	}

	if cached.TTL > 0 && time.Since(cached.UpdatedAt) > cached.TTL {
		_ = c.redisClient.Del(ctx, key)
		return nil, nil
	}

	return &cached, nil
}

// Set stores a catalog
func (c *Cache) Set(ctx context.Context, cached CachedCatalog) error {
	data, err := json.Marshal(cached)
	if err != nil {
		return err
	}

	return c.redisClient.Set(ctx, c.key(cached.DatasetType), data, cached.TTL).Err()
}

// Invalidate removes a dataset's catalog from the cache
func (c *Cache) Invalidate(ctx context.Context, datasetType string) error {
	return c.redisClient.Del(ctx, c.key(datasetType)).Err()
}
