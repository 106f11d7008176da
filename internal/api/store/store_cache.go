package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/go-food-course-suggestions/internal/types"
)

// ListingCache keeps region listings between requests. Cache failures are
// never fatal; a miss just means the source is asked again.
type ListingCache interface {
	Get(ctx context.Context, region string) ([]types.RegionRecord, bool)
	Set(ctx context.Context, region string, records []types.RegionRecord)
}

func listingKey(region string) string {
	return "region_stores:" + region
}

type MemoryListingCache struct {
	cache *cache.Cache
}

func NewMemoryListingCache(ttl time.Duration) *MemoryListingCache {
	return &MemoryListingCache{cache: cache.New(ttl, 10*time.Minute)}
}

func (c *MemoryListingCache) Get(_ context.Context, region string) ([]types.RegionRecord, bool) {
	v, found := c.cache.Get(listingKey(region))
	if !found {
		return nil, false
	}
	records, ok := v.([]types.RegionRecord)
	return records, ok
}

func (c *MemoryListingCache) Set(_ context.Context, region string, records []types.RegionRecord) {
	c.cache.Set(listingKey(region), records, cache.DefaultExpiration)
}

type RedisListingCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisListingCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisListingCache {
	return &RedisListingCache{
		client: client,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "RedisListingCache")),
	}
}

func (c *RedisListingCache) Get(ctx context.Context, region string) ([]types.RegionRecord, bool) {
	data, err := c.client.Get(ctx, listingKey(region)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "Failed to read region listing from redis", slog.String("region", region), slog.Any("error", err))
		}
		return nil, false
	}
	var records []types.RegionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		c.logger.WarnContext(ctx, "Discarding unreadable cached region listing", slog.String("region", region), slog.Any("error", err))
		return nil, false
	}
	return records, true
}

func (c *RedisListingCache) Set(ctx context.Context, region string, records []types.RegionRecord) {
	data, err := json.Marshal(records)
	if err != nil {
		c.logger.WarnContext(ctx, "Failed to encode region listing", slog.String("region", region), slog.Any("error", err))
		return
	}
	if err := c.client.Set(ctx, listingKey(region), data, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "Failed to write region listing to redis", slog.String("region", region), slog.Any("error", err))
	}
}
