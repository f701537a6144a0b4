package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oddsradar/oddsradar/internal/pkg/config"
	"github.com/oddsradar/oddsradar/internal/pkg/models"
)

// Ensure RedisListingCache implements ListingCache
var _ ListingCache = (*RedisListingCache)(nil)

// RedisListingCache keeps the latest raw listing snapshot per source.
// Snapshots expire on their own; a source that stops reporting simply
// loses its cache entry after the TTL.
type RedisListingCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisListingCache(cfg *config.RedisConfig) (*RedisListingCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisListingCache{client: client, ttl: cfg.SnapshotTTL}, nil
}

func snapshotKey(source string) string {
	return fmt.Sprintf("listings:%s:latest", source)
}

// StoreSnapshot replaces the cached snapshot for the source.
func (r *RedisListingCache) StoreSnapshot(ctx context.Context, source string, listings []models.RawListing) error {
	data, err := json.Marshal(listings)
	if err != nil {
		return fmt.Errorf("failed to marshal listings: %w", err)
	}
	return r.client.Set(ctx, snapshotKey(source), data, r.ttl).Err()
}

// GetSnapshot returns the cached snapshot, or nil when absent or expired.
func (r *RedisListingCache) GetSnapshot(ctx context.Context, source string) ([]models.RawListing, error) {
	data, err := r.client.Get(ctx, snapshotKey(source)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var listings []models.RawListing
	if err := json.Unmarshal([]byte(data), &listings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal listings: %w", err)
	}
	return listings, nil
}

// Close closes the Redis connection.
func (r *RedisListingCache) Close() error {
	return r.client.Close()
}
