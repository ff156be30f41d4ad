package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fvockel/squadscout/internal/store"
)

const (
	snapshotTTL   = 24 * time.Hour
	rawProfileTTL = 7 * 24 * time.Hour
)

// RedisCache handles snapshot and raw-document caching
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis cache connection
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisCache{
		client: client,
	}, nil
}

// Close closes the Redis connection
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

// Client returns the underlying Redis client
func (rc *RedisCache) Client() *redis.Client {
	return rc.client
}

// HealthCheck pings Redis to verify connection
func (rc *RedisCache) HealthCheck(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// GetSnapshot returns the cached flattened harvest for a (country, season).
// Cache misses and decode failures both read as a miss; the caller re-harvests.
func (rc *RedisCache) GetSnapshot(ctx context.Context, countryID, seasonID int) ([]store.FlatPlayer, bool) {
	raw, err := rc.client.Get(ctx, snapshotKey(countryID, seasonID)).Result()
	if err != nil {
		return nil, false
	}

	var rows []store.FlatPlayer
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		log.Printf("Cache: dropping undecodable snapshot %d/%d: %v", countryID, seasonID, err)
		rc.client.Del(ctx, snapshotKey(countryID, seasonID))
		return nil, false
	}

	return rows, true
}

// SetSnapshot stores the flattened harvest for a (country, season). Failures
// are logged, not returned: the snapshot is a convenience, not the store.
func (rc *RedisCache) SetSnapshot(ctx context.Context, countryID, seasonID int, rows []store.FlatPlayer) {
	data, err := json.Marshal(rows)
	if err != nil {
		log.Printf("Cache: encoding snapshot %d/%d: %v", countryID, seasonID, err)
		return
	}

	if err := rc.client.Set(ctx, snapshotKey(countryID, seasonID), data, snapshotTTL).Err(); err != nil {
		log.Printf("Cache: storing snapshot %d/%d: %v", countryID, seasonID, err)
	}
}

// GetRawProfile returns a cached profile page document.
func (rc *RedisCache) GetRawProfile(ctx context.Context, externalPlayerID string) (string, bool) {
	raw, err := rc.client.Get(ctx, rawProfileKey(externalPlayerID)).Result()
	if err != nil {
		return "", false
	}
	return raw, true
}

// SetRawProfile stores a fetched profile page document verbatim.
func (rc *RedisCache) SetRawProfile(ctx context.Context, externalPlayerID, html string) {
	if err := rc.client.Set(ctx, rawProfileKey(externalPlayerID), html, rawProfileTTL).Err(); err != nil {
		log.Printf("Cache: storing raw profile %s: %v", externalPlayerID, err)
	}
}

func snapshotKey(countryID, seasonID int) string {
	return fmt.Sprintf("snapshot:%d:%d", countryID, seasonID)
}

func rawProfileKey(externalPlayerID string) string {
	return "profile:raw:" + externalPlayerID
}
