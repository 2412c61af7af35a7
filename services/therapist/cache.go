package therapist

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"manmitra/models"
)

const directoryCacheKey = "therapists:approved"

// DirectoryTTL bounds staleness of the public therapist listing.
const DirectoryTTL = 5 * time.Minute

// DirectoryCache holds the public listing of approved therapists.
type DirectoryCache interface {
	Get(ctx context.Context) ([]models.PublicTherapist, bool, error)
	Set(ctx context.Context, list []models.PublicTherapist) error
	Invalidate(ctx context.Context) error
}

type RedisDirectoryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDirectoryCache(client *redis.Client, ttl time.Duration) *RedisDirectoryCache {
	if ttl <= 0 {
		ttl = DirectoryTTL
	}
	return &RedisDirectoryCache{client: client, ttl: ttl}
}

func (c *RedisDirectoryCache) Get(ctx context.Context) ([]models.PublicTherapist, bool, error) {
	val, err := c.client.Get(ctx, directoryCacheKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var list []models.PublicTherapist
	if err := json.Unmarshal(val, &list); err != nil {
		// corrupt entry, treat as a miss
		return nil, false, nil
	}
	return list, true, nil
}

func (c *RedisDirectoryCache) Set(ctx context.Context, list []models.PublicTherapist) error {
	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, directoryCacheKey, data, c.ttl).Err()
}

func (c *RedisDirectoryCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, directoryCacheKey).Err()
}
