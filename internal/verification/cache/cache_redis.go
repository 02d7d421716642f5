package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"certledger/internal/verification"
)

const keyPrefix = "certledger:verify:"

// Redis caches verification outcomes in Redis with a server-side TTL. Cache
// failures degrade to misses; verification never fails because the cache did.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates a Redis-backed cache with the given TTL.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (c *Redis) Get(ctx context.Context, key string) (verification.Result, bool) {
	payload, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		return verification.Result{}, false
	}
	var result verification.Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return verification.Result{}, false
	}
	return result, true
}

func (c *Redis) Set(ctx context.Context, key string, result verification.Result) {
	payload, err := json.Marshal(result)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, keyPrefix+key, payload, c.ttl).Err()
}
