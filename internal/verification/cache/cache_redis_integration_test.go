//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certledger/internal/hashing"
	"certledger/internal/verification"
	"certledger/pkg/testutil/containers"
)

func TestRedisCacheRoundTrip(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	c := NewRedis(rc.Client, time.Minute)
	ctx := context.Background()

	digest := hashing.Sum([]byte("cached document"))
	key := digest.String()
	result := verification.Result{Status: verification.StatusRevoked, UploadedHash: digest}

	_, ok := c.Get(ctx, key)
	assert.False(t, ok)

	c.Set(ctx, key, result)
	got, ok := c.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, result, got)
}

func TestRedisCacheTTL(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	c := NewRedis(rc.Client, time.Second)
	ctx := context.Background()

	key := hashing.Sum([]byte("expiring document")).String()
	c.Set(ctx, key, verification.Result{Status: verification.StatusValid})

	ttl, err := rc.Client.TTL(ctx, keyPrefix+key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Second)
}

func TestRedisCacheCorruptPayloadIsMiss(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	c := NewRedis(rc.Client, time.Minute)
	ctx := context.Background()

	key := hashing.Sum([]byte("mangled")).String()
	require.NoError(t, rc.Client.Set(ctx, keyPrefix+key, "{not json", time.Minute).Err())

	_, ok := c.Get(ctx, key)
	assert.False(t, ok)
}
