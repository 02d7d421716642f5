package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"certledger/internal/hashing"
	"certledger/internal/verification"
)

func TestMemoryRoundTrip(t *testing.T) {
	c := NewMemory(time.Minute)
	ctx := context.Background()
	digest := hashing.Sum([]byte("some document"))
	key := digest.String()
	result := verification.Result{Status: verification.StatusValid, UploadedHash: digest}

	_, ok := c.Get(ctx, key)
	assert.False(t, ok)

	c.Set(ctx, key, result)
	got, ok := c.Get(ctx, key)
	assert.True(t, ok)
	assert.Equal(t, result, got)
}

func TestMemoryExpiry(t *testing.T) {
	c := NewMemory(10 * time.Millisecond)
	ctx := context.Background()
	key := hashing.Sum([]byte("short lived")).String()

	c.Set(ctx, key, verification.Result{Status: verification.StatusValid})
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get(ctx, key)
	assert.False(t, ok)
}

func TestMemoryMissOnOtherKey(t *testing.T) {
	c := NewMemory(time.Minute)
	ctx := context.Background()

	c.Set(ctx, hashing.Sum([]byte("a")).String(), verification.Result{Status: verification.StatusValid})
	_, ok := c.Get(ctx, hashing.Sum([]byte("b")).String())
	assert.False(t, ok)
}

func TestMemoryKeysCandidateScopesSeparately(t *testing.T) {
	c := NewMemory(time.Minute)
	ctx := context.Background()
	key := hashing.Sum([]byte("doc")).String()

	c.Set(ctx, key+":1", verification.Result{Status: verification.StatusTampered})
	_, ok := c.Get(ctx, key+":2")
	assert.False(t, ok)
	_, ok = c.Get(ctx, key)
	assert.False(t, ok)
}
