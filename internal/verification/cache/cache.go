// Package cache memoizes document-verification outcomes under the
// service-built key, which scopes an outcome to the uploaded digest plus the
// candidate ID it was classified against. Entries are short-lived: revocation must surface within the TTL, so
// this is a burst absorber for repeated uploads of the same document, not a
// source of truth.
package cache

import (
	"context"
	"sync"
	"time"

	"certledger/internal/verification"
)

// Memory is an in-process TTL cache. It satisfies verification.Cache.
type Memory struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

type memoryEntry struct {
	result   verification.Result
	storedAt time.Time
}

// NewMemory creates an in-process cache with the given TTL.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, entries: make(map[string]memoryEntry)}
}

func (c *Memory) Get(_ context.Context, key string) (verification.Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	if !ok || time.Since(entry.storedAt) >= c.ttl {
		return verification.Result{}, false
	}
	return entry.result, true
}

func (c *Memory) Set(_ context.Context, key string, result verification.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{result: result, storedAt: time.Now()}
}
