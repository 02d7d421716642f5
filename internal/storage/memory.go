package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"

	"certledger/pkg/platform/sentinel"
)

// Memory is an in-process content-addressed store. Refs are CIDv1 (raw codec,
// SHA2-256), so identical content always maps to the same ref and the ref is
// verifiable against the content it names.
type Memory struct {
	mu    sync.RWMutex
	blobs map[Ref][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{blobs: make(map[Ref][]byte)}
}

// Store persists data under its content-derived ref. Storing the same bytes
// twice is a no-op returning the same ref.
func (m *Memory) Store(_ context.Context, data []byte) (Ref, error) {
	ref, err := refFor(data)
	if err != nil {
		return "", &StoreError{Cause: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[ref] = append([]byte(nil), data...)
	return ref, nil
}

// Fetch returns the blob stored under ref. Unknown and unpinned refs fail
// with a FetchError wrapping sentinel.ErrNotFound.
func (m *Memory) Fetch(_ context.Context, ref Ref) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.blobs[ref]
	if !ok {
		return nil, &FetchError{Ref: ref, Cause: sentinel.ErrNotFound}
	}
	return append([]byte(nil), data...), nil
}

// Unpin drops the blob. Unknown refs report false, matching the best-effort
// contract of a remote unpin call.
func (m *Memory) Unpin(_ context.Context, ref Ref) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[ref]; !ok {
		return false
	}
	delete(m.blobs, ref)
	return true
}

// Len reports how many blobs are currently pinned.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}

func refFor(data []byte) (Ref, error) {
	sum, err := mh.Sum(data, mh.SHA2_256, -1)
	if err != nil {
		return "", fmt.Errorf("hash blob: %w", err)
	}
	return Ref(cid.NewCidV1(cid.Raw, sum).String()), nil
}
