package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certledger/pkg/platform/sentinel"
)

func TestStoreFetchRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	ref, err := m.Store(ctx, []byte("certificate html"))
	require.NoError(t, err)

	data, err := m.Fetch(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("certificate html"), data)
}

func TestRefIsContentDerived(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	a, err := m.Store(ctx, []byte("same bytes"))
	require.NoError(t, err)
	b, err := m.Store(ctx, []byte("same bytes"))
	require.NoError(t, err)
	c, err := m.Store(ctx, []byte("other bytes"))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	// Refs are valid CIDs.
	parsed, err := ParseRef(a.String())
	require.NoError(t, err)
	assert.Equal(t, a, parsed)
}

func TestFetchUnknownRefFailsNotFound(t *testing.T) {
	m := NewMemory()
	_, err := m.Fetch(context.Background(), Ref("bafkreibogus"))
	require.Error(t, err)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.True(t, errors.Is(err, sentinel.ErrNotFound))
}

func TestUnpinIsBestEffort(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	ref, err := m.Store(ctx, []byte("doomed"))
	require.NoError(t, err)

	assert.True(t, m.Unpin(ctx, ref))
	assert.False(t, m.Unpin(ctx, ref), "second unpin finds nothing")

	_, err = m.Fetch(ctx, ref)
	assert.Error(t, err, "unpinned blob is gone")
}

func TestParseRefRejectsGarbage(t *testing.T) {
	_, err := ParseRef("not a cid")
	assert.Error(t, err)
}

func TestRetrievalURL(t *testing.T) {
	url := RetrievalURL(Ref("bafyexample"))
	assert.True(t, strings.HasPrefix(url, GatewayBase))
	assert.True(t, strings.HasSuffix(url, "bafyexample"))
}
