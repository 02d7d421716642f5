package document

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certledger/internal/hashing"
)

var issued = time.Date(2025, 6, 1, 15, 30, 0, 0, time.UTC)

func TestRenderIsDeterministic(t *testing.T) {
	r := NewRenderer("Open Ledger University")

	a, err := r.Render("Alice", "Blockchain 101", issued)
	require.NoError(t, err)
	b, err := r.Render("Alice", "Blockchain 101", issued)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, hashing.Sum(a), hashing.Sum(b))
}

func TestRenderVariesWithInputs(t *testing.T) {
	r := NewRenderer("Open Ledger University")

	a, err := r.Render("Alice", "Blockchain 101", issued)
	require.NoError(t, err)
	b, err := r.Render("Bob", "Blockchain 101", issued)
	require.NoError(t, err)
	c, err := r.Render("Alice", "Blockchain 101", issued.AddDate(0, 0, 1))
	require.NoError(t, err)

	assert.NotEqual(t, hashing.Sum(a), hashing.Sum(b))
	assert.NotEqual(t, hashing.Sum(a), hashing.Sum(c))
}

func TestRenderContainsAttributes(t *testing.T) {
	r := NewRenderer("Open Ledger University")

	data, err := r.Render("Alice", "Blockchain 101", issued)
	require.NoError(t, err)

	doc := string(data)
	assert.Contains(t, doc, "Open Ledger University")
	assert.Contains(t, doc, "Alice")
	assert.Contains(t, doc, "Blockchain 101")
	assert.Contains(t, doc, "June 1, 2025")
	assert.True(t, strings.HasPrefix(doc, "<!DOCTYPE html>"))
}

func TestRenderEscapesMarkup(t *testing.T) {
	r := NewRenderer("Open Ledger University")

	data, err := r.Render("<script>alert(1)</script>", "Blockchain 101", issued)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "<script>")
}

func TestRenderRequiresNames(t *testing.T) {
	r := NewRenderer("Open Ledger University")

	_, err := r.Render("", "Blockchain 101", issued)
	assert.Error(t, err)
	_, err = r.Render("Alice", "", issued)
	assert.Error(t, err)
}
