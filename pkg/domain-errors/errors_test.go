package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"certledger/pkg/platform/sentinel"
)

func TestHasCode(t *testing.T) {
	err := New(CodeDuplicateContent, "content hash already registered")
	assert.True(t, HasCode(err, CodeDuplicateContent))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(errors.New("plain"), CodeDuplicateContent))
}

func TestHasCodeThroughWrapping(t *testing.T) {
	inner := New(CodeAlreadyRevoked, "certificate already revoked")
	outer := fmt.Errorf("revoke id 3: %w", inner)
	assert.True(t, HasCode(outer, CodeAlreadyRevoked))
}

func TestWrapPreservesCause(t *testing.T) {
	err := Wrap(CodeUnavailable, "ledger submit failed", sentinel.ErrTimeout)
	assert.True(t, errors.Is(err, sentinel.ErrTimeout))
	assert.Equal(t, CodeUnavailable, CodeOf(err))
	assert.Contains(t, err.Error(), "ledger submit failed")
}

func TestCodeOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(New(CodeTimeout, "storage fetch timed out")))
	assert.True(t, Retryable(New(CodeUnavailable, "ledger unreachable")))
	assert.False(t, Retryable(New(CodeDuplicateContent, "duplicate")))
	assert.False(t, Retryable(New(CodeUnauthorized, "not authorized")))
	assert.False(t, Retryable(New(CodeAlreadyRevoked, "already revoked")))
	assert.False(t, Retryable(errors.New("plain")))
}
