// Package storage defines the content-addressed blob tier the rendered
// certificate documents live in. The core only depends on this interface; the
// in-memory implementation stands in for a remote pinning service.
package storage

import (
	"context"
	"fmt"

	"github.com/ipfs/go-cid"
)

// Ref is the opaque locator the storage tier returns for a stored blob. It is
// persisted on the ledger record and is the only way to retrieve the blob.
type Ref string

func (r Ref) String() string { return string(r) }

// ParseRef validates that s is a syntactically valid content identifier.
func ParseRef(s string) (Ref, error) {
	if _, err := cid.Decode(s); err != nil {
		return "", fmt.Errorf("malformed storage ref %q: %w", s, err)
	}
	return Ref(s), nil
}

// GatewayBase is the public retrieval gateway used to build shareable links.
const GatewayBase = "https://ipfs.io/ipfs/"

// RetrievalURL builds the public link for a stored document.
func RetrievalURL(ref Ref) string {
	return GatewayBase + ref.String()
}

// Client is the storage collaborator consumed by issuance and verification.
// Store and Fetch fail with transient StoreError/FetchError values; Unpin is
// best effort and reports failure without an error.
type Client interface {
	Store(ctx context.Context, data []byte) (Ref, error)
	Fetch(ctx context.Context, ref Ref) ([]byte, error)
	Unpin(ctx context.Context, ref Ref) bool
}

// StoreError wraps a failure to persist a blob. Treated as transient and
// retryable at the collaborator boundary.
type StoreError struct {
	Cause error
}

func (e *StoreError) Error() string { return fmt.Sprintf("storage store failed: %v", e.Cause) }
func (e *StoreError) Unwrap() error { return e.Cause }

// FetchError wraps a failure to retrieve a blob. Treated as transient and
// retryable at the collaborator boundary.
type FetchError struct {
	Ref   Ref
	Cause error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("storage fetch of %s failed: %v", e.Ref, e.Cause)
}
func (e *FetchError) Unwrap() error { return e.Cause }
