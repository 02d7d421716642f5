// Package issuance runs the end-to-end certificate workflow: render the
// document, persist it to content-addressed storage, then commit the record
// to the ledger. The ledger commit is the admission decision; storage writes
// that precede a rejected commit are rolled back by unpinning the blob.
package issuance

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"certledger/internal/hashing"
	"certledger/internal/issuance/metrics"
	"certledger/internal/registry"
	"certledger/internal/registry/models"
	"certledger/internal/storage"
	dErrors "certledger/pkg/domain-errors"
	"certledger/pkg/requestcontext"
)

// Registry is the ledger-facing surface of the workflow.
type Registry interface {
	Issue(ctx context.Context, req registry.IssueRequest) (uint64, error)
	Revoke(ctx context.Context, id uint64) error
	LookupByID(ctx context.Context, id uint64) (models.Certificate, error)
}

// Renderer produces the canonical document bytes for a certificate.
type Renderer interface {
	Render(studentName, courseName string, issued time.Time) ([]byte, error)
}

// IssueRequest names the student and course for a new certificate. The
// issuer identity travels in the request context.
type IssueRequest struct {
	StudentName string
	CourseName  string
}

// IssueResult reports a committed certificate: its ledger ID, the hash the
// ledger indexed, and where the rendered document can be retrieved.
type IssueResult struct {
	ID           uint64         `json:"id"`
	ContentHash  hashing.Digest `json:"content_hash"`
	StorageRef   string         `json:"storage_ref"`
	RetrievalURL string         `json:"retrieval_url"`
}

// Service orchestrates issuance and revocation.
type Service struct {
	registry Registry
	storage  storage.Client
	renderer Renderer
	logger   *slog.Logger
	metrics  *metrics.Metrics

	storeRetries uint64
}

// Option configures the Service.
type Option func(*Service)

// WithStoreRetries sets how many times a transient store failure is retried.
func WithStoreRetries(retries uint64) Option {
	return func(s *Service) { s.storeRetries = retries }
}

// New constructs the issuance service.
func New(reg Registry, store storage.Client, renderer Renderer, logger *slog.Logger, m *metrics.Metrics, opts ...Option) *Service {
	s := &Service{
		registry:     reg,
		storage:      store,
		renderer:     renderer,
		logger:       logger,
		metrics:      m,
		storeRetries: 2,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue renders the certificate document, stores it, and commits the record.
// The document is hashed exactly as stored, so the ledger hash always matches
// a later fetch of the same ref. If the commit is rejected the stored blob is
// unpinned so storage does not accumulate orphans.
func (s *Service) Issue(ctx context.Context, req IssueRequest) (IssueResult, error) {
	start := time.Now()
	issuedAt := requestcontext.Now(ctx)

	doc, err := s.renderer.Render(req.StudentName, req.CourseName, issuedAt)
	if err != nil {
		return IssueResult{}, err
	}

	ref, err := s.storeWithRetry(ctx, doc)
	if err != nil {
		return IssueResult{}, err
	}

	digest := hashing.Sum(doc)
	id, err := s.registry.Issue(ctx, registry.IssueRequest{
		StudentName: req.StudentName,
		CourseName:  req.CourseName,
		StorageRef:  ref.String(),
		ContentHash: digest,
	})
	if err != nil {
		// A duplicate rejection means an existing record owns this exact
		// content, so its blob must stay pinned.
		if !dErrors.HasCode(err, dErrors.CodeDuplicateContent) {
			s.metrics.IncrementRollback()
			if !s.storage.Unpin(ctx, ref) {
				s.metrics.IncrementUnpinFailure()
				s.logger.WarnContext(ctx, "failed to unpin blob after rejected commit",
					"request_id", requestcontext.RequestID(ctx),
					"storage_ref", ref,
				)
			}
		}
		return IssueResult{}, err
	}

	s.metrics.ObserveIssue(time.Since(start))
	s.logger.InfoContext(ctx, "certificate issued",
		"request_id", requestcontext.RequestID(ctx),
		"certificate_id", id,
		"content_hash", digest,
		"storage_ref", ref,
	)
	return IssueResult{
		ID:           id,
		ContentHash:  digest,
		StorageRef:   ref.String(),
		RetrievalURL: storage.RetrievalURL(ref),
	}, nil
}

// RevokeResult reports a completed revocation. Warning is set when the
// stored document could not be unpinned; the revocation itself still holds.
type RevokeResult struct {
	ID      uint64 `json:"id"`
	Revoked bool   `json:"revoked"`
	Warning string `json:"warning,omitempty"`
}

// Revoke flips the ledger record and then unpins the stored document. The
// ledger commit alone completes the revocation; a failed unpin is reported
// as a warning, never an error, since the record's flag is what verification
// consults.
func (s *Service) Revoke(ctx context.Context, id uint64) (RevokeResult, error) {
	cert, err := s.registry.LookupByID(ctx, id)
	if err != nil {
		return RevokeResult{}, err
	}
	if err := s.registry.Revoke(ctx, id); err != nil {
		return RevokeResult{}, err
	}

	result := RevokeResult{ID: id, Revoked: true}
	if ref, parseErr := storage.ParseRef(cert.StorageRef); parseErr == nil {
		if !s.storage.Unpin(ctx, ref) {
			s.metrics.IncrementUnpinFailure()
			result.Warning = "certificate revoked, but the stored document could not be unpinned"
			s.logger.WarnContext(ctx, "failed to unpin revoked certificate document",
				"request_id", requestcontext.RequestID(ctx),
				"certificate_id", id,
				"storage_ref", ref,
			)
		}
	}

	s.logger.InfoContext(ctx, "certificate revoked",
		"request_id", requestcontext.RequestID(ctx),
		"certificate_id", id,
	)
	return result, nil
}

// storeWithRetry retries transient store failures with exponential backoff.
// Anything other than a StoreError fails immediately.
func (s *Service) storeWithRetry(ctx context.Context, doc []byte) (storage.Ref, error) {
	var ref storage.Ref
	attempt := 0
	op := func() error {
		stored, err := s.storage.Store(ctx, doc)
		if err != nil {
			var storeErr *storage.StoreError
			if !errors.As(err, &storeErr) {
				return backoff.Permanent(err)
			}
			attempt++
			s.metrics.IncrementStoreRetry()
			return err
		}
		ref = stored
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), s.storeRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		s.logger.ErrorContext(ctx, "document store failed",
			"request_id", requestcontext.RequestID(ctx),
			"attempts", attempt,
			"error", err,
		)
		return "", err
	}
	return ref, nil
}
