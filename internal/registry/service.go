// Package registry is the ledger-resident certificate registry: issuance,
// authorization, uniqueness enforcement, and revocation. All mutations run as
// ledger transactions, so preconditions and effects commit atomically; reads
// reflect only committed state.
package registry

import (
	"context"
	"log/slog"
	"time"

	"certledger/internal/hashing"
	"certledger/internal/ledger"
	"certledger/internal/registry/metrics"
	"certledger/internal/registry/models"
	dErrors "certledger/pkg/domain-errors"
	"certledger/pkg/requestcontext"
)

// IssueRequest carries the attributes of a new certificate. The content hash
// and storage ref are produced upstream by the hash engine and storage tier.
type IssueRequest struct {
	StudentName string
	CourseName  string
	StorageRef  string
	ContentHash hashing.Digest
}

// Service exposes the registry operations over a ledger client.
type Service struct {
	ledger  ledger.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New constructs the registry service.
func New(ledgerClient ledger.Client, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{ledger: ledgerClient, logger: logger, metrics: m}
}

// Issue commits a new certificate and returns its sequential ID. The caller
// identity comes from the request context and must be authorized; the content
// hash must not already exist in any record.
func (s *Service) Issue(ctx context.Context, req IssueRequest) (uint64, error) {
	caller := requestcontext.CallerID(ctx)
	if err := validateIssue(req); err != nil {
		return 0, err
	}

	var id uint64
	start := time.Now()
	receipt, err := s.ledger.Submit(ctx, func(state *ledger.State, now time.Time) ([]models.Event, error) {
		if !state.IsAuthorized(caller) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "not authorized to issue certificates")
		}
		if _, exists := state.CertificateByHash(req.ContentHash); exists {
			return nil, dErrors.New(dErrors.CodeDuplicateContent, "certificate hash already exists")
		}
		id = state.Count() + 1
		state.Append(models.Certificate{
			ID:          id,
			StudentName: req.StudentName,
			CourseName:  req.CourseName,
			ContentHash: req.ContentHash,
			StorageRef:  req.StorageRef,
			Issuer:      caller,
			IssuedAt:    now,
		})
		return []models.Event{{Type: models.EventCertificateIssued, CertificateID: id, Identity: caller}}, nil
	})
	s.metrics.ObserveSubmit(time.Since(start))
	if err != nil {
		s.metrics.IncrementRejection(string(dErrors.CodeOf(err)))
		return 0, err
	}

	s.metrics.IncrementIssued()
	s.logger.InfoContext(ctx, "certificate issued",
		"request_id", requestcontext.RequestID(ctx),
		"certificate_id", id,
		"issuer", caller,
		"content_hash", req.ContentHash,
		"ledger_seq", receipt.Seq,
	)
	return id, nil
}

// Revoke latches the certificate's revoked flag. The transition is one-way: a
// second revoke fails rather than toggling.
func (s *Service) Revoke(ctx context.Context, id uint64) error {
	caller := requestcontext.CallerID(ctx)

	start := time.Now()
	receipt, err := s.ledger.Submit(ctx, func(state *ledger.State, now time.Time) ([]models.Event, error) {
		if !state.IsAuthorized(caller) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "not authorized to revoke certificates")
		}
		cert, ok := state.CertificateByID(id)
		if !ok {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "invalid certificate ID %d", id)
		}
		if cert.Revoked {
			return nil, dErrors.New(dErrors.CodeAlreadyRevoked, "certificate already revoked")
		}
		state.Certificates[id-1].Revoked = true
		return []models.Event{{Type: models.EventCertificateRevoked, CertificateID: id}}, nil
	})
	s.metrics.ObserveSubmit(time.Since(start))
	if err != nil {
		s.metrics.IncrementRejection(string(dErrors.CodeOf(err)))
		return err
	}

	s.metrics.IncrementRevoked()
	s.logger.InfoContext(ctx, "certificate revoked",
		"request_id", requestcontext.RequestID(ctx),
		"certificate_id", id,
		"revoked_by", caller,
		"ledger_seq", receipt.Seq,
	)
	return nil
}

// Authorize grants issue/revoke rights to identity. Admin only, idempotent;
// there is deliberately no deauthorize and no admin transfer.
func (s *Service) Authorize(ctx context.Context, identity string) error {
	caller := requestcontext.CallerID(ctx)
	if identity == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "issuer identity is required")
	}

	_, err := s.ledger.Submit(ctx, func(state *ledger.State, _ time.Time) ([]models.Event, error) {
		if caller != state.Admin {
			return nil, dErrors.New(dErrors.CodeForbidden, "only the admin can authorize issuers")
		}
		if state.Issuers[identity] {
			return nil, nil // already granted; nothing to commit
		}
		state.Issuers[identity] = true
		return []models.Event{{Type: models.EventIssuerAuthorized, Identity: identity}}, nil
	})
	if err != nil {
		s.metrics.IncrementRejection(string(dErrors.CodeOf(err)))
		return err
	}

	s.logger.InfoContext(ctx, "issuer authorized",
		"request_id", requestcontext.RequestID(ctx),
		"identity", identity,
		"granted_by", caller,
	)
	return nil
}

// IsAuthorized reports whether identity may issue and revoke.
func (s *Service) IsAuthorized(ctx context.Context, identity string) (bool, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveLookup("is_authorized", time.Since(start)) }()

	var authorized bool
	err := s.ledger.View(ctx, func(state *ledger.State) error {
		authorized = state.IsAuthorized(identity)
		return nil
	})
	return authorized, err
}

// LookupByID returns the full record for id, failing not_found outside the
// valid range 1..Count.
func (s *Service) LookupByID(ctx context.Context, id uint64) (models.Certificate, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveLookup("by_id", time.Since(start)) }()

	var cert models.Certificate
	err := s.ledger.View(ctx, func(state *ledger.State) error {
		found, ok := state.CertificateByID(id)
		if !ok {
			return dErrors.Newf(dErrors.CodeNotFound, "invalid certificate ID %d", id)
		}
		cert = found
		return nil
	})
	if err != nil {
		return models.Certificate{}, err
	}
	return cert, nil
}

// LookupByHash is the pure existence and status check: valid is true iff a
// record with the digest exists and is not revoked. It never returns the
// record; callers needing details go through LookupByID.
func (s *Service) LookupByHash(ctx context.Context, digest hashing.Digest) (exists, valid bool, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveLookup("by_hash", time.Since(start)) }()

	err = s.ledger.View(ctx, func(state *ledger.State) error {
		cert, ok := state.CertificateByHash(digest)
		if !ok {
			return nil
		}
		exists = true
		valid = !cert.Revoked
		return nil
	})
	return exists, valid, err
}

// Count returns the number of successful issuances.
func (s *Service) Count(ctx context.Context) (uint64, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveLookup("count", time.Since(start)) }()

	var count uint64
	err := s.ledger.View(ctx, func(state *ledger.State) error {
		count = state.Count()
		return nil
	})
	return count, err
}

func validateIssue(req IssueRequest) error {
	if req.StudentName == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "student name is required")
	}
	if req.CourseName == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "course name is required")
	}
	if req.StorageRef == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "storage ref is required")
	}
	if _, err := hashing.Parse(req.ContentHash.String()); err != nil {
		return dErrors.Wrap(dErrors.CodeInvalidInput, "malformed content hash", err)
	}
	return nil
}
