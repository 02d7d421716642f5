package verification

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"certledger/internal/hashing"
	"certledger/internal/registry/models"
	"certledger/internal/storage"
	"certledger/internal/verification/metrics"
	dErrors "certledger/pkg/domain-errors"
	"certledger/pkg/platform/sentinel"
	"certledger/pkg/requestcontext"
)

const tracerName = "certledger/verification"

// Registry is the ledger-read surface the engine needs. Lookups reflect only
// committed state and their rejections are authoritative, never retried.
type Registry interface {
	LookupByID(ctx context.Context, id uint64) (models.Certificate, error)
	LookupByHash(ctx context.Context, digest hashing.Digest) (exists, valid bool, err error)
}

// Storage is the blob-read surface used for second-chance comparisons.
type Storage interface {
	Fetch(ctx context.Context, ref storage.Ref) ([]byte, error)
}

// Cache memoizes document-verification outcomes. Optional; a nil cache
// disables memoization.
type Cache interface {
	Get(ctx context.Context, key string) (Result, bool)
	Set(ctx context.Context, key string, result Result)
}

// cacheKey scopes memoized outcomes to the full classification input. The
// second-chance comparison runs against the candidate's stored blob, so the
// same bytes can classify differently under different candidate IDs.
func cacheKey(digest hashing.Digest, candidateID *uint64) string {
	if candidateID == nil {
		return digest.String()
	}
	return digest.String() + ":" + strconv.FormatUint(*candidateID, 10)
}

// Candidate is one entry in a batch verification request.
type Candidate struct {
	Document []byte
	ID       *uint64
}

// Service orchestrates the two verification modes. Mode selection is always
// caller-driven; nothing is auto-detected from input shape.
type Service struct {
	registry Registry
	storage  Storage
	cache    Cache
	logger   *slog.Logger
	metrics  *metrics.Metrics

	fetchTimeout time.Duration
	fetchRetries uint64
}

// Option configures the Service.
type Option func(*Service)

// WithCache enables outcome memoization.
func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithFetchPolicy bounds the second-chance storage fetch: per-attempt timeout
// and how many retries transient failures get before the chain gives up.
func WithFetchPolicy(timeout time.Duration, retries uint64) Option {
	return func(s *Service) {
		s.fetchTimeout = timeout
		s.fetchRetries = retries
	}
}

// New constructs the verification service.
func New(reg Registry, store Storage, logger *slog.Logger, m *metrics.Metrics, opts ...Option) *Service {
	s := &Service{
		registry:     reg,
		storage:      store,
		logger:       logger,
		metrics:      m,
		fetchTimeout: 10 * time.Second,
		fetchRetries: 2,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// VerifyByID is the authoritative mode: the ledger record for id decides the
// outcome directly. Unknown IDs fail not_found so callers can distinguish
// "no such certificate" from a negative classification.
func (s *Service) VerifyByID(ctx context.Context, id uint64) (Result, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "verification.by_id")
	defer span.End()
	start := time.Now()

	cert, err := s.registry.LookupByID(ctx, id)
	if err != nil {
		s.metrics.ObserveVerify("id", time.Since(start))
		return Result{}, err
	}

	status := StatusValid
	if cert.Revoked {
		status = StatusRevoked
	}
	result := Result{
		Status:       status,
		Certificate:  &cert,
		RetrievalURL: storage.RetrievalURL(storage.Ref(cert.StorageRef)),
	}

	span.SetAttributes(attribute.String("verification.status", string(status)))
	s.metrics.IncrementOutcome("id", string(status))
	s.metrics.ObserveVerify("id", time.Since(start))
	s.logger.InfoContext(ctx, "certificate verified by id",
		"request_id", requestcontext.RequestID(ctx),
		"certificate_id", id,
		"status", status,
	)
	return result, nil
}

// VerifyDocument classifies uploaded document bytes, optionally using
// candidateID for the second-chance storage comparison when the hash index
// misses. Steps run sequentially because each outcome decides whether the
// next step runs at all.
func (s *Service) VerifyDocument(ctx context.Context, uploaded []byte, candidateID *uint64) (Result, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "verification.document")
	defer span.End()
	start := time.Now()

	if len(uploaded) == 0 {
		return Result{}, dErrors.New(dErrors.CodeInvalidInput, "document is required")
	}

	uploadedHash := hashing.Sum(uploaded)
	key := cacheKey(uploadedHash, candidateID)
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, key); ok {
			s.metrics.IncrementCache("hit")
			s.metrics.ObserveVerify("document", time.Since(start))
			return cached, nil
		}
		s.metrics.IncrementCache("miss")
	}

	result := Classify(ClassifyInput{
		UploadedHash: uploadedHash,
		CandidateID:  candidateID,
		LookupByHash: func(digest hashing.Digest) (bool, bool, error) {
			return s.registry.LookupByHash(ctx, digest)
		},
		LookupByID: func(id uint64) (models.Certificate, error) {
			return s.registry.LookupByID(ctx, id)
		},
		Fetch: func(ref storage.Ref) ([]byte, error) {
			s.metrics.IncrementFallbackFetch()
			return s.fetchWithRetry(ctx, ref)
		},
	})

	span.SetAttributes(attribute.String("verification.status", string(result.Status)))
	s.metrics.IncrementOutcome("document", string(result.Status))
	s.metrics.ObserveVerify("document", time.Since(start))
	s.logger.InfoContext(ctx, "document verified",
		"request_id", requestcontext.RequestID(ctx),
		"uploaded_hash", uploadedHash,
		"status", result.Status,
	)

	if s.cache != nil {
		s.cache.Set(ctx, key, result)
	}
	return result, nil
}

// VerifyBatch verifies multiple candidates concurrently. Steps within each
// candidate stay sequential; only the candidates themselves run in parallel.
func (s *Service) VerifyBatch(ctx context.Context, candidates []Candidate) ([]Result, error) {
	results := make([]Result, len(candidates))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, c := range candidates {
		g.Go(func() error {
			result, err := s.VerifyDocument(ctx, c.Document, c.ID)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// fetchWithRetry bounds the storage fetch with a per-attempt timeout and
// retries transient failures with exponential backoff. Not-found is
// authoritative and returned immediately.
func (s *Service) fetchWithRetry(ctx context.Context, ref storage.Ref) ([]byte, error) {
	var data []byte
	op := func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
		fetched, err := s.storage.Fetch(attemptCtx, ref)
		if err != nil {
			if dErrors.Is(err, sentinel.ErrNotFound) || dErrors.Is(err, context.Canceled) {
				return backoff.Permanent(err)
			}
			return err
		}
		data = fetched
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), s.fetchRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		s.logger.WarnContext(ctx, "fallback storage fetch failed",
			"request_id", requestcontext.RequestID(ctx),
			"storage_ref", ref,
			"error", err,
		)
		return nil, err
	}
	return data, nil
}
