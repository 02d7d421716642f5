package issuance_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"certledger/internal/document"
	"certledger/internal/hashing"
	"certledger/internal/issuance"
	"certledger/internal/ledger"
	"certledger/internal/registry"
	"certledger/internal/storage"
	dErrors "certledger/pkg/domain-errors"
	"certledger/pkg/requestcontext"
)

const (
	adminIdentity    = "0xadmin"
	strangerIdentity = "0xstranger"
)

// flakyStore fails Store a fixed number of times before delegating.
type flakyStore struct {
	storage.Client
	failures int
}

func (f *flakyStore) Store(ctx context.Context, data []byte) (storage.Ref, error) {
	if f.failures > 0 {
		f.failures--
		return "", &storage.StoreError{Cause: errors.New("node unreachable")}
	}
	return f.Client.Store(ctx, data)
}

type IssuanceSuite struct {
	suite.Suite

	store   *storage.Memory
	service *issuance.Service
}

func (s *IssuanceSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := registry.New(ledger.New(adminIdentity), logger, nil)
	s.store = storage.NewMemory()
	s.service = issuance.New(reg, s.store, document.NewRenderer("Mills College of Jewelry"), logger, nil)
}

func (s *IssuanceSuite) adminCtx() context.Context {
	ctx := requestcontext.WithCallerID(context.Background(), adminIdentity)
	return requestcontext.WithTime(ctx, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
}

func (s *IssuanceSuite) TestIssueStoresHashesAndCommits() {
	result, err := s.service.Issue(s.adminCtx(), issuance.IssueRequest{
		StudentName: "Alice Johnson",
		CourseName:  "Stonesetting I",
	})
	s.Require().NoError(err)
	s.Equal(uint64(1), result.ID)
	s.NotEmpty(result.StorageRef)
	s.Equal(storage.GatewayBase+result.StorageRef, result.RetrievalURL)

	// The ledger hash must cover exactly the stored bytes.
	ref, err := storage.ParseRef(result.StorageRef)
	s.Require().NoError(err)
	stored, err := s.store.Fetch(context.Background(), ref)
	s.Require().NoError(err)
	s.Equal(hashing.Sum(stored), result.ContentHash)
}

func (s *IssuanceSuite) TestIssueUsesRequestTimeForDocument() {
	first, err := s.service.Issue(s.adminCtx(), issuance.IssueRequest{
		StudentName: "Alice Johnson",
		CourseName:  "Stonesetting I",
	})
	s.Require().NoError(err)

	// Same attributes at a different time render a different document.
	laterCtx := requestcontext.WithCallerID(context.Background(), adminIdentity)
	laterCtx = requestcontext.WithTime(laterCtx, time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC))
	second, err := s.service.Issue(laterCtx, issuance.IssueRequest{
		StudentName: "Alice Johnson",
		CourseName:  "Stonesetting I",
	})
	s.Require().NoError(err)
	s.NotEqual(first.ContentHash, second.ContentHash)
}

func (s *IssuanceSuite) TestIssueRetriesTransientStoreFailures() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := registry.New(ledger.New(adminIdentity), logger, nil)
	flaky := &flakyStore{Client: storage.NewMemory(), failures: 2}
	svc := issuance.New(reg, flaky, document.NewRenderer("Mills College of Jewelry"), logger, nil,
		issuance.WithStoreRetries(2))

	result, err := svc.Issue(s.adminCtx(), issuance.IssueRequest{
		StudentName: "Bob Ng",
		CourseName:  "Enameling",
	})
	s.Require().NoError(err)
	s.Equal(uint64(1), result.ID)
	s.Zero(flaky.failures)
}

func (s *IssuanceSuite) TestIssueRejectedCommitUnpinsBlob() {
	ctx := requestcontext.WithCallerID(context.Background(), strangerIdentity)
	_, err := s.service.Issue(ctx, issuance.IssueRequest{
		StudentName: "Alice Johnson",
		CourseName:  "Stonesetting I",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	s.Zero(s.store.Len())
}

func (s *IssuanceSuite) TestIssueDuplicateRejected() {
	_, err := s.service.Issue(s.adminCtx(), issuance.IssueRequest{
		StudentName: "Alice Johnson",
		CourseName:  "Stonesetting I",
	})
	s.Require().NoError(err)

	_, err = s.service.Issue(s.adminCtx(), issuance.IssueRequest{
		StudentName: "Alice Johnson",
		CourseName:  "Stonesetting I",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeDuplicateContent))
	// The original record's blob survives the rejected duplicate.
	s.Equal(1, s.store.Len())
}

func (s *IssuanceSuite) TestRevokeUnpinsDocument() {
	result, err := s.service.Issue(s.adminCtx(), issuance.IssueRequest{
		StudentName: "Alice Johnson",
		CourseName:  "Stonesetting I",
	})
	s.Require().NoError(err)
	s.Equal(1, s.store.Len())

	revoked, err := s.service.Revoke(s.adminCtx(), result.ID)
	s.Require().NoError(err)
	s.True(revoked.Revoked)
	s.Empty(revoked.Warning)
	s.Zero(s.store.Len())
}

func (s *IssuanceSuite) TestRevokeWarnsWhenUnpinFails() {
	result, err := s.service.Issue(s.adminCtx(), issuance.IssueRequest{
		StudentName: "Alice Johnson",
		CourseName:  "Stonesetting I",
	})
	s.Require().NoError(err)

	// Drop the blob out from under the revocation so the unpin fails.
	ref, err := storage.ParseRef(result.StorageRef)
	s.Require().NoError(err)
	s.True(s.store.Unpin(context.Background(), ref))

	revoked, err := s.service.Revoke(s.adminCtx(), result.ID)
	s.Require().NoError(err)
	s.True(revoked.Revoked)
	s.NotEmpty(revoked.Warning)
}

func (s *IssuanceSuite) TestRevokeUnknownID() {
	_, err := s.service.Revoke(s.adminCtx(), 42)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestIssuanceSuite(t *testing.T) {
	suite.Run(t, new(IssuanceSuite))
}
