package events_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certledger/internal/events"
	"certledger/internal/hashing"
	"certledger/internal/ledger"
	"certledger/internal/registry"
	"certledger/internal/registry/models"
	"certledger/pkg/requestcontext"
)

type failOncePublisher struct {
	inner  *events.MemoryPublisher
	failed bool
}

func (p *failOncePublisher) Publish(ctx context.Context, notice ledger.Notice) error {
	if !p.failed {
		p.failed = true
		return errors.New("broker unavailable")
	}
	return p.inner.Publish(ctx, notice)
}

func waitFor(t *testing.T, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestWorkerPublishesCommittedEvents(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	led := ledger.New("0xadmin")
	reg := registry.New(led, logger, nil)

	publisher := events.NewMemoryPublisher()
	worker := events.NewWorker(publisher, led.Subscribe(16), logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = worker.Run(ctx)
	}()

	adminCtx := requestcontext.WithCallerID(context.Background(), "0xadmin")
	id, err := reg.Issue(adminCtx, registry.IssueRequest{
		StudentName: "Alice Johnson",
		CourseName:  "Stonesetting I",
		StorageRef:  "bafy-ref",
		ContentHash: hashing.Sum([]byte("certificate document")),
	})
	require.NoError(t, err)
	require.NoError(t, reg.Revoke(adminCtx, id))

	waitFor(t, func() bool { return len(publisher.Envelopes()) == 2 })
	envelopes := publisher.Envelopes()
	assert.Equal(t, models.EventCertificateIssued, envelopes[0].Type)
	assert.Equal(t, id, envelopes[0].CertificateID)
	assert.Equal(t, models.EventCertificateRevoked, envelopes[1].Type)

	// Envelopes carry the commit position and time, and revoke follows issue.
	assert.Equal(t, uint64(1), envelopes[0].Seq)
	assert.Equal(t, uint64(2), envelopes[1].Seq)
	assert.False(t, envelopes[0].EmittedAt.IsZero())

	cancel()
	<-done
}

func TestWorkerSkipsFailedPublishes(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	inbox := make(chan ledger.Notice, 4)
	publisher := &failOncePublisher{inner: events.NewMemoryPublisher()}
	worker := events.NewWorker(publisher, inbox, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	inbox <- ledger.Notice{Event: models.Event{Type: models.EventCertificateIssued, CertificateID: 1}, Seq: 1}
	inbox <- ledger.Notice{Event: models.Event{Type: models.EventCertificateIssued, CertificateID: 2}, Seq: 2}

	// The first event is dropped after its failed publish; the second lands.
	waitFor(t, func() bool { return len(publisher.inner.Envelopes()) == 1 })
	assert.Equal(t, uint64(2), publisher.inner.Envelopes()[0].CertificateID)
}

func TestWorkerStopsOnClosedInbox(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	inbox := make(chan ledger.Notice)
	worker := events.NewWorker(events.NewMemoryPublisher(), inbox, logger)

	done := make(chan error, 1)
	go func() { done <- worker.Run(context.Background()) }()

	close(inbox)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on closed inbox")
	}
}
