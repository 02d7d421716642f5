package events

import (
	"context"
	"log/slog"

	"certledger/internal/ledger"
)

// Worker drains committed event notices from a channel and hands them to a
// publisher. Publish failures are logged and skipped; the channel must keep
// draining or the ledger's non-blocking fan-out starts dropping.
type Worker struct {
	publisher Publisher
	inbox     <-chan ledger.Notice
	logger    *slog.Logger
}

func NewWorker(publisher Publisher, inbox <-chan ledger.Notice, logger *slog.Logger) *Worker {
	return &Worker{publisher: publisher, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case notice, ok := <-w.inbox:
			if !ok {
				return nil
			}
			if err := w.publisher.Publish(ctx, notice); err != nil {
				w.logger.WarnContext(ctx, "event publish failed",
					"event_type", notice.Event.Type,
					"certificate_id", notice.Event.CertificateID,
					"seq", notice.Seq,
					"error", err,
				)
			}
		}
	}
}
