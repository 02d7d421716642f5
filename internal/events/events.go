// Package events fans committed ledger events out to external sinks. Sinks
// are advisory: the ledger is the source of truth and a failed publish never
// rolls anything back.
package events

import (
	"context"
	"time"

	"certledger/internal/ledger"
	"certledger/internal/registry/models"
)

// Envelope is the wire form of a published event. Seq and EmittedAt come from
// the originating commit, so replays and consumer-side ordering checks have a
// ledger position to anchor on.
type Envelope struct {
	Type          models.EventType `json:"type"`
	CertificateID uint64           `json:"certificate_id,omitempty"`
	Identity      string           `json:"identity,omitempty"`
	Seq           uint64           `json:"seq"`
	EmittedAt     time.Time        `json:"emitted_at"`
}

// NewEnvelope builds the wire form of one committed event notice.
func NewEnvelope(notice ledger.Notice) Envelope {
	return Envelope{
		Type:          notice.Event.Type,
		CertificateID: notice.Event.CertificateID,
		Identity:      notice.Event.Identity,
		Seq:           notice.Seq,
		EmittedAt:     notice.CommittedAt,
	}
}

// Publisher delivers one committed event notice to a sink.
type Publisher interface {
	Publish(ctx context.Context, notice ledger.Notice) error
}
