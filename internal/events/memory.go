package events

import (
	"context"
	"sync"

	"certledger/internal/ledger"
)

// MemoryPublisher collects envelopes in process. Used in tests and when no
// broker is configured.
type MemoryPublisher struct {
	mu        sync.Mutex
	envelopes []Envelope
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) Publish(_ context.Context, notice ledger.Notice) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.envelopes = append(p.envelopes, NewEnvelope(notice))
	return nil
}

// Envelopes returns a copy of everything published so far.
func (p *MemoryPublisher) Envelopes() []Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Envelope, len(p.envelopes))
	copy(out, p.envelopes)
	return out
}
