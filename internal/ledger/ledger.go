// Package ledger provides the append-only, atomically committed record store
// the certificate registry lives on. Transactions run against a working copy
// of the committed state and are swapped in only when they succeed, so a
// failed transaction can never leave a partial write behind. Submit is
// serialized by a single writer slot; that ordering is the registry's sole
// concurrency primitive.
package ledger

import (
	"context"
	"sync"
	"time"

	"certledger/internal/registry/models"
	dErrors "certledger/pkg/domain-errors"
)

// Transaction mutates a working copy of the ledger state. The commit time is
// supplied by the ledger so records carry the ledger's clock, not the
// caller's. Returned events are published on the receipt and fanned out to
// subscribers after the commit lands.
type Transaction func(s *State, now time.Time) ([]models.Event, error)

// Receipt describes a committed transaction.
type Receipt struct {
	Seq         uint64
	CommittedAt time.Time
	Events      []models.Event
}

// Client is the interface services program against. Submit either fully
// commits or leaves no trace; View reads only committed state.
type Client interface {
	Submit(ctx context.Context, tx Transaction) (Receipt, error)
	View(ctx context.Context, read func(s *State) error) error
}

// Journal persists committed transactions so ledger state survives restarts.
type Journal interface {
	Append(ctx context.Context, commit Commit) error
	Latest(ctx context.Context) (Commit, bool, error)
}

// Commit is the journal record for one committed transaction.
type Commit struct {
	Seq         uint64
	CommittedAt time.Time
	Events      []models.Event
	Snapshot    *State
}

// Ledger is the in-process implementation of Client.
type Ledger struct {
	writer  chan struct{}
	mu      sync.RWMutex
	state   *State
	seq     uint64
	journal Journal
	now     func() time.Time

	subMu sync.Mutex
	subs  []chan Notice
}

// Notice pairs a committed event with the commit it landed in, so subscribers
// can attribute published events to a ledger position and time.
type Notice struct {
	Event       models.Event
	Seq         uint64
	CommittedAt time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithJournal makes commits durable. A journal append failure fails the
// Submit: an unjournaled commit would not be replicated, so it must not be
// observable either.
func WithJournal(j Journal) Option {
	return func(l *Ledger) { l.journal = j }
}

// WithClock overrides the commit clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New creates a ledger whose genesis state fixes admin as the one
// authorization root. The admin identity is never reassignable.
func New(admin string, opts ...Option) *Ledger {
	l := &Ledger{
		writer: make(chan struct{}, 1),
		state:  NewState(admin),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Open restores a journaled ledger, replaying the latest committed snapshot
// before accepting new transactions.
func Open(ctx context.Context, admin string, j Journal, opts ...Option) (*Ledger, error) {
	l := New(admin, append(opts, WithJournal(j))...)
	commit, ok, err := j.Latest(ctx)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "ledger journal replay failed", err)
	}
	if ok {
		l.state = commit.Snapshot
		l.seq = commit.Seq
	}
	return l, nil
}

// Submit runs tx against a copy of the committed state and commits the result
// atomically. Authoritative rejections from tx surface verbatim and leave the
// ledger untouched.
func (l *Ledger) Submit(ctx context.Context, tx Transaction) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, dErrors.Wrap(dErrors.CodeTimeout, "ledger submit cancelled", err)
	}

	// The writer slot serializes submits and keeps the wait cancellable.
	select {
	case l.writer <- struct{}{}:
	case <-ctx.Done():
		return Receipt{}, dErrors.Wrap(dErrors.CodeTimeout, "ledger submit cancelled", ctx.Err())
	}
	defer func() { <-l.writer }()

	working := l.state.Clone()
	committedAt := l.now().UTC()
	events, err := tx(working, committedAt)
	if err != nil {
		return Receipt{}, err
	}

	seq := l.seq + 1
	if l.journal != nil {
		commit := Commit{Seq: seq, CommittedAt: committedAt, Events: events, Snapshot: working}
		if err := l.journal.Append(ctx, commit); err != nil {
			return Receipt{}, dErrors.Wrap(dErrors.CodeUnavailable, "ledger journal append failed", err)
		}
	}

	l.mu.Lock()
	l.state = working
	l.seq = seq
	l.mu.Unlock()
	l.publish(seq, committedAt, events)

	return Receipt{Seq: seq, CommittedAt: committedAt, Events: events}, nil
}

// View runs read against committed state. The callback must not retain or
// mutate the state it is handed.
func (l *Ledger) View(ctx context.Context, read func(s *State) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(dErrors.CodeTimeout, "ledger read cancelled", err)
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return read(l.state)
}

// Subscribe returns a channel of committed event notices. Delivery is best
// effort: a subscriber that falls behind loses notices rather than blocking
// commits, and consumers are expected to re-query by ID anyway.
func (l *Ledger) Subscribe(buffer int) <-chan Notice {
	ch := make(chan Notice, buffer)
	l.subMu.Lock()
	l.subs = append(l.subs, ch)
	l.subMu.Unlock()
	return ch
}

func (l *Ledger) publish(seq uint64, committedAt time.Time, events []models.Event) {
	l.subMu.Lock()
	defer l.subMu.Unlock()
	for _, ev := range events {
		notice := Notice{Event: ev, Seq: seq, CommittedAt: committedAt}
		for _, ch := range l.subs {
			select {
			case ch <- notice:
			default:
			}
		}
	}
}
