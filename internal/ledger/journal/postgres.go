// Package journal persists committed ledger transactions. The journal is
// append-only: one row per commit, keyed by sequence number, never updated or
// deleted. Replay on startup restores the latest committed snapshot.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"certledger/internal/ledger"
	"certledger/pkg/platform/sentinel"
)

const schema = `
CREATE TABLE IF NOT EXISTS ledger_commits (
    seq          BIGINT PRIMARY KEY,
    committed_at TIMESTAMPTZ NOT NULL,
    events       JSONB NOT NULL,
    snapshot     JSONB NOT NULL
)`

// Postgres is a PostgreSQL-backed ledger journal.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a journal over an open connection pool.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Open connects to PostgreSQL and ensures the journal schema exists.
func Open(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open ledger journal: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping ledger journal: %w", err)
	}
	j := NewPostgres(db)
	if err := j.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

// EnsureSchema creates the journal table when missing.
func (j *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := j.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure journal schema: %w", err)
	}
	return nil
}

// Append records one commit. A sequence collision means another writer got
// there first, which the single-writer ledger should make impossible; it is
// reported as a conflict rather than silently overwritten.
func (j *Postgres) Append(ctx context.Context, commit ledger.Commit) error {
	events, err := json.Marshal(commit.Events)
	if err != nil {
		return fmt.Errorf("marshal commit events: %w", err)
	}
	snapshot, err := json.Marshal(commit.Snapshot)
	if err != nil {
		return fmt.Errorf("marshal commit snapshot: %w", err)
	}

	const insert = `
		INSERT INTO ledger_commits (seq, committed_at, events, snapshot)
		VALUES ($1, $2, $3, $4)`
	if _, err := j.db.ExecContext(ctx, insert, int64(commit.Seq), commit.CommittedAt, events, snapshot); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("journal seq %d: %w", commit.Seq, sentinel.ErrConflict)
		}
		return fmt.Errorf("append commit %d: %w", commit.Seq, err)
	}
	return nil
}

// Latest returns the most recent commit, or ok=false for an empty journal.
func (j *Postgres) Latest(ctx context.Context) (ledger.Commit, bool, error) {
	const query = `
		SELECT seq, committed_at, events, snapshot
		FROM ledger_commits
		ORDER BY seq DESC
		LIMIT 1`

	var (
		seq      int64
		commit   ledger.Commit
		events   []byte
		snapshot []byte
	)
	row := j.db.QueryRowContext(ctx, query)
	if err := row.Scan(&seq, &commit.CommittedAt, &events, &snapshot); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.Commit{}, false, nil
		}
		return ledger.Commit{}, false, fmt.Errorf("load latest commit: %w", err)
	}
	commit.Seq = uint64(seq)
	if err := json.Unmarshal(events, &commit.Events); err != nil {
		return ledger.Commit{}, false, fmt.Errorf("unmarshal commit events: %w", err)
	}
	commit.Snapshot = &ledger.State{}
	if err := json.Unmarshal(snapshot, commit.Snapshot); err != nil {
		return ledger.Commit{}, false, fmt.Errorf("unmarshal commit snapshot: %w", err)
	}
	return commit, true, nil
}

// Health reports whether the database connection is usable.
func (j *Postgres) Health(ctx context.Context) error {
	return j.db.PingContext(ctx)
}

// Close releases the connection pool.
func (j *Postgres) Close() error {
	return j.db.Close()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
