// Package postgres stores audit records in a PostgreSQL table keyed by chain
// sequence. The payload column holds the sealed record bytes exactly as
// hashed.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/audit"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/pkg/platform/sentinel"
)

const schema = `
CREATE TABLE IF NOT EXISTS audit_records (
	sequence    BIGINT PRIMARY KEY,
	decision_id TEXT NOT NULL,
	payload     BYTEA NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS audit_records_decision_id_idx ON audit_records (decision_id, sequence);
`

// uniqueViolation is the SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

// defaultPageSize bounds how many rows a scan holds in memory at once.
const defaultPageSize = 500

// ErrSequenceTaken means another writer committed the same sequence number.
// Two processes appending to one table is not supported.
var ErrSequenceTaken = errors.New("audit sequence already committed")

// Store is an audit.Store and audit.Finder over PostgreSQL. Positions are
// chain sequence numbers.
type Store struct {
	db       *sql.DB
	pageSize int
}

type Option func(*Store)

func WithPageSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, pageSize: defaultPageSize}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate creates the audit table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate audit_records: %w", err)
	}
	return nil
}

func (s *Store) Append(ctx context.Context, env audit.Envelope) (int64, error) {
	seq := int64(env.Sequence)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_records (sequence, decision_id, payload) VALUES ($1, $2, $3)`,
		seq, env.DecisionID, env.Payload,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return 0, fmt.Errorf("sequence %d: %w", seq, ErrSequenceTaken)
		}
		return 0, fmt.Errorf("insert audit record: %w", err)
	}
	return seq, nil
}

func (s *Store) ReadAt(ctx context.Context, pos int64) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM audit_records WHERE sequence = $1`, pos).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("sequence %d: %w", pos, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("read audit record: %w", err)
	}
	return payload, nil
}

// Find returns the earliest record for decisionID.
func (s *Store) Find(ctx context.Context, decisionID string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM audit_records WHERE decision_id = $1 ORDER BY sequence LIMIT 1`,
		decisionID,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("decision %s: %w", decisionID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find audit record: %w", err)
	}
	return payload, nil
}

// Scan pages through the table in sequence order so no result set stays
// open while fn runs.
func (s *Store) Scan(ctx context.Context, fn func(pos int64, payload []byte) bool) error {
	var after int64
	for {
		page, err := s.page(ctx, after)
		if err != nil {
			return err
		}
		for _, row := range page {
			if !fn(row.seq, row.payload) {
				return nil
			}
			after = row.seq
		}
		if len(page) < s.pageSize {
			return nil
		}
	}
}

type row struct {
	seq     int64
	payload []byte
}

func (s *Store) page(ctx context.Context, after int64) ([]row, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sequence, payload FROM audit_records WHERE sequence > $1 ORDER BY sequence LIMIT $2`,
		after, s.pageSize,
	)
	if err != nil {
		return nil, fmt.Errorf("scan audit records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]row, 0, s.pageSize)
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.seq, &r.payload); err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan audit records: %w", err)
	}
	return out, nil
}

// Close is a no-op; the caller owns the *sql.DB.
func (s *Store) Close() error {
	return nil
}
