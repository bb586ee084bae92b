// Package audit is the append-only, hash-chained record of every committed
// decision. Records are written once and never updated.
package audit

import (
	"context"
	"time"

	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/decision"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/explain"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/policy"
)

// TimestampLayout is the record timestamp format, always UTC.
const TimestampLayout = "2006-01-02 15:04:05"

// GenesisHash is the prev_hash of the first record in a log.
const GenesisHash = "genesis"

// Kind tells decision records apart from what-if simulations.
type Kind string

const (
	KindDecision Kind = "decision"
	KindWhatIf   Kind = "what_if"
)

// Record is one committed audit entry. It embeds the decision by value.
type Record struct {
	Sequence         uint64               `json:"sequence"`
	Kind             Kind                 `json:"kind"`
	Timestamp        string               `json:"timestamp"`
	InputHash        string               `json:"input_hash"`
	Decision         decision.Decision    `json:"decision"`
	Explanation      *explain.Explanation `json:"explanation"`
	PolicyReferences []policy.Reference   `json:"policy_references"`
	ModelVersion     string               `json:"model_version"`
	PrevHash         string               `json:"prev_hash"`
	RecordHash       string               `json:"record_hash,omitempty"`
}

// Entry is what callers hand to Append; the log fills in time, fingerprint
// and chain fields.
type Entry struct {
	Kind Kind
	// Input is the evaluated application. Its canonical JSON is fingerprinted.
	Input            any
	Decision         decision.Decision
	Explanation      *explain.Explanation
	PolicyReferences []policy.Reference
}

// Envelope is a sealed record as handed to a Store.
type Envelope struct {
	Sequence   uint64
	DecisionID string
	Payload    []byte
}

// Store persists sealed records in append order. Positions are opaque,
// store-specific locators (byte offset, row id, slice index).
type Store interface {
	Append(ctx context.Context, env Envelope) (int64, error)
	ReadAt(ctx context.Context, pos int64) ([]byte, error)
	// Scan calls fn for each complete record in append order until fn
	// returns false.
	Scan(ctx context.Context, fn func(pos int64, payload []byte) bool) error
	Close() error
}

// Finder is implemented by stores that can look up a decision directly.
type Finder interface {
	Find(ctx context.Context, decisionID string) ([]byte, error)
}

// Index maps decision IDs to store positions. It is a hint: lookups are
// confirmed against the store and a failed index never fails a request.
type Index interface {
	Put(ctx context.Context, decisionID string, pos int64) error
	Lookup(ctx context.Context, decisionID string) (int64, bool, error)
}

// Publisher receives every record after it has been committed.
type Publisher interface {
	Publish(ctx context.Context, rec *Record, payload []byte) error
}

// FormatTimestamp renders t in the record layout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
