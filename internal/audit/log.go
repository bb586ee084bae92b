package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/audit/metrics"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/policy"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/pkg/platform/sentinel"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/pkg/requestcontext"
)

// Log appends sealed records to a Store. Appends are serialized by a mutex;
// reads never take it.
type Log struct {
	store     Store
	backend   string
	index     Index
	publisher Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics

	mu       sync.Mutex
	lastSeq  uint64
	lastHash string
}

type Option func(*Log)

func WithIndex(index Index) Option {
	return func(l *Log) {
		l.index = index
	}
}

func WithPublisher(p Publisher) Option {
	return func(l *Log) {
		l.publisher = p
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Log) {
		l.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Log) {
		l.metrics = m
	}
}

// WithBackendName labels persistence errors and logs.
func WithBackendName(name string) Option {
	return func(l *Log) {
		l.backend = name
	}
}

// Open restores the chain head from store and returns a ready log.
func Open(ctx context.Context, store Store, opts ...Option) (*Log, error) {
	if store == nil {
		return nil, fmt.Errorf("audit store is required")
	}
	l := &Log{
		store:    store,
		backend:  "store",
		logger:   slog.Default(),
		lastHash: GenesisHash,
	}
	for _, opt := range opts {
		opt(l)
	}

	var scanErr error
	err := store.Scan(ctx, func(_ int64, payload []byte) bool {
		link, err := inspect(payload)
		if err != nil && !errors.Is(err, errHashMismatch) {
			scanErr = err
			return false
		}
		l.lastSeq = link.Sequence
		l.lastHash = link.RecordHash
		return true
	})
	if err != nil {
		return nil, &PersistenceError{Backend: l.backend, Operation: "restore", Cause: err}
	}
	if scanErr != nil {
		return nil, &PersistenceError{Backend: l.backend, Operation: "restore", Cause: scanErr}
	}

	l.logger.InfoContext(ctx, "audit log opened",
		"backend", l.backend,
		"records", l.lastSeq,
	)
	return l, nil
}

// Append seals entry into the next record of the chain and persists it.
// A context cancelled before the append starts leaves no trace; once the
// write has started it runs to completion regardless of ctx.
func (l *Log) Append(ctx context.Context, entry Entry) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	inputHash, err := Fingerprint(entry.Input)
	if err != nil {
		return nil, &PersistenceError{Backend: l.backend, Operation: "fingerprint", Cause: err}
	}
	refs := entry.PolicyReferences
	if refs == nil {
		refs = []policy.Reference{}
	}

	ctx = context.WithoutCancel(ctx)
	start := time.Now()

	l.mu.Lock()
	rec := &Record{
		Sequence:         l.lastSeq + 1,
		Kind:             entry.Kind,
		Timestamp:        FormatTimestamp(requestcontext.Now(ctx)),
		InputHash:        inputHash,
		Decision:         entry.Decision,
		Explanation:      entry.Explanation,
		PolicyReferences: refs,
		ModelVersion:     entry.Decision.ModelVersion,
		PrevHash:         l.lastHash,
	}
	payload, err := seal(rec)
	if err != nil {
		l.mu.Unlock()
		l.metrics.IncAppendFailures()
		return nil, &PersistenceError{Backend: l.backend, Operation: "encode", Cause: err}
	}
	pos, err := l.store.Append(ctx, Envelope{Sequence: rec.Sequence, DecisionID: rec.Decision.ID, Payload: payload})
	if err != nil {
		l.mu.Unlock()
		l.metrics.IncAppendFailures()
		l.logger.ErrorContext(ctx, "CRITICAL: audit append failed",
			"backend", l.backend,
			"decision_id", rec.Decision.ID,
			"error", err,
		)
		return nil, &PersistenceError{Backend: l.backend, Operation: "append", Cause: err}
	}
	l.lastSeq = rec.Sequence
	l.lastHash = rec.RecordHash
	l.mu.Unlock()
	l.metrics.ObserveAppend(time.Since(start))

	if l.index != nil {
		if err := l.index.Put(ctx, rec.Decision.ID, pos); err != nil {
			l.metrics.IncIndexFailures("put")
			l.logger.WarnContext(ctx, "audit index update failed",
				"decision_id", rec.Decision.ID,
				"error", err,
			)
		}
	}
	if l.publisher != nil {
		if err := l.publisher.Publish(ctx, rec, payload); err != nil {
			l.metrics.IncPublishFailures()
			l.logger.WarnContext(ctx, "audit replication failed",
				"decision_id", rec.Decision.ID,
				"sequence", rec.Sequence,
				"error", err,
			)
		}
	}
	return rec, nil
}

// Get returns the first record for decisionID. Unknown IDs yield an error
// wrapping sentinel.ErrNotFound.
func (l *Log) Get(ctx context.Context, decisionID string) (*Record, error) {
	if rec := l.fromIndex(ctx, decisionID); rec != nil {
		return rec, nil
	}

	if f, ok := l.store.(Finder); ok {
		payload, err := f.Find(ctx, decisionID)
		switch {
		case err == nil:
			return decodeRecord(payload)
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, fmt.Errorf("decision %s: %w", decisionID, sentinel.ErrNotFound)
		default:
			return nil, &PersistenceError{Backend: l.backend, Operation: "find", Cause: err}
		}
	}

	// Payloads are JSON, so the ID is matched in its encoded form.
	needle, err := json.Marshal(decisionID)
	if err != nil {
		return nil, fmt.Errorf("encode decision id: %w", err)
	}
	var found *Record
	err = l.store.Scan(ctx, func(_ int64, payload []byte) bool {
		if !bytes.Contains(payload, needle) {
			return true
		}
		rec, err := decodeRecord(payload)
		if err != nil || rec.Decision.ID != decisionID {
			return true
		}
		found = rec
		return false
	})
	if err != nil {
		return nil, &PersistenceError{Backend: l.backend, Operation: "scan", Cause: err}
	}
	if found == nil {
		return nil, fmt.Errorf("decision %s: %w", decisionID, sentinel.ErrNotFound)
	}
	return found, nil
}

func (l *Log) fromIndex(ctx context.Context, decisionID string) *Record {
	if l.index == nil {
		return nil
	}
	pos, ok, err := l.index.Lookup(ctx, decisionID)
	if err != nil {
		l.metrics.IncIndexFailures("lookup")
		l.logger.WarnContext(ctx, "audit index lookup failed", "decision_id", decisionID, "error", err)
		return nil
	}
	if !ok {
		l.metrics.IncIndexMisses()
		return nil
	}
	payload, err := l.store.ReadAt(ctx, pos)
	if err != nil {
		l.metrics.IncIndexMisses()
		return nil
	}
	rec, err := decodeRecord(payload)
	if err != nil || rec.Decision.ID != decisionID {
		l.metrics.IncIndexMisses()
		return nil
	}
	return rec
}

// Head returns the sequence and hash of the last committed record.
func (l *Log) Head() (uint64, string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastSeq, l.lastHash
}

// Close closes the underlying store.
func (l *Log) Close() error {
	return l.store.Close()
}
