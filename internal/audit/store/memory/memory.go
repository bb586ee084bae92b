// Package memory keeps audit records in process memory. Records are lost on
// restart; use it for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/audit"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/pkg/platform/sentinel"
)

// Store is an in-memory audit.Store. Positions are slice indexes.
type Store struct {
	mu      sync.RWMutex
	records [][]byte
	closed  bool
}

func New() *Store {
	return &Store{}
}

func (s *Store) Append(_ context.Context, env audit.Envelope) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, sentinel.ErrClosed
	}
	s.records = append(s.records, slices.Clone(env.Payload))
	return int64(len(s.records) - 1), nil
}

func (s *Store) ReadAt(_ context.Context, pos int64) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if pos < 0 || pos >= int64(len(s.records)) {
		return nil, fmt.Errorf("position %d: %w", pos, sentinel.ErrNotFound)
	}
	return slices.Clone(s.records[pos]), nil
}

// Scan iterates over a snapshot taken when it starts.
func (s *Store) Scan(ctx context.Context, fn func(pos int64, payload []byte) bool) error {
	s.mu.RLock()
	snapshot := s.records[:len(s.records):len(s.records)]
	s.mu.RUnlock()

	for i, payload := range snapshot {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !fn(int64(i), slices.Clone(payload)) {
			return nil
		}
	}
	return nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
