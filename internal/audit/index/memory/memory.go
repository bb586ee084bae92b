// Package memory is an in-process decision ID index.
package memory

import (
	"context"
	"sync"
)

// Index maps decision IDs to store positions. The first position recorded
// for an ID wins.
type Index struct {
	mu        sync.RWMutex
	positions map[string]int64
}

func New() *Index {
	return &Index{positions: make(map[string]int64)}
}

func (i *Index) Put(_ context.Context, decisionID string, pos int64) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.positions[decisionID]; !ok {
		i.positions[decisionID] = pos
	}
	return nil
}

func (i *Index) Lookup(_ context.Context, decisionID string) (int64, bool, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	pos, ok := i.positions[decisionID]
	return pos, ok, nil
}
