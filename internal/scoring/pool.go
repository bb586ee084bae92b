package scoring

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/features"
)

// Pool bounds the number of concurrent Predict calls against an expensive
// model. Callers still wait for their own prediction.
type Pool struct {
	model Model
	sem   *semaphore.Weighted
}

// NewPool wraps model with a concurrency limit of size (minimum 1).
func NewPool(model Model, size int64) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{model: model, sem: semaphore.NewWeighted(size)}
}

// Predict waits for a free slot, honouring ctx, then calls the model.
func (p *Pool) Predict(ctx context.Context, fs features.FeatureSet) (float64, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return 0, fmt.Errorf("acquire scoring slot: %w", err)
	}
	defer p.sem.Release(1)
	return p.model.Predict(ctx, fs)
}
