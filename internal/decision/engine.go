package decision

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/decision/metrics"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/features"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/scoring"
)

// ErrInvalidProbability is returned when the model yields NaN.
var ErrInvalidProbability = errors.New("model returned an invalid probability")

// Engine scores a feature set with the configured model and classifies it.
type Engine struct {
	model        scoring.Model
	modelVersion string
	newID        func() string
	metrics      *metrics.Metrics
}

type Option func(*Engine)

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithIDGenerator overrides decision ID generation. Tests use this to get
// stable IDs.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		e.newID = fn
	}
}

// NewEngine builds an engine for model tagged with modelVersion.
func NewEngine(model scoring.Model, modelVersion string, opts ...Option) (*Engine, error) {
	if model == nil {
		return nil, fmt.Errorf("scoring model is required")
	}
	if modelVersion == "" {
		return nil, fmt.Errorf("model version is required")
	}
	e := &Engine{
		model:        model,
		modelVersion: modelVersion,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// ModelVersion returns the tag stamped on every decision.
func (e *Engine) ModelVersion() string {
	return e.modelVersion
}

// Decide scores fs and returns a new Decision with a fresh ID. Model errors
// are returned unchanged, wrapped with context; there is no retry.
func (e *Engine) Decide(ctx context.Context, fs features.FeatureSet) (*Decision, error) {
	start := time.Now()
	raw, err := e.model.Predict(ctx, fs)
	e.metrics.ObserveScoringLatency(time.Since(start))
	if err != nil {
		e.metrics.IncrementScoringFailure()
		return nil, fmt.Errorf("predict: %w", err)
	}
	if math.IsNaN(raw) {
		e.metrics.IncrementScoringFailure()
		return nil, ErrInvalidProbability
	}

	p := Clamp(raw)
	outcome, codes := Classify(p)
	e.metrics.IncrementOutcome(string(outcome))

	return &Decision{
		ID:           e.newID(),
		Outcome:      outcome,
		Probability:  Round(p),
		ReasonCodes:  codes,
		ModelVersion: e.modelVersion,
	}, nil
}
