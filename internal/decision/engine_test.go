package decision

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/decision/metrics"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/features"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/scoring"
)

type EngineSuite struct {
	suite.Suite
	ctx      context.Context
	features features.FeatureSet
	metrics  *metrics.Metrics
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.ctx = context.Background()
	s.metrics = metrics.New(prometheus.NewRegistry())

	var fs features.FeatureSet
	s.Require().NoError(fs.Set(features.MonthlyNetIncome, features.NumericValue(8000)))
	s.Require().NoError(fs.Set(features.NewDebtServiceRatio, features.NumericValue(0.35)))
	s.Require().NoError(fs.Set(features.EmploymentStabilityScore, features.NumericValue(0.8)))
	s.Require().NoError(fs.Set(features.OverallRiskScore, features.NumericValue(0.2)))
	s.features = fs
}

func (s *EngineSuite) engineReturning(p float64) *Engine {
	model := scoring.ModelFunc(func(context.Context, features.FeatureSet) (float64, error) {
		return p, nil
	})
	e, err := NewEngine(model, "1.2.0", WithMetrics(s.metrics))
	s.Require().NoError(err)
	return e
}

// =============================================================================
// Classification scenarios
// =============================================================================

func (s *EngineSuite) TestApproveScenario() {
	d, err := s.engineReturning(0.8).Decide(s.ctx, s.features)
	s.Require().NoError(err)

	s.Equal(Approve, d.Outcome)
	s.Equal(0.8, d.Probability)
	s.Empty(d.ReasonCodes)
	s.NotNil(d.ReasonCodes)
	s.Equal("1.2.0", d.ModelVersion)
}

func (s *EngineSuite) TestReportedProbabilityIsRounded() {
	e := s.engineReturning(0.7500000000000001)
	d, err := e.Decide(s.ctx, s.features)
	s.Require().NoError(err)
	s.Equal(Approve, d.Outcome)
	s.Equal(0.75, d.Probability)
	s.Equal("1.2.0", e.ModelVersion())

	d, err = s.engineReturning(0.69996).Decide(s.ctx, s.features)
	s.Require().NoError(err)
	s.Equal(Review, d.Outcome, "classified before rounding")
	s.Equal(0.7, d.Probability)
}

func (s *EngineSuite) TestReviewScenario() {
	d, err := s.engineReturning(0.5).Decide(s.ctx, s.features)
	s.Require().NoError(err)

	s.Equal(Review, d.Outcome)
	s.Equal([]string{ReasonBorderlineRisk}, d.ReasonCodes)
}

func (s *EngineSuite) TestClampsLowRawProbability() {
	d, err := s.engineReturning(-3.0).Decide(s.ctx, s.features)
	s.Require().NoError(err)

	s.Equal(0.05, d.Probability)
	s.Equal(Reject, d.Outcome)
	s.Equal([]string{ReasonHighRiskProfile}, d.ReasonCodes)
}

func (s *EngineSuite) TestClampsHighRawProbability() {
	d, err := s.engineReturning(10.0).Decide(s.ctx, s.features)
	s.Require().NoError(err)

	s.Equal(0.95, d.Probability)
	s.Equal(Approve, d.Outcome)
}

func (s *EngineSuite) TestHeuristicModelEndToEnd() {
	e, err := NewEngine(scoring.HeuristicModel{}, "1.0.0")
	s.Require().NoError(err)

	d, err := e.Decide(s.ctx, s.features)
	s.Require().NoError(err)

	// 0.8 - 0.35 + 0.8 - 0.2 = 1.05, clamped
	s.Equal(0.95, d.Probability)
	s.Equal(Approve, d.Outcome)
}

// =============================================================================
// Identity and metrics
// =============================================================================

func (s *EngineSuite) TestEachDecisionGetsFreshUUID() {
	e := s.engineReturning(0.5)
	first, err := e.Decide(s.ctx, s.features)
	s.Require().NoError(err)
	second, err := e.Decide(s.ctx, s.features)
	s.Require().NoError(err)

	_, err = uuid.Parse(first.ID)
	s.NoError(err)
	s.NotEqual(first.ID, second.ID)
}

func (s *EngineSuite) TestInjectedIDGenerator() {
	model := scoring.ModelFunc(func(context.Context, features.FeatureSet) (float64, error) { return 0.9, nil })
	e, err := NewEngine(model, "1.0.0", WithIDGenerator(func() string { return "fixed-id" }))
	s.Require().NoError(err)

	d, err := e.Decide(s.ctx, s.features)
	s.Require().NoError(err)
	s.Equal("fixed-id", d.ID)
}

func (s *EngineSuite) TestOutcomesAreCounted() {
	_, err := s.engineReturning(0.9).Decide(s.ctx, s.features)
	s.Require().NoError(err)
	_, err = s.engineReturning(0.1).Decide(s.ctx, s.features)
	s.Require().NoError(err)

	s.Equal(1.0, testutil.ToFloat64(s.metrics.DecisionOutcome.WithLabelValues(string(Approve))))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.DecisionOutcome.WithLabelValues(string(Reject))))
}

// =============================================================================
// Failures
// =============================================================================

func (s *EngineSuite) TestModelErrorPropagates() {
	boom := errors.New("model offline")
	model := scoring.ModelFunc(func(context.Context, features.FeatureSet) (float64, error) { return 0, boom })
	e, err := NewEngine(model, "1.0.0", WithMetrics(s.metrics))
	s.Require().NoError(err)

	d, err := e.Decide(s.ctx, s.features)
	s.Nil(d)
	s.ErrorIs(err, boom)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.ScoringFailures))
}

func (s *EngineSuite) TestNaNIsRejected() {
	d, err := s.engineReturning(math.NaN()).Decide(s.ctx, s.features)
	s.Nil(d)
	s.ErrorIs(err, ErrInvalidProbability)
}

func TestNewEngineRequiresDependencies(t *testing.T) {
	_, err := NewEngine(nil, "1.0.0")
	require.Error(t, err)

	_, err = NewEngine(scoring.HeuristicModel{}, "")
	assert.Error(t, err)
}
