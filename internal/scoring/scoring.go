// Package scoring holds the probability model boundary. The decision engine
// only ever calls Model.Predict; what backs it is swappable.
package scoring

import (
	"context"
	"errors"
	"fmt"

	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/features"
)

// Model returns a raw approval probability for a feature set. Values outside
// [0, 1] are allowed; the decision engine clamps them.
type Model interface {
	Predict(ctx context.Context, fs features.FeatureSet) (float64, error)
}

// ModelFunc adapts a function to Model.
type ModelFunc func(ctx context.Context, fs features.FeatureSet) (float64, error)

func (f ModelFunc) Predict(ctx context.Context, fs features.FeatureSet) (float64, error) {
	return f(ctx, fs)
}

// ErrFeatureUnavailable is returned when a model input is absent.
var ErrFeatureUnavailable = errors.New("model input unavailable")

// HeuristicModel is the default deterministic backing model:
//
//	monthly_net_income/10000 - new_debt_service_ratio + employment_stability_score - overall_risk_score
type HeuristicModel struct{}

func (HeuristicModel) Predict(ctx context.Context, fs features.FeatureSet) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	inputs := [...]features.Name{
		features.MonthlyNetIncome,
		features.NewDebtServiceRatio,
		features.EmploymentStabilityScore,
		features.OverallRiskScore,
	}
	var v [len(inputs)]float64
	for i, name := range inputs {
		f, ok := fs.Numeric(name)
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrFeatureUnavailable, name)
		}
		v[i] = f
	}
	return v[0]/10000 - v[1] + v[2] - v[3], nil
}
