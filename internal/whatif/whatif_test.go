package whatif

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/application"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/decision"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/features"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/scoring"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/pkg/testutil"
)

func baseApplication() application.LoanApplication {
	return application.LoanApplication{
		ApplicationID:         "APP-7",
		EmploymentInformation: application.EmploymentInformation{EmploymentStabilityScore: application.Float(0.5)},
		FinancialInformation: application.FinancialInformation{
			MonthlyNetIncome: application.Float(4000),
			DebtServiceRatio: application.Float(0.45),
		},
		CreditInformation: application.CreditInformation{
			CTOSScore:              application.Int(650),
			TotalCreditUtilization: application.Float(0.6),
		},
		RiskIndicators:    application.RiskIndicators{OverallRiskScore: application.Float(0.4)},
		CalculatedMetrics: application.CalculatedMetrics{NewDebtServiceRatio: application.Float(0.2), CashReserveMonths: application.Float(1)},
	}
}

func heuristicSimulator(t *testing.T) *Simulator {
	t.Helper()
	engine, err := decision.NewEngine(scoring.HeuristicModel{}, "1.0.0")
	require.NoError(t, err)
	sim, err := NewSimulator(engine)
	require.NoError(t, err)
	return sim
}

func TestSimulateWithoutModificationsUsesFixedBaseline(t *testing.T) {
	sim := heuristicSimulator(t)

	res, err := sim.Simulate(context.Background(), baseApplication(), nil)
	require.NoError(t, err)

	// 0.4 - 0.2 + 0.5 - 0.4 = 0.3 -> REJECT, change = 30 - 50
	assert.InDelta(t, 0.3, res.Decision.Probability, 1e-9)
	assert.Equal(t, decision.Reject, res.Decision.Outcome)
	assert.Equal(t, -20.0, res.ConfidenceChange)
	assert.Equal(t, "Modification decreases approval likelihood by 20.0%", res.Suggestion)
}

func TestSimulateAppliesModifications(t *testing.T) {
	sim := heuristicSimulator(t)
	base := baseApplication()

	res, err := sim.Simulate(context.Background(), base, []application.Modification{
		{Path: string(application.FieldMonthlyNetIncome), Value: 8000.0},
		{Path: string(application.FieldOverallRiskScore), Value: 0.1},
	})
	require.NoError(t, err)

	// 0.8 - 0.2 + 0.5 - 0.1 = 1.0 -> clamped 0.95
	assert.Equal(t, 0.95, res.Decision.Probability)
	assert.Equal(t, decision.Approve, res.Decision.Outcome)
	assert.Equal(t, 45.0, res.ConfidenceChange)
	assert.Equal(t, "Modification increases approval likelihood by 45.0%", res.Suggestion)
	assert.Equal(t, 8000.0, *res.Modified.FinancialInformation.MonthlyNetIncome)
	assert.Equal(t, 4000.0, *base.FinancialInformation.MonthlyNetIncome, "base must not change")
}

func TestSimulateIgnoresUnknownModifications(t *testing.T) {
	sim := heuristicSimulator(t)

	withUnknown, err := sim.Simulate(context.Background(), baseApplication(), []application.Modification{
		{Path: "financialInformation.lotteryWinnings", Value: 1e6},
		{Path: string(application.FieldCTOSScore), Value: "excellent"},
	})
	require.NoError(t, err)
	plain, err := sim.Simulate(context.Background(), baseApplication(), nil)
	require.NoError(t, err)

	assert.Len(t, withUnknown.Ignored, 2)
	assert.Equal(t, plain.ConfidenceChange, withUnknown.ConfidenceChange)
	assert.NotEqual(t, plain.Decision.ID, withUnknown.Decision.ID)
}

func TestSimulatePropagatesExtractionErrors(t *testing.T) {
	sim := heuristicSimulator(t)
	base := baseApplication()
	base.CalculatedMetrics.CashReserveMonths = nil

	_, err := sim.Simulate(context.Background(), base, nil)

	var mfe *features.MissingFieldError
	require.ErrorAs(t, err, &mfe)
	assert.Equal(t, features.CashReserveMonths, mfe.Feature)
}

func TestSimulatePropagatesScoringErrors(t *testing.T) {
	boom := errors.New("model offline")
	engine, err := decision.NewEngine(scoring.ModelFunc(func(context.Context, features.FeatureSet) (float64, error) {
		return 0, boom
	}), "1.0.0")
	require.NoError(t, err)
	sim, err := NewSimulator(engine)
	require.NoError(t, err)

	_, err = sim.Simulate(context.Background(), baseApplication(), nil)
	assert.ErrorIs(t, err, boom)
}

func TestConfidenceChange(t *testing.T) {
	tests := []struct {
		p    float64
		want float64
		text string
	}{
		{0.8, 30.0, "+30.0%"},
		{0.5, 0, "+0.0%"},
		{0.05, -45.0, "-45.0%"},
		{0.6234, 12.3, "+12.3%"},
	}
	for _, tt := range tests {
		got := ConfidenceChange(tt.p)
		assert.InDelta(t, tt.want, got, 1e-9)
		assert.Equal(t, tt.text, FormatChange(got))
	}
	assert.Equal(t, "Modification leaves approval likelihood unchanged", Suggest(0))
	assert.Equal(t, "Modification leaves approval likelihood unchanged", Suggest(ConfidenceChange(0.5004)),
		"a change that rounds to zero is not reported as an increase")
}

func TestResultJSON(t *testing.T) {
	res := &Result{
		Decision:         &decision.Decision{ID: "dec-1", Outcome: decision.Approve, Probability: 0.8},
		ConfidenceChange: 30,
		Suggestion:       Suggest(30),
	}

	out, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"decision_id": "dec-1",
		"new_decision": "APPROVE",
		"confidence_change": "+30.0%",
		"suggestion": "Modification increases approval likelihood by 30.0%"
	}`, string(out))
}

func TestRaisingIncomeFlipsARejection(t *testing.T) {
	testutil.Given(t, "a rejected application", func(t *testing.T) {
		sim := heuristicSimulator(t)
		base := baseApplication()

		testutil.When(t, "monthly income rises to 12000", func(t *testing.T) {
			mods := []application.Modification{{Path: string(application.FieldMonthlyNetIncome), Value: 12000.0}}
			res, err := sim.Simulate(context.Background(), base, mods)
			require.NoError(t, err)

			testutil.Then(t, "the clamped probability approves", func(t *testing.T) {
				assert.Equal(t, decision.Approve, res.Decision.Outcome)
				assert.Equal(t, 0.95, res.Decision.Probability)
				assert.Equal(t, "+45.0%", FormatChange(res.ConfidenceChange))
			})
			testutil.And(t, "the base application is untouched", func(t *testing.T) {
				assert.Equal(t, 4000.0, *base.FinancialInformation.MonthlyNetIncome)
				assert.Equal(t, 12000.0, *res.Modified.FinancialInformation.MonthlyNetIncome)
			})
		})
	})
}
