package decision

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		probability float64
		outcome     Outcome
		codes       []string
	}{
		{"upper bound", 0.95, Approve, []string{}},
		{"approve threshold is inclusive", 0.70, Approve, []string{}},
		{"just below approve", 0.6999, Review, []string{ReasonBorderlineRisk}},
		{"midpoint", 0.5, Review, []string{ReasonBorderlineRisk}},
		{"review threshold is inclusive", 0.40, Review, []string{ReasonBorderlineRisk}},
		{"just below review", 0.3999, Reject, []string{ReasonHighRiskProfile}},
		{"lower bound", 0.05, Reject, []string{ReasonHighRiskProfile}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, codes := Classify(tt.probability)
			assert.Equal(t, tt.outcome, outcome)
			assert.Equal(t, tt.codes, codes)
		})
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.05, Clamp(-3.0))
	assert.Equal(t, 0.95, Clamp(10.0))
	assert.Equal(t, 0.5, Clamp(0.5))
	assert.Equal(t, 0.05, Clamp(0.05))
	assert.Equal(t, 0.95, Clamp(0.95))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 0.75, Round(0.7500000000000001))
	assert.Equal(t, 0.7, Round(0.69996))
	assert.Equal(t, 0.123, Round(0.1234))
	assert.Equal(t, 0.95, Round(0.95))
}

func TestClassificationProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("clamped probability stays within bounds", prop.ForAll(
		func(raw float64) bool {
			p := Clamp(raw)
			return p >= MinProbability && p <= MaxProbability
		},
		gen.Float64Range(-1e6, 1e6),
	))

	properties.Property("probabilities at or above 0.70 approve with no codes", prop.ForAll(
		func(p float64) bool {
			outcome, codes := Classify(Clamp(p))
			return outcome == Approve && len(codes) == 0
		},
		gen.Float64Range(ApproveThreshold, MaxProbability),
	))

	properties.Property("probabilities in [0.40, 0.70) are borderline", prop.ForAll(
		func(p float64) bool {
			if p >= ApproveThreshold {
				return true
			}
			outcome, codes := Classify(Clamp(p))
			return outcome == Review && len(codes) == 1 && codes[0] == ReasonBorderlineRisk
		},
		gen.Float64Range(ReviewThreshold, ApproveThreshold),
	))

	properties.Property("probabilities below 0.40 reject as high risk", prop.ForAll(
		func(p float64) bool {
			if p >= ReviewThreshold {
				return true
			}
			outcome, codes := Classify(Clamp(p))
			return outcome == Reject && len(codes) == 1 && codes[0] == ReasonHighRiskProfile
		},
		gen.Float64Range(-10, ReviewThreshold),
	))

	properties.TestingRun(t)
}

func TestParseOutcome(t *testing.T) {
	o, err := ParseOutcome(" review ")
	assert.NoError(t, err)
	assert.Equal(t, Review, o)

	_, err = ParseOutcome("MAYBE")
	assert.Error(t, err)
}
