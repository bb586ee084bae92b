// Package whatif re-evaluates an application under hypothetical field
// changes.
package whatif

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/application"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/decision"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/features"
)

// Baseline is the fixed reference point, in percentage points, that
// ConfidenceChange is measured from. It is not the base application's own
// probability.
const Baseline = 50.0

// Decider is the decision engine as seen by the simulator.
type Decider interface {
	Decide(ctx context.Context, fs features.FeatureSet) (*decision.Decision, error)
}

// Result is the outcome of one simulation.
type Result struct {
	Decision         *decision.Decision
	ConfidenceChange float64
	Suggestion       string

	// Modified is the application that was actually evaluated.
	Modified application.LoanApplication
	// Ignored lists modifications that did not apply.
	Ignored []application.Modification
}

type resultJSON struct {
	DecisionID       string           `json:"decision_id"`
	NewDecision      decision.Outcome `json:"new_decision"`
	ConfidenceChange string           `json:"confidence_change"`
	Suggestion       string           `json:"suggestion"`
}

// MarshalJSON renders the wire shape, with ConfidenceChange as a signed
// percentage such as "+30.0%".
func (r *Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{
		DecisionID:       r.Decision.ID,
		NewDecision:      r.Decision.Outcome,
		ConfidenceChange: FormatChange(r.ConfidenceChange),
		Suggestion:       r.Suggestion,
	})
}

// Simulator applies modifications to a copy of an application and decides
// again.
type Simulator struct {
	decider Decider
}

func NewSimulator(decider Decider) (*Simulator, error) {
	if decider == nil {
		return nil, fmt.Errorf("decider is required")
	}
	return &Simulator{decider: decider}, nil
}

// Simulate never mutates base. Modifications outside the closed field set,
// or with values of the wrong type, are skipped and reported in
// Result.Ignored. Extraction and scoring errors are returned unchanged.
func (s *Simulator) Simulate(ctx context.Context, base application.LoanApplication, mods []application.Modification) (*Result, error) {
	modified, ignored := application.Apply(base, mods)

	fs, err := features.Extract(modified)
	if err != nil {
		return nil, err
	}
	d, err := s.decider.Decide(ctx, fs)
	if err != nil {
		return nil, err
	}

	change := ConfidenceChange(d.Probability)
	return &Result{
		Decision:         d,
		ConfidenceChange: change,
		Suggestion:       Suggest(change),
		Modified:         modified,
		Ignored:          ignored,
	}, nil
}

// ConfidenceChange is round(p*100 - Baseline, 1).
func ConfidenceChange(p float64) float64 {
	delta := math.Round((p*100-Baseline)*10) / 10
	if delta == 0 {
		// normalise negative zero
		return 0
	}
	return delta
}

// FormatChange renders a change as a signed percentage.
func FormatChange(delta float64) string {
	return fmt.Sprintf("%+.1f%%", delta)
}

// Suggest states the direction and magnitude of a change.
func Suggest(delta float64) string {
	switch {
	case delta > 0:
		return fmt.Sprintf("Modification increases approval likelihood by %.1f%%", delta)
	case delta < 0:
		return fmt.Sprintf("Modification decreases approval likelihood by %.1f%%", -delta)
	default:
		return "Modification leaves approval likelihood unchanged"
	}
}
