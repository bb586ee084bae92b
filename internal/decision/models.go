// Package decision maps a feature set to a classified, probability-scored
// loan decision. The engine owns the thresholds; the model only supplies a
// raw probability.
package decision

import (
	"fmt"
	"strings"
)

// Outcome is the decision class.
type Outcome string

const (
	Approve Outcome = "APPROVE"
	Review  Outcome = "REVIEW"
	Reject  Outcome = "REJECT"
)

// ParseOutcome accepts an outcome name in any case.
func ParseOutcome(s string) (Outcome, error) {
	switch o := Outcome(strings.ToUpper(strings.TrimSpace(s))); o {
	case Approve, Review, Reject:
		return o, nil
	default:
		return "", fmt.Errorf("unknown outcome %q", s)
	}
}

// Reason codes produced by the engine itself.
const (
	ReasonBorderlineRisk  = "BORDERLINE_RISK"
	ReasonHighRiskProfile = "HIGH_RISK_PROFILE"
)

// Probability bounds and class thresholds.
const (
	MinProbability   = 0.05
	MaxProbability   = 0.95
	ApproveThreshold = 0.70
	ReviewThreshold  = 0.40
)

// Decision is the engine's output. It is never modified after Decide
// returns it.
type Decision struct {
	ID           string   `json:"decision_id"`
	Outcome      Outcome  `json:"decision"`
	Probability  float64  `json:"probability"`
	ReasonCodes  []string `json:"reason_codes"`
	ModelVersion string   `json:"model_version"`
}
