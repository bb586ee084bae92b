package decision

import "math"

// Clamp bounds a raw model probability to [MinProbability, MaxProbability].
func Clamp(p float64) float64 {
	switch {
	case p < MinProbability:
		return MinProbability
	case p > MaxProbability:
		return MaxProbability
	default:
		return p
	}
}

// Classify maps a clamped probability to its outcome and engine reason codes.
// This is pure domain logic: thresholds are inclusive at the lower bound of
// each band. The returned slice is never nil.
func Classify(p float64) (Outcome, []string) {
	switch {
	case p >= ApproveThreshold:
		return Approve, []string{}
	case p >= ReviewThreshold:
		return Review, []string{ReasonBorderlineRisk}
	default:
		return Reject, []string{ReasonHighRiskProfile}
	}
}

// Round reports p to three decimal places. Classification always uses the
// unrounded value.
func Round(p float64) float64 {
	return math.Round(p*1000) / 1000
}
