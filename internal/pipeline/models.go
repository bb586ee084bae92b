// Package pipeline runs a loan application through feature extraction,
// decision, explanation, policy resolution and audit, in that order.
package pipeline

import (
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/audit"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/decision"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/explain"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/policy"
)

// Evaluation is a committed decision with everything derived from it.
type Evaluation struct {
	Decision         *decision.Decision
	Explanation      *explain.Explanation
	PolicyReferences []policy.Reference
	Record           *audit.Record
}

// ExplanationResult is an explanation with its resolved policy references.
type ExplanationResult struct {
	Explanation      *explain.Explanation
	PolicyReferences []policy.Reference
}
