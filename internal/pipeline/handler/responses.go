package handler

import (
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/application"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/decision"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/explain"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/pipeline"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/policy"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/whatif"
)

// DecisionResponse is the HTTP response for POST /decision.
type DecisionResponse struct {
	DecisionID   string   `json:"decision_id"`
	Decision     string   `json:"decision"`
	Probability  float64  `json:"probability"`
	ReasonCodes  []string `json:"reason_codes"`
	ModelVersion string   `json:"model_version"`
}

// BatchResponse is the HTTP response for POST /decision/batch.
type BatchResponse struct {
	Decisions []*DecisionResponse `json:"decisions"`
}

// ExplanationResponse is the HTTP response for POST /explanation.
type ExplanationResponse struct {
	DecisionID       string                `json:"decision_id"`
	Contributions    explain.Contributions `json:"feature_contributions"`
	ReasonCodes      []string              `json:"reason_codes"`
	Summary          string                `json:"summary"`
	PolicyReferences []policy.Reference    `json:"policy_references"`
}

// WhatIfResponse is the HTTP response for POST /what-if.
type WhatIfResponse struct {
	DecisionID           string   `json:"decision_id"`
	NewDecision          string   `json:"new_decision"`
	ConfidenceChange     string   `json:"confidence_change"`
	Suggestion           string   `json:"suggestion"`
	IgnoredModifications []string `json:"ignored_modifications,omitempty"`
}

func FromDecision(d *decision.Decision) *DecisionResponse {
	codes := d.ReasonCodes
	if codes == nil {
		codes = []string{}
	}
	return &DecisionResponse{
		DecisionID:   d.ID,
		Decision:     string(d.Outcome),
		Probability:  d.Probability,
		ReasonCodes:  codes,
		ModelVersion: d.ModelVersion,
	}
}

func FromEvaluations(results []*pipeline.Evaluation) *BatchResponse {
	resp := &BatchResponse{Decisions: make([]*DecisionResponse, 0, len(results))}
	for _, res := range results {
		resp.Decisions = append(resp.Decisions, FromDecision(res.Decision))
	}
	return resp
}

func FromExplanation(res *pipeline.ExplanationResult) *ExplanationResponse {
	return &ExplanationResponse{
		DecisionID:       res.Explanation.DecisionID,
		Contributions:    res.Explanation.Contributions,
		ReasonCodes:      res.Explanation.ReasonCodes,
		Summary:          res.Explanation.Summary,
		PolicyReferences: res.PolicyReferences,
	}
}

func FromWhatIf(res *whatif.Result) *WhatIfResponse {
	return &WhatIfResponse{
		DecisionID:           res.Decision.ID,
		NewDecision:          string(res.Decision.Outcome),
		ConfidenceChange:     whatif.FormatChange(res.ConfidenceChange),
		Suggestion:           res.Suggestion,
		IgnoredModifications: ignoredPaths(res.Ignored),
	}
}

func ignoredPaths(mods []application.Modification) []string {
	if len(mods) == 0 {
		return nil
	}
	paths := make([]string, 0, len(mods))
	for _, m := range mods {
		paths = append(paths, m.Path)
	}
	return paths
}
