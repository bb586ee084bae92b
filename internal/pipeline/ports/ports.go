// Package ports declares the pipeline's view of its collaborators, so the
// service can be tested without real scoring or storage.
package ports

import (
	"context"

	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/application"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/audit"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/decision"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/explain"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/features"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/policy"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/whatif"
)

// Decider classifies a feature set.
type Decider interface {
	Decide(ctx context.Context, fs features.FeatureSet) (*decision.Decision, error)
}

// Explainer derives contributions and reason codes. It must be pure.
type Explainer interface {
	Explain(fs features.FeatureSet, decisionID string) *explain.Explanation
}

// PolicyResolver maps reason codes to policy references.
type PolicyResolver interface {
	Retrieve(codes []string) []policy.Reference
}

// Simulator re-decides a modified copy of an application.
type Simulator interface {
	Simulate(ctx context.Context, base application.LoanApplication, mods []application.Modification) (*whatif.Result, error)
}

// AuditLog is the durable record of committed decisions.
type AuditLog interface {
	Append(ctx context.Context, entry audit.Entry) (*audit.Record, error)
	Get(ctx context.Context, decisionID string) (*audit.Record, error)
	Verify(ctx context.Context) (*audit.VerifyReport, error)
}
