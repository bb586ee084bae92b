package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/application"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/audit"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/features"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/pipeline/metrics"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/pipeline/ports"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/whatif"
	dErrors "github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/pkg/domain-errors"
	platformstrings "github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/pkg/platform/strings"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/pkg/requestcontext"
)

const tracerName = "github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/pipeline"

// DefaultBatchLimit bounds how many applications of one batch are evaluated
// at the same time.
const DefaultBatchLimit = 8

// Service is built once per process and shared by every request. It holds
// no per-request state.
type Service struct {
	decider    ports.Decider
	explainer  ports.Explainer
	policies   ports.PolicyResolver
	simulator  ports.Simulator
	audit      ports.AuditLog
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	batchLimit int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func WithBatchLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchLimit = n
		}
	}
}

func New(
	decider ports.Decider,
	explainer ports.Explainer,
	policies ports.PolicyResolver,
	simulator ports.Simulator,
	auditLog ports.AuditLog,
	opts ...Option,
) (*Service, error) {
	switch {
	case decider == nil:
		return nil, errors.New("decider is required")
	case explainer == nil:
		return nil, errors.New("explainer is required")
	case policies == nil:
		return nil, errors.New("policy resolver is required")
	case simulator == nil:
		return nil, errors.New("simulator is required")
	case auditLog == nil:
		return nil, errors.New("audit log is required")
	}
	s := &Service{
		decider:    decider,
		explainer:  explainer,
		policies:   policies,
		simulator:  simulator,
		audit:      auditLog,
		logger:     slog.Default(),
		tracer:     otel.Tracer(tracerName),
		batchLimit: DefaultBatchLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Evaluate decides app, explains the decision, resolves policy references
// and commits the audit record. A decision is only returned once its record
// is durable.
func (s *Service) Evaluate(ctx context.Context, app application.LoanApplication) (res *Evaluation, err error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.Evaluate",
		trace.WithAttributes(attribute.String("application.id", app.ApplicationID)))
	start := time.Now()
	defer func() { s.finish(span, "evaluate", start, err) }()

	fs, err := s.extract(ctx, app)
	if err != nil {
		return nil, err
	}

	_, stage := s.tracer.Start(ctx, "decision.Decide")
	d, err := s.decider.Decide(ctx, fs)
	stage.End()
	if err != nil {
		return nil, scoringError(err)
	}
	span.SetAttributes(
		attribute.String("decision.id", d.ID),
		attribute.String("decision.outcome", string(d.Outcome)),
	)

	exp := s.explainer.Explain(fs, d.ID)
	refs := s.policies.Retrieve(mergeCodes(d.ReasonCodes, exp.ReasonCodes))

	rec, err := s.commit(ctx, audit.Entry{
		Kind:             audit.KindDecision,
		Input:            app,
		Decision:         *d,
		Explanation:      exp,
		PolicyReferences: refs,
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "decision committed",
		"request_id", requestcontext.RequestID(ctx),
		"decision_id", d.ID,
		"outcome", d.Outcome,
		"probability", d.Probability,
		"sequence", rec.Sequence,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &Evaluation{
		Decision:         d,
		Explanation:      exp,
		PolicyReferences: refs,
		Record:           rec,
	}, nil
}

// EvaluateBatch evaluates apps independently with bounded concurrency.
// Results keep the input order. The first failure cancels evaluations that
// have not yet committed and is returned; decisions already committed stay
// in the audit log.
func (s *Service) EvaluateBatch(ctx context.Context, apps []application.LoanApplication) ([]*Evaluation, error) {
	s.metrics.ObserveBatch(len(apps))
	results := make([]*Evaluation, len(apps))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchLimit)
	for i, app := range apps {
		g.Go(func() error {
			res, err := s.Evaluate(gctx, app)
			if err != nil {
				return fmt.Errorf("applications[%d]: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Explain recomputes the explanation for app under decisionID. It is pure
// and writes nothing to the audit log.
func (s *Service) Explain(ctx context.Context, app application.LoanApplication, decisionID string) (res *ExplanationResult, err error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.Explain",
		trace.WithAttributes(attribute.String("decision.id", decisionID)))
	start := time.Now()
	defer func() { s.finish(span, "explain", start, err) }()

	if decisionID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "decision_id is required")
	}
	fs, err := s.extract(ctx, app)
	if err != nil {
		return nil, err
	}
	exp := s.explainer.Explain(fs, decisionID)
	return &ExplanationResult{
		Explanation:      exp,
		PolicyReferences: s.policies.Retrieve(exp.ReasonCodes),
	}, nil
}

// Simulate re-decides a modified copy of app and commits a what-if record
// for the new decision. The record carries no explanation and no policy
// references; its input hash covers the modified application.
func (s *Service) Simulate(ctx context.Context, app application.LoanApplication, mods []application.Modification) (res *whatif.Result, err error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.Simulate",
		trace.WithAttributes(attribute.Int("modifications", len(mods))))
	start := time.Now()
	defer func() { s.finish(span, "simulate", start, err) }()

	res, err = s.simulator.Simulate(ctx, app, mods)
	if err != nil {
		var missing *features.MissingFieldError
		if errors.As(err, &missing) {
			return nil, extractionError(err)
		}
		return nil, scoringError(err)
	}

	rec, err := s.commit(ctx, audit.Entry{
		Kind:     audit.KindWhatIf,
		Input:    res.Modified,
		Decision: *res.Decision,
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "what-if committed",
		"request_id", requestcontext.RequestID(ctx),
		"decision_id", res.Decision.ID,
		"outcome", res.Decision.Outcome,
		"confidence_change", res.ConfidenceChange,
		"ignored_modifications", len(res.Ignored),
		"sequence", rec.Sequence,
	)
	return res, nil
}

// GetAudit returns the audit record for decisionID.
func (s *Service) GetAudit(ctx context.Context, decisionID string) (rec *audit.Record, err error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.GetAudit",
		trace.WithAttributes(attribute.String("decision.id", decisionID)))
	start := time.Now()
	defer func() { s.finish(span, "get_audit", start, err) }()

	if decisionID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "decision_id is required")
	}
	rec, err = s.audit.Get(ctx, decisionID)
	if err != nil {
		return nil, lookupError(err)
	}
	return rec, nil
}

// Verify checks the audit hash chain.
func (s *Service) Verify(ctx context.Context) (report *audit.VerifyReport, err error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.Verify")
	start := time.Now()
	defer func() { s.finish(span, "verify", start, err) }()

	report, err = s.audit.Verify(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "audit log unavailable")
	}
	return report, nil
}

func (s *Service) extract(ctx context.Context, app application.LoanApplication) (features.FeatureSet, error) {
	_, span := s.tracer.Start(ctx, "features.Extract")
	defer span.End()
	fs, err := features.Extract(app)
	if err != nil {
		return features.FeatureSet{}, extractionError(err)
	}
	return fs, nil
}

func (s *Service) commit(ctx context.Context, entry audit.Entry) (*audit.Record, error) {
	ctx, span := s.tracer.Start(ctx, "audit.Append")
	defer span.End()
	rec, err := s.audit.Append(ctx, entry)
	if err != nil {
		s.logger.ErrorContext(ctx, "audit append failed",
			"request_id", requestcontext.RequestID(ctx),
			"decision_id", entry.Decision.ID,
			"kind", entry.Kind,
			"error", err,
		)
		return nil, appendError(err)
	}
	span.SetAttributes(attribute.Int64("audit.sequence", int64(rec.Sequence)))
	return rec, nil
}

func (s *Service) finish(span trace.Span, operation string, start time.Time, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
	s.metrics.Observe(operation, resultLabel(err), time.Since(start))
}

// mergeCodes concatenates code lists, keeping the first occurrence of each.
func mergeCodes(lists ...[]string) []string {
	return platformstrings.DedupeAndTrim(slices.Concat(lists...))
}
