package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/application"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/audit"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/pipeline"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/whatif"
	dErrors "github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/pkg/domain-errors"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/pkg/platform/httputil"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/pkg/requestcontext"
)

// Service defines the pipeline operations exposed over HTTP.
type Service interface {
	Evaluate(ctx context.Context, app application.LoanApplication) (*pipeline.Evaluation, error)
	EvaluateBatch(ctx context.Context, apps []application.LoanApplication) ([]*pipeline.Evaluation, error)
	Explain(ctx context.Context, app application.LoanApplication, decisionID string) (*pipeline.ExplanationResult, error)
	Simulate(ctx context.Context, app application.LoanApplication, mods []application.Modification) (*whatif.Result, error)
	GetAudit(ctx context.Context, decisionID string) (*audit.Record, error)
	Verify(ctx context.Context) (*audit.VerifyReport, error)
}

// SchemaValidator checks a raw application document.
type SchemaValidator interface {
	Validate(raw []byte) error
}

// Handler wires pipeline endpoints to the pipeline service.
type Handler struct {
	service   Service
	validator SchemaValidator
	logger    *slog.Logger
}

func New(service Service, validator SchemaValidator, logger *slog.Logger) *Handler {
	return &Handler{
		service:   service,
		validator: validator,
		logger:    logger,
	}
}

// Register mounts pipeline endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/decision", h.HandleDecision)
	r.Post("/decision/batch", h.HandleBatch)
	r.Post("/explanation", h.HandleExplanation)
	r.Post("/what-if", h.HandleWhatIf)
	r.Get("/audit/verify", h.HandleVerify)
	r.Get("/audit/{decisionID}", h.HandleGetAudit)
}

// HandleDecision handles POST /decision.
func (h *Handler) HandleDecision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[ApplicationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	app, err := h.decodeApplication(req.Raw(), "")
	if err != nil {
		h.reject(ctx, w, requestID, err)
		return
	}

	res, err := h.service.Evaluate(ctx, app)
	if err != nil {
		h.fail(ctx, w, requestID, "decision failed", err, "application_id", app.ApplicationID)
		return
	}

	h.logger.InfoContext(ctx, "decision returned",
		"request_id", requestID,
		"decision_id", res.Decision.ID,
		"outcome", res.Decision.Outcome,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromDecision(res.Decision))
}

// HandleBatch handles POST /decision/batch.
func (h *Handler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[BatchRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	apps := make([]application.LoanApplication, 0, len(req.Applications))
	for i, raw := range req.Applications {
		app, err := h.decodeApplication(raw, fmt.Sprintf("applications[%d]", i))
		if err != nil {
			h.reject(ctx, w, requestID, err)
			return
		}
		apps = append(apps, app)
	}

	results, err := h.service.EvaluateBatch(ctx, apps)
	if err != nil {
		h.fail(ctx, w, requestID, "batch decision failed", err, "batch_size", len(apps))
		return
	}

	h.logger.InfoContext(ctx, "batch decisions returned",
		"request_id", requestID,
		"batch_size", len(results),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromEvaluations(results))
}

// HandleExplanation handles POST /explanation?decision_id=.
func (h *Handler) HandleExplanation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	decisionID := r.URL.Query().Get("decision_id")
	if decisionID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "decision_id query parameter is required"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[ApplicationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	app, err := h.decodeApplication(req.Raw(), "")
	if err != nil {
		h.reject(ctx, w, requestID, err)
		return
	}

	res, err := h.service.Explain(ctx, app, decisionID)
	if err != nil {
		h.fail(ctx, w, requestID, "explanation failed", err, "decision_id", decisionID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromExplanation(res))
}

// HandleWhatIf handles POST /what-if.
func (h *Handler) HandleWhatIf(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[WhatIfRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	app, err := h.decodeApplication(req.Application, "")
	if err != nil {
		h.reject(ctx, w, requestID, err)
		return
	}

	res, err := h.service.Simulate(ctx, app, req.ParsedModifications())
	if err != nil {
		h.fail(ctx, w, requestID, "what-if failed", err, "application_id", app.ApplicationID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromWhatIf(res))
}

// HandleGetAudit handles GET /audit/{decisionID}.
func (h *Handler) HandleGetAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	decisionID := chi.URLParam(r, "decisionID")

	rec, err := h.service.GetAudit(ctx, decisionID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.logger.InfoContext(ctx, "audit record not found",
				"request_id", requestID,
				"decision_id", decisionID,
			)
			httputil.WriteError(w, err)
			return
		}
		h.fail(ctx, w, requestID, "audit lookup failed", err, "decision_id", decisionID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

// HandleVerify handles GET /audit/verify.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	report, err := h.service.Verify(ctx)
	if err != nil {
		h.fail(ctx, w, requestID, "audit verification failed", err)
		return
	}
	status := http.StatusOK
	if !report.Valid {
		status = http.StatusConflict
	}
	httputil.WriteJSON(w, status, report)
}

// decodeApplication checks raw against the schema and decodes it. A
// non-empty where prefixes error messages, for documents inside a batch.
func (h *Handler) decodeApplication(raw json.RawMessage, where string) (application.LoanApplication, error) {
	var app application.LoanApplication
	if err := h.validator.Validate(raw); err != nil {
		if where == "" {
			return app, err
		}
		var de *dErrors.Error
		if errors.As(err, &de) {
			return app, dErrors.Wrap(err, de.Code, where+": "+de.Message)
		}
		return app, dErrors.Wrap(err, dErrors.CodeValidation, where+" is invalid")
	}
	if err := json.Unmarshal(raw, &app); err != nil {
		return app, dErrors.Wrap(err, dErrors.CodeBadRequest, "application could not be decoded")
	}
	return app, nil
}

func (h *Handler) reject(ctx context.Context, w http.ResponseWriter, requestID string, err error) {
	h.logger.WarnContext(ctx, "request validation failed",
		"request_id", requestID,
		"error", err,
	)
	httputil.WriteError(w, err)
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, requestID, msg string, err error, attrs ...any) {
	args := append([]any{"request_id", requestID, "error", err}, attrs...)
	h.logger.ErrorContext(ctx, msg, args...)
	httputil.WriteError(w, err)
}
