package pipeline

import (
	"context"
	"errors"

	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/audit"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/features"
	dErrors "github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/pkg/domain-errors"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/pkg/platform/sentinel"
)

// MsgNotCommitted is reported when a decision was computed but its audit
// record could not be written. The caller may retry the whole call.
const MsgNotCommitted = "decision computed but not committed"

func extractionError(err error) error {
	var missing *features.MissingFieldError
	if errors.As(err, &missing) {
		return dErrors.Wrap(err, dErrors.CodeValidation, missing.Error())
	}
	return dErrors.Wrap(err, dErrors.CodeInvalidInput, "application could not be read")
}

func scoringError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "request abandoned before a decision was made")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "scoring failed")
}

func appendError(err error) error {
	var perr *audit.PersistenceError
	if errors.As(err, &perr) {
		return dErrors.Wrap(err, dErrors.CodePersistence, MsgNotCommitted)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "request abandoned before the decision was committed")
	}
	return dErrors.Wrap(err, dErrors.CodePersistence, MsgNotCommitted)
}

func lookupError(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, "decision not found")
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, "audit log unavailable")
}

// resultLabel is the metrics label for an operation outcome.
func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return string(dErrors.CodeOf(err))
}
