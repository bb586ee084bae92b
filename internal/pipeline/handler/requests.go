package handler

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/application"
	dErrors "github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/pkg/domain-errors"
)

// MaxBatchSize caps the number of applications in one batch request.
const MaxBatchSize = 100

// ApplicationRequest is a raw application document. It is kept as bytes so
// it can be checked against the JSON schema before it is decoded.
type ApplicationRequest struct {
	raw json.RawMessage
}

func (r *ApplicationRequest) UnmarshalJSON(b []byte) error {
	r.raw = append(r.raw[:0], b...)
	return nil
}

// Validate implements httputil.Validatable.
func (r *ApplicationRequest) Validate() error {
	if r == nil || !isObject(r.raw) {
		return dErrors.New(dErrors.CodeBadRequest, "request body must be a JSON object")
	}
	return nil
}

// Raw returns the document as received.
func (r *ApplicationRequest) Raw() json.RawMessage {
	return r.raw
}

// BatchRequest is the body of POST /decision/batch.
type BatchRequest struct {
	Applications []json.RawMessage `json:"applications"`
}

func (r *BatchRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Applications) == 0 {
		return dErrors.New(dErrors.CodeValidation, "applications must not be empty")
	}
	if len(r.Applications) > MaxBatchSize {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("at most %d applications per batch", MaxBatchSize))
	}
	for i, raw := range r.Applications {
		if !isObject(raw) {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("applications[%d] must be an object", i))
		}
	}
	return nil
}

// WhatIfRequest is the body of POST /what-if. Modifications map dotted field
// paths to new values.
type WhatIfRequest struct {
	Application   json.RawMessage `json:"application"`
	Modifications map[string]any  `json:"modifications"`

	parsedModifications []application.Modification
}

func (r *WhatIfRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if !isObject(r.Application) {
		return dErrors.New(dErrors.CodeValidation, "application is required")
	}
	r.parsedModifications = application.ModificationsFromMap(r.Modifications)
	return nil
}

// ParsedModifications returns the modifications in path order.
func (r *WhatIfRequest) ParsedModifications() []application.Modification {
	return r.parsedModifications
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
