package application

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	dErrors "github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/pkg/domain-errors"
)

const schemaURL = "https://schemas.xai-decision.local/loan_application.schema.json"

//go:embed schema/loan_application.schema.json
var schemaDocument string

// Validator checks raw application documents against the embedded schema.
// The schema checks shape and types only; presence of the fields that feed
// features is enforced by feature extraction.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles the embedded schema.
func NewValidator() (*Validator, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(schemaURL, bytes.NewReader([]byte(schemaDocument))); err != nil {
		return nil, fmt.Errorf("load application schema: %w", err)
	}
	schema, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile application schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// Validate checks a raw JSON document. Violations are returned as
// CodeValidation errors naming the offending location.
func (v *Validator) Validate(raw []byte) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid JSON document")
	}
	if err := v.schema.Validate(doc); err != nil {
		return dErrors.New(dErrors.CodeValidation, describe(err))
	}
	return nil
}

// describe flattens the first leaf cause of a schema error into one line.
func describe(err error) string {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := ve.InstanceLocation
	if loc == "" {
		loc = "/"
	}
	return fmt.Sprintf("application%s: %s", loc, ve.Message)
}
