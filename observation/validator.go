package observation

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas
var schemaFiles embed.FS

const schemaBaseURL = "https://pokerequity.dev/schemas/"

// Schema names.
const (
	SchemaObservation = "observation"
	SchemaDecision    = "decision"
	SchemaReport      = "report"
)

// Validator checks documents against the embedded JSON schemas.
type Validator struct {
	schemas map[string]*jsonschema.Schema
}

// NewValidator compiles every embedded schema.
func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	entries, err := schemaFiles.ReadDir("schemas")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema directory: %w", err)
	}

	schemas := make(map[string]*jsonschema.Schema, len(entries))
	for _, entry := range entries {
		filename := entry.Name()
		data, err := schemaFiles.ReadFile("schemas/" + filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema %s: %w", filename, err)
		}

		url := schemaBaseURL + filename
		if err := compiler.AddResource(url, bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("failed to add schema %s: %w", filename, err)
		}
		schema, err := compiler.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema %s: %w", filename, err)
		}
		schemas[strings.TrimSuffix(filename, ".json")] = schema
	}

	return &Validator{schemas: schemas}, nil
}

// Validate checks raw JSON against the named schema.
func (v *Validator) Validate(schemaName string, data []byte) error {
	schema, ok := v.schemas[schemaName]
	if !ok {
		return fmt.Errorf("schema not found: %s", schemaName)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// ValidateValue marshals v and validates it against the named schema.
func (v *Validator) ValidateValue(schemaName string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %T: %w", value, err)
	}
	return v.Validate(schemaName, data)
}

// DecodeObservation validates, decodes and normalizes one observation.
func (v *Validator) DecodeObservation(data []byte) (GameObservation, error) {
	if err := v.Validate(SchemaObservation, data); err != nil {
		return GameObservation{}, fmt.Errorf("%w: %w", ErrInvalidObservation, err)
	}
	var obs GameObservation
	if err := json.Unmarshal(data, &obs); err != nil {
		return GameObservation{}, fmt.Errorf("%w: %w", ErrInvalidObservation, err)
	}
	return obs.Normalize()
}
