package internal

import (
	"encoding/json"
	"fmt"

	"github.com/astro-otter/otter"
	"github.com/google/jsonschema-go/jsonschema"
)

// SchemaValidator checks raw transient documents against a resolved JSON Schema.
type SchemaValidator struct {
	resolved *jsonschema.Resolved
}

// NewSchemaValidator resolves schemaBytes once for reuse across documents.
func NewSchemaValidator(schemaBytes []byte) (*SchemaValidator, error) {
	var schema jsonschema.Schema
	if err := json.Unmarshal(schemaBytes, &schema); err != nil {
		return nil, fmt.Errorf("failed to unmarshal into jsonschema.Schema: %w", err)
	}

	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve JSON schema: %w", err)
	}
	return &SchemaValidator{resolved: resolved}, nil
}

// NewTransientSchemaValidator validates against the embedded transient schema.
func NewTransientSchemaValidator() (*SchemaValidator, error) {
	return NewSchemaValidator(otter.TransientSchema)
}

// Validate returns an INVALID_DOCUMENT error when doc does not match the schema.
// doc must hold JSON-decoded values.
func (v *SchemaValidator) Validate(doc map[string]any) error {
	if doc == nil {
		return otter.NewInvalidDocumentError("document cannot be nil", nil)
	}
	if err := v.resolved.Validate(doc); err != nil {
		return otter.NewInvalidDocumentError("JSON validation failed", err)
	}
	return nil
}
