// Package openapi embeds the API description and validates request bodies
// against its component schemas.
package openapi

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var document []byte

var (
	// ErrUnknownSchema is returned when validating against a schema that is not defined
	ErrUnknownSchema = errors.New("unknown schema")
	// ErrInvalidBody is returned when a body is not JSON or does not match its schema
	ErrInvalidBody = errors.New("request body does not match schema")
)

// Document returns the raw YAML description
func Document() []byte {
	return document
}

// Validator checks JSON bodies against named component schemas
type Validator struct {
	doc *openapi3.T
}

// NewValidator loads and validates the embedded description
func NewValidator(ctx context.Context) (*Validator, error) {
	loader := openapi3.NewLoader()

	doc, err := loader.LoadFromData(document)
	if err != nil {
		return nil, fmt.Errorf("failed to load openapi document: %w", err)
	}

	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}

	return &Validator{doc: doc}, nil
}

// Title returns the API title and version
func (v *Validator) Title() (title, version string) {
	if v.doc.Info == nil {
		return "", ""
	}
	return v.doc.Info.Title, v.doc.Info.Version
}

// ValidateBody decodes body and checks it against the component schema name
func (v *Validator) ValidateBody(name string, body []byte) error {
	if v.doc.Components == nil {
		return fmt.Errorf("%w: %s", ErrUnknownSchema, name)
	}

	ref, ok := v.doc.Components.Schemas[name]
	if !ok || ref == nil || ref.Value == nil {
		return fmt.Errorf("%w: %s", ErrUnknownSchema, name)
	}

	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}

	if err := ref.Value.VisitJSON(value); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}

	return nil
}
