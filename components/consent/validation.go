package consent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const documentSchemaName = "consent-document.json"

// DocumentValidator validates a banner document before it is saved.
type DocumentValidator interface {
	ValidateDocument(doc Document) error
}

// JSONSchemaValidator checks documents against a JSON schema derived from the
// theme key table and the regulation catalog.
type JSONSchemaValidator struct {
	once   sync.Once
	schema *jsonschema.Schema
	err    error
}

// NewJSONSchemaValidator builds a validator backed by jsonschema v5.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{}
}

// ValidateDocument ensures the document satisfies the schema.
func (v *JSONSchemaValidator) ValidateDocument(doc Document) error {
	schema, err := v.compiled()
	if err != nil {
		return err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("consent: marshal document: %w", err)
	}
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("consent: normalize document: %w", err)
	}
	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("consent: document failed validation: %w", err)
	}
	return nil
}

func (v *JSONSchemaValidator) compiled() (*jsonschema.Schema, error) {
	v.once.Do(func() {
		data, err := json.Marshal(DocumentSchema())
		if err != nil {
			v.err = fmt.Errorf("consent: marshal document schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(documentSchemaName, bytes.NewReader(data)); err != nil {
			v.err = fmt.Errorf("consent: load document schema: %w", err)
			return
		}
		v.schema, v.err = compiler.Compile(documentSchemaName)
		if v.err != nil {
			v.err = fmt.Errorf("consent: compile document schema: %w", v.err)
		}
	})
	return v.schema, v.err
}

// DocumentSchema returns the JSON schema for a banner document.
func DocumentSchema() map[string]any {
	color := map[string]any{
		"type":    "string",
		"pattern": "^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$",
	}
	themeProps := map[string]any{}
	for _, key := range ThemeKeys() {
		themeProps[key] = color
	}
	regulations := []any{}
	for _, reg := range Regulations() {
		regulations = append(regulations, string(reg.ID))
	}
	return map[string]any{
		"$schema":  "http://json-schema.org/draft-07/schema#",
		"type":     "object",
		"required": []any{"type", "regulation", "theme"},
		"properties": map[string]any{
			"layout":        map[string]any{"type": "string"},
			"alignment":     map[string]any{"type": "string"},
			"bannerContent": map[string]any{"type": "string"},
			"type": map[string]any{
				"enum": []any{string(SchemeLight), string(SchemeDark), string(SchemeCustom)},
			},
			"regulation": map[string]any{"enum": regulations},
			"theme": map[string]any{
				"type":                 "object",
				"properties":           themeProps,
				"additionalProperties": false,
			},
		},
	}
}

type noopDocumentValidator struct{}

func (noopDocumentValidator) ValidateDocument(Document) error { return nil }
