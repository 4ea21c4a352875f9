package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// TemplateJSONSchema returns the JSON-Schema (draft 2020-12 subset) a template
// candidate must satisfy before field-level checks run.
func TemplateJSONSchema() map[string]any {
	field := map[string]any{
		"oneOf": []any{
			map[string]any{"type": "string"},
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"label": map[string]any{"type": "string"},
					"name":  map[string]any{"type": "string"},
				},
			},
		},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":  map[string]any{"type": "string"},
			"fields": map[string]any{"type": "array", "minItems": 1, "items": field},
		},
		"required": []string{"title", "fields"},
	}
}

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func templateSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		b, err := json.Marshal(TemplateJSONSchema())
		if err != nil {
			schemaErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("template.json", bytes.NewReader(b)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile("template.json")
	})
	return compiledSchema, schemaErr
}

// checkShape validates c against TemplateJSONSchema.
func checkShape(c Candidate) error {
	schema, err := templateSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	if err := schema.Validate(map[string]any(c)); err != nil {
		return &Error{Kind: KindSchemaInvalid, Detail: "template does not match schema", Cause: err}
	}
	return nil
}
