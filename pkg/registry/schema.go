package registry

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// definitionSchema constrains request type definition files.
var definitionSchema = map[string]any{
	"type":     "object",
	"required": []any{"type", "display_name", "allowed_audiences"},
	"properties": map[string]any{
		"type": map[string]any{
			"type":      "string",
			"minLength": 1,
		},
		"display_name": map[string]any{
			"type":      "string",
			"minLength": 1,
		},
		"description": map[string]any{
			"type": "string",
		},
		"allowed_audiences": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items": map[string]any{
				"type": "string",
				"enum": []any{"legal", "compliance", "both"},
			},
		},
		"foreside_eligible": map[string]any{
			"type": "boolean",
		},
	},
	"additionalProperties": false,
}

// validateDefinition validates a raw definition document against the schema.
func validateDefinition(data []byte) error {
	var document map[string]any

	err := json.Unmarshal(data, &document)
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	schemaLoader := gojsonschema.NewGoLoader(definitionSchema)
	dataLoader := gojsonschema.NewGoLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return err
	}

	if !result.Valid() {
		var errors []string
		for _, desc := range result.Errors() {
			errors = append(errors, desc.String())
		}

		return fmt.Errorf("validation errors: %s", strings.Join(errors, "; "))
	}

	return nil
}
