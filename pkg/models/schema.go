package models

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// workflowSchema is the JSON schema for stored workflow documents. File
// persistence and the CLI validate command both check documents against it
// before they reach the engine, so malformed definitions surface at the
// edge instead of as silent non-matches.
var workflowSchema = map[string]any{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type":    "object",
	"required": []any{"name", "client_id"},
	"properties": map[string]any{
		"id":          map[string]any{"type": "string"},
		"name":        map[string]any{"type": "string", "minLength": 3},
		"description": map[string]any{"type": "string"},
		"client_id":   map[string]any{"type": "string", "minLength": 1},
		"is_default":  map[string]any{"type": "boolean"},
		"is_active":   map[string]any{"type": "boolean"},
		"is_deleted":  map[string]any{"type": "boolean"},
		"version":     map[string]any{"type": "integer", "minimum": 1},
		"stages": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []any{"name", "order"},
				"properties": map[string]any{
					"name":       map[string]any{"type": "string", "minLength": 1},
					"order":      map[string]any{"type": "integer", "minimum": 1},
					"approvers":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					"time_limit": map[string]any{"type": "number", "exclusiveMinimum": 0},
					"conditions": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type":     "object",
							"required": []any{"type", "operator"},
							"properties": map[string]any{
								"type": map[string]any{
									"enum": []any{"content_type", "priority", "client", "value"},
								},
								"operator": map[string]any{
									"enum": []any{"equals", "not_equals", "contains", "greater_than", "less_than"},
								},
							},
						},
					},
					"escalation": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"enabled":     map[string]any{"type": "boolean"},
							"after_hours": map[string]any{"type": "number", "exclusiveMinimum": 0},
							"escalate_to": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
							"type":        map[string]any{"enum": []any{"parallel", "replace"}},
						},
					},
				},
			},
		},
	},
}

// ValidateWorkflowDocument validates a decoded workflow document against
// the schema. Returns nil when the document is well-formed.
func ValidateWorkflowDocument(document map[string]any) error {
	schemaLoader := gojsonschema.NewGoLoader(workflowSchema)
	documentLoader := gojsonschema.NewGoLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("failed to validate workflow document: %w", err)
	}

	if !result.Valid() {
		descriptions := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			descriptions = append(descriptions, desc.String())
		}

		return fmt.Errorf("invalid workflow document: %s", strings.Join(descriptions, "; "))
	}

	return nil
}
