package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateWorkflowDocument(t *testing.T) {
	valid := map[string]any{
		"name":      "Standard Review",
		"client_id": "client-1",
		"stages": []any{
			map[string]any{
				"name":  "Initial Review",
				"order": 1,
				"conditions": []any{
					map[string]any{"type": "priority", "operator": "equals", "value": "high"},
				},
			},
		},
	}

	require.NoError(t, ValidateWorkflowDocument(valid))

	tests := []struct {
		name     string
		mutate   func(doc map[string]any)
		errorMsg string
	}{
		{
			name:     "missing name",
			mutate:   func(doc map[string]any) { delete(doc, "name") },
			errorMsg: "name is required",
		},
		{
			name:     "missing client_id",
			mutate:   func(doc map[string]any) { delete(doc, "client_id") },
			errorMsg: "client_id is required",
		},
		{
			name: "stage order below minimum",
			mutate: func(doc map[string]any) {
				doc["stages"] = []any{map[string]any{"name": "Review", "order": 0}}
			},
			errorMsg: "Must be greater than or equal to 1",
		},
		{
			name: "unknown condition operator",
			mutate: func(doc map[string]any) {
				doc["stages"] = []any{map[string]any{
					"name":  "Review",
					"order": 1,
					"conditions": []any{
						map[string]any{"type": "priority", "operator": "matches", "value": "high"},
					},
				}}
			},
			errorMsg: "must be one of the following",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := map[string]any{
				"name":      valid["name"],
				"client_id": valid["client_id"],
				"stages":    valid["stages"],
			}
			tt.mutate(doc)

			err := ValidateWorkflowDocument(doc)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}
