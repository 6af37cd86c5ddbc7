package workflow

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/contentops/approvalflow/pkg/models"
)

func newTestMatcher() *Matcher {
	return NewMatcher(slog.Default())
}

func activeWorkflow(rules models.ApplicableTo) *models.Workflow {
	return &models.Workflow{
		ID:           "wf-1",
		Name:         "Test Workflow",
		IsActive:     true,
		ApplicableTo: rules,
	}
}

func floatPtr(v float64) *float64 { return &v }

func TestMatcher_Matches_Dimensions(t *testing.T) {
	item := &models.ContentItem{
		ID:               "content-1",
		Type:             "video",
		Platform:         "youtube",
		Priority:         "high",
		ClientID:         "client-1",
		Tags:             []string{"campaign", "q3"},
		EstimatedRevenue: 5000,
	}

	tests := []struct {
		name  string
		rules models.ApplicableTo
		want  bool
	}{
		{
			name:  "empty rule set matches everything",
			rules: models.ApplicableTo{},
			want:  true,
		},
		{
			name:  "all sentinel never excludes",
			rules: models.ApplicableTo{ContentTypes: []string{models.FilterAll}},
			want:  true,
		},
		{
			name:  "all sentinel alongside other values still matches",
			rules: models.ApplicableTo{ContentTypes: []string{"article", models.FilterAll}},
			want:  true,
		},
		{
			name:  "content type allowlist match",
			rules: models.ApplicableTo{ContentTypes: []string{"video", "short"}},
			want:  true,
		},
		{
			name:  "content type allowlist miss",
			rules: models.ApplicableTo{ContentTypes: []string{"article"}},
			want:  false,
		},
		{
			name:  "platform miss",
			rules: models.ApplicableTo{Platforms: []string{"tiktok"}},
			want:  false,
		},
		{
			name:  "priority match",
			rules: models.ApplicableTo{Priorities: []string{"high", "urgent"}},
			want:  true,
		},
		{
			name:  "client membership match",
			rules: models.ApplicableTo{Clients: []string{"client-1", "client-2"}},
			want:  true,
		},
		{
			name:  "client membership miss",
			rules: models.ApplicableTo{Clients: []string{"client-9"}},
			want:  false,
		},
		{
			name:  "single shared tag is enough",
			rules: models.ApplicableTo{Tags: []string{"q3", "q4"}},
			want:  true,
		},
		{
			name:  "no shared tags",
			rules: models.ApplicableTo{Tags: []string{"q4"}},
			want:  false,
		},
		{
			name:  "business value inside inclusive range",
			rules: models.ApplicableTo{BusinessValue: models.BusinessValueRange{Min: floatPtr(5000), Max: floatPtr(10000)}},
			want:  true,
		},
		{
			name:  "business value below min",
			rules: models.ApplicableTo{BusinessValue: models.BusinessValueRange{Min: floatPtr(6000)}},
			want:  false,
		},
		{
			name:  "business value above max",
			rules: models.ApplicableTo{BusinessValue: models.BusinessValueRange{Max: floatPtr(4000)}},
			want:  false,
		},
		{
			name:  "unbounded business value never excludes",
			rules: models.ApplicableTo{BusinessValue: models.BusinessValueRange{}},
			want:  true,
		},
		{
			name: "all dimensions combined",
			rules: models.ApplicableTo{
				ContentTypes: []string{"video"},
				Platforms:    []string{"youtube"},
				Priorities:   []string{"high"},
				Tags:         []string{"campaign"},
				BusinessValue: models.BusinessValueRange{
					Min: floatPtr(1000),
				},
			},
			want: true,
		},
	}

	matcher := newTestMatcher()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matcher.Matches(activeWorkflow(tt.rules), item))
		})
	}
}

func TestMatcher_Matches_ExcludesDeletedAndInactive(t *testing.T) {
	matcher := newTestMatcher()
	item := &models.ContentItem{ID: "content-1", Type: "video"}

	deleted := activeWorkflow(models.ApplicableTo{})
	deleted.IsDeleted = true
	assert.False(t, matcher.Matches(deleted, item))

	inactive := activeWorkflow(models.ApplicableTo{})
	inactive.IsActive = false
	assert.False(t, matcher.Matches(inactive, item))
}
