// Package workflow implements the approval workflow engine: applicability
// matching, stage navigation, escalation decisions, analytics recording and
// workflow lifecycle operations.
package workflow

import (
	"log/slog"
	"slices"

	"github.com/contentops/approvalflow/pkg/models"
)

// Matcher decides whether a workflow definition is eligible to govern a
// content item, based on the workflow's ApplicableTo rule set.
type Matcher struct {
	logger *slog.Logger
}

// NewMatcher creates a new applicability matcher.
func NewMatcher(logger *slog.Logger) *Matcher {
	return &Matcher{
		logger: logger.With("module", "applicability_matcher"),
	}
}

// Matches reports whether the workflow applies to the content item.
//
// Per-dimension semantics: content types, platforms and priorities are
// allowlists where an empty list or the "all" sentinel never excludes;
// clients is plain membership when non-empty; tags match when at least one
// tag intersects (OR, unlike the AND of stage conditions); business value
// is an inclusive range over the item's estimated revenue on whichever
// bounds are set. Deleted and inactive workflows never match.
func (m *Matcher) Matches(w *models.Workflow, item *models.ContentItem) bool {
	if w.IsDeleted || !w.IsActive {
		return false
	}

	if !dimensionMatches(w.ApplicableTo.ContentTypes, item.Type) {
		return false
	}

	if !dimensionMatches(w.ApplicableTo.Platforms, item.Platform) {
		return false
	}

	if !dimensionMatches(w.ApplicableTo.Priorities, item.Priority) {
		return false
	}

	if len(w.ApplicableTo.Clients) > 0 && !slices.Contains(w.ApplicableTo.Clients, item.ClientID) {
		return false
	}

	if !tagsIntersect(w.ApplicableTo.Tags, item.Tags) {
		return false
	}

	if !inBusinessValueRange(w.ApplicableTo.BusinessValue, item.EstimatedRevenue) {
		return false
	}

	m.logger.Debug("Workflow matches content item",
		"workflow_id", w.ID,
		"workflow_name", w.Name,
		"content_id", item.ID)

	return true
}

// dimensionMatches applies the allowlist semantics shared by the content
// type, platform and priority filters.
func dimensionMatches(allowed []string, value string) bool {
	if len(allowed) == 0 || slices.Contains(allowed, models.FilterAll) {
		return true
	}

	return slices.Contains(allowed, value)
}

// tagsIntersect is true when the workflow declares no tags, or when at
// least one declared tag appears on the item.
func tagsIntersect(declared, actual []string) bool {
	if len(declared) == 0 {
		return true
	}

	for _, tag := range declared {
		if slices.Contains(actual, tag) {
			return true
		}
	}

	return false
}

func inBusinessValueRange(bounds models.BusinessValueRange, revenue float64) bool {
	if bounds.Min != nil && revenue < *bounds.Min {
		return false
	}

	if bounds.Max != nil && revenue > *bounds.Max {
		return false
	}

	return true
}
