// Package models defines the core domain models for multi-stage content approval workflows.
package models

import "time"

// ApprovalStatus is the fixed status enumeration shared by stages and
// the content items moving through them.
type ApprovalStatus string

const (
	ApprovalStatusPending   ApprovalStatus = "pending"
	ApprovalStatusInReview  ApprovalStatus = "in_review"
	ApprovalStatusApproved  ApprovalStatus = "approved"
	ApprovalStatusRejected  ApprovalStatus = "rejected"
	ApprovalStatusEscalated ApprovalStatus = "escalated"
	ApprovalStatusSkipped   ApprovalStatus = "skipped"
)

// Workflow is the aggregate root: a named, versioned, per-client ordered
// sequence of approval stages plus applicability rules and settings.
// Stages are owned exclusively by one workflow and never shared.
type Workflow struct {
	ID             string `json:"id"`
	Name           string `json:"name"        validate:"required,min=3"`
	Description    string `json:"description"`
	ClientID       string `json:"client_id"   validate:"required"`
	OrganizationID string `json:"organization_id,omitempty"`

	IsDefault bool       `json:"is_default"`
	IsActive  bool       `json:"is_active"`
	IsDeleted bool       `json:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	DeletedBy string     `json:"deleted_by,omitempty"`

	Stages       []*Stage     `json:"stages" validate:"dive"`
	Settings     Settings     `json:"settings"`
	ApplicableTo ApplicableTo `json:"applicable_to"`
	Analytics    Analytics    `json:"analytics"`

	// Version lineage: clones always point to their literal source, so the
	// parent chain is a forward-pointing tree, never a cycle.
	Version          int    `json:"version"`
	ParentWorkflowID string `json:"parent_workflow_id,omitempty"`

	CreatedBy  string     `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// Settings holds workflow-level behavior toggles. EscalationAfter and
// EscalateTo are the fallbacks used when a stage carries no override.
// AIRecommendations, AutoOptimization and SmartRouting are configuration
// toggles only; no engine behavior hangs off them.
type Settings struct {
	RequireAllApprovers    bool     `json:"require_all_approvers"`
	AllowParallelApprovals bool     `json:"allow_parallel_approvals"`
	AutoReminders          bool     `json:"auto_reminders"`
	ReminderInterval       float64  `json:"reminder_interval,omitempty"` // hours between reminders
	MaxReminders           int      `json:"max_reminders,omitempty"`
	EscalationAfter        *float64 `json:"escalation_after,omitempty"` // hours, workflow-level fallback
	EscalateTo             []string `json:"escalate_to,omitempty"`
	AllowSkipStages        bool     `json:"allow_skip_stages"`
	AllowDelegation        bool     `json:"allow_delegation"`
	RequireComments        bool     `json:"require_comments"`
	EnableVersionControl   bool     `json:"enable_version_control"`
	AutoPublish            bool     `json:"auto_publish"`
	AIRecommendations      bool     `json:"ai_recommendations"`
	AutoOptimization       bool     `json:"auto_optimization"`
	SmartRouting           bool     `json:"smart_routing"`
}

// FilterAll is the sentinel meaning "this dimension does not constrain".
const FilterAll = "all"

// BusinessValueRange bounds the content item's estimated revenue.
// A nil bound is unconstrained; set bounds are inclusive.
type BusinessValueRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// ApplicableTo is the rule set determining whether a workflow is eligible
// to govern a given content item. An empty dimension never excludes:
// absence means "no constraint", not "matches nothing".
type ApplicableTo struct {
	ContentTypes  []string           `json:"content_types,omitempty"`
	Platforms     []string           `json:"platforms,omitempty"`
	Priorities    []string           `json:"priorities,omitempty"`
	Clients       []string           `json:"clients,omitempty"`
	Tags          []string           `json:"tags,omitempty"`
	BusinessValue BusinessValueRange `json:"business_value,omitempty"`
}

// StagePerformance is computed by the surrounding reporting system and
// stored verbatim; the engine never derives these numbers.
type StagePerformance struct {
	AverageTime    float64 `json:"average_time"`
	ApprovalRate   float64 `json:"approval_rate"`
	EscalationRate float64 `json:"escalation_rate"`
}

// Analytics carries running statistics over historical runs of a workflow.
// AverageCompletionTime and ApprovalRate are online means: they are valid
// for any sequence of Record calls without storing the full history.
type Analytics struct {
	TotalUsage            int64                        `json:"total_usage"`
	AverageCompletionTime float64                      `json:"average_completion_time"` // hours
	ApprovalRate          float64                      `json:"approval_rate"`           // percent of approved runs
	BottleneckStages      []string                     `json:"bottleneck_stages,omitempty"`
	PerformanceByStage    map[string]*StagePerformance `json:"performance_by_stage,omitempty"`
}

// Record folds one completed run into the running statistics using the
// incremental-delta form of the mean, which stays numerically stable for
// large usage counts. Non-positive completion times are folded in as-is;
// the engine does not judge the plausibility of timing data.
func (a *Analytics) Record(completionTimeHours float64, approved bool) {
	a.TotalUsage++
	n := float64(a.TotalUsage)

	a.AverageCompletionTime += (completionTimeHours - a.AverageCompletionTime) / n

	signal := 0.0
	if approved {
		signal = 100.0
	}

	a.ApprovalRate += (signal - a.ApprovalRate) / n
}
