package workflow

import (
	"slices"
	"time"

	"github.com/contentops/approvalflow/pkg/models"
	"github.com/google/uuid"
)

// Clone deep-copies a workflow into a new, independent aggregate. Stages
// receive fresh identities while keeping their order, conditions and
// escalation rules verbatim; settings and applicability copy over as-is.
// The clone starts at version 1, is never the default, points back at its
// literal source through ParentWorkflowID and begins with empty analytics.
// Cloning a workflow with zero stages yields a valid empty-stage clone.
func Clone(source *models.Workflow, newName, createdBy string) *models.Workflow {
	now := time.Now().UTC()

	clone := &models.Workflow{
		ID:               uuid.New().String(),
		Name:             newName,
		Description:      source.Description,
		ClientID:         source.ClientID,
		OrganizationID:   source.OrganizationID,
		IsDefault:        false,
		IsActive:         source.IsActive,
		Stages:           cloneStages(source.Stages),
		Settings:         cloneSettings(source.Settings),
		ApplicableTo:     cloneApplicableTo(source.ApplicableTo),
		Version:          1,
		ParentWorkflowID: source.ID,
		CreatedBy:        createdBy,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	return clone
}

func cloneStages(stages []*models.Stage) []*models.Stage {
	copied := make([]*models.Stage, 0, len(stages))

	for _, stage := range stages {
		conditions := make([]*models.Condition, 0, len(stage.Conditions))
		for _, cond := range stage.Conditions {
			conditionCopy := *cond
			conditions = append(conditions, &conditionCopy)
		}

		copied = append(copied, &models.Stage{
			ID:            uuid.New().String(),
			Name:          stage.Name,
			Order:         stage.Order,
			Status:        models.ApprovalStatusPending,
			Approvers:     slices.Clone(stage.Approvers),
			IsRequired:    stage.IsRequired,
			AutoAdvance:   stage.AutoAdvance,
			TimeLimit:     cloneFloat(stage.TimeLimit),
			Conditions:    conditions,
			Notifications: stage.Notifications,
			Escalation: models.StageEscalation{
				Enabled:    stage.Escalation.Enabled,
				AfterHours: cloneFloat(stage.Escalation.AfterHours),
				EscalateTo: slices.Clone(stage.Escalation.EscalateTo),
				Type:       stage.Escalation.Type,
			},
		})
	}

	return copied
}

func cloneSettings(settings models.Settings) models.Settings {
	copied := settings
	copied.EscalationAfter = cloneFloat(settings.EscalationAfter)
	copied.EscalateTo = slices.Clone(settings.EscalateTo)

	return copied
}

func cloneApplicableTo(rules models.ApplicableTo) models.ApplicableTo {
	return models.ApplicableTo{
		ContentTypes: slices.Clone(rules.ContentTypes),
		Platforms:    slices.Clone(rules.Platforms),
		Priorities:   slices.Clone(rules.Priorities),
		Clients:      slices.Clone(rules.Clients),
		Tags:         slices.Clone(rules.Tags),
		BusinessValue: models.BusinessValueRange{
			Min: cloneFloat(rules.BusinessValue.Min),
			Max: cloneFloat(rules.BusinessValue.Max),
		},
	}
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}

	copied := *v

	return &copied
}

// SoftDelete marks a workflow deleted and deactivates it. Deleted
// workflows are excluded from every selection and applicability read; the
// engine offers no way to match a deleted workflow. The default flag is
// cleared too: a restored workflow must win the default slot back through
// an explicit swap, otherwise restore-then-reactivate could resurrect a
// second default next to the client's current one.
func SoftDelete(w *models.Workflow, userID string) {
	now := time.Now().UTC()

	w.IsDeleted = true
	w.DeletedAt = &now
	w.DeletedBy = userID
	w.IsActive = false
	w.IsDefault = false
	w.UpdatedAt = now
}

// Restore clears the delete markers. It deliberately does not reactivate
// the workflow: the caller must set IsActive explicitly after reviewing
// what it restored.
func Restore(w *models.Workflow) {
	w.IsDeleted = false
	w.DeletedAt = nil
	w.DeletedBy = ""
	w.UpdatedAt = time.Now().UTC()
}
