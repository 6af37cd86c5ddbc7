package workflow

import (
	"slices"

	"github.com/contentops/approvalflow/pkg/models"
)

// EscalationDecision is the output of an escalation check: who should now
// be able to act on the stage instance and in which mode. Targets may be
// empty when the stage's policy names nobody; the caller decides whether to
// fall back to the workflow-level escalate_to or just log it.
type EscalationDecision struct {
	WorkflowID string
	StageName  string
	StageOrder int
	Type       models.EscalationType
	Targets    []string
}

// CheckEscalation decides whether a stage instance that has been awaiting
// action for elapsedHours should escalate now. It is a pure decision
// function: no timers are owned here, and idempotence is the caller's
// state, passed in as alreadyEscalated.
//
// The effective time limit is the stage's own limit when set, else the
// workflow's escalation fallback, else no limit at all (never escalates).
func CheckEscalation(w *models.Workflow, stage *models.Stage, elapsedHours float64, alreadyEscalated bool) (*EscalationDecision, bool) {
	if alreadyEscalated || !stage.Escalation.Enabled {
		return nil, false
	}

	limit, ok := effectiveLimit(w, stage)
	if !ok || elapsedHours < limit {
		return nil, false
	}

	escalationType := stage.Escalation.Type
	if escalationType == "" {
		escalationType = models.EscalationParallel
	}

	return &EscalationDecision{
		WorkflowID: w.ID,
		StageName:  stage.Name,
		StageOrder: stage.Order,
		Type:       escalationType,
		Targets:    slices.Clone(stage.Escalation.EscalateTo),
	}, true
}

// EffectiveApprovers resolves the approver set for a stage instance after
// the decision fires: replace supersedes the original approvers entirely,
// parallel keeps them alongside the targets. Duplicates are collapsed.
func (d *EscalationDecision) EffectiveApprovers(original []string) []string {
	if d.Type == models.EscalationReplace {
		return slices.Clone(d.Targets)
	}

	merged := slices.Clone(original)
	for _, target := range d.Targets {
		if !slices.Contains(merged, target) {
			merged = append(merged, target)
		}
	}

	return merged
}

// CheckReminder decides whether another reminder is due for a stage
// instance. Reminders are spaced ReminderInterval hours apart, capped at
// MaxReminders, and stop once the instance has reached its escalation
// limit; escalation takes over from there.
func CheckReminder(w *models.Workflow, stage *models.Stage, elapsedHours float64, remindersSent int) bool {
	if !w.Settings.AutoReminders || w.Settings.ReminderInterval <= 0 {
		return false
	}

	if remindersSent >= w.Settings.MaxReminders {
		return false
	}

	if limit, ok := effectiveLimit(w, stage); ok && elapsedHours >= limit {
		return false
	}

	due := float64(remindersSent+1) * w.Settings.ReminderInterval

	return elapsedHours >= due
}

// effectiveLimit returns the stage's escalation deadline in hours: the
// stage's own time limit when set, else the stage escalation's after_hours
// override, else the workflow-level fallback. The second return is false
// when none of the three declares a limit.
func effectiveLimit(w *models.Workflow, stage *models.Stage) (float64, bool) {
	if stage.TimeLimit != nil {
		return *stage.TimeLimit, true
	}

	if stage.Escalation.AfterHours != nil {
		return *stage.Escalation.AfterHours, true
	}

	if w.Settings.EscalationAfter != nil {
		return *w.Settings.EscalationAfter, true
	}

	return 0, false
}
