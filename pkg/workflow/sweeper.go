package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/contentops/approvalflow/pkg/eventbus"
	"github.com/contentops/approvalflow/pkg/events"
	"github.com/contentops/approvalflow/pkg/models"
	"github.com/contentops/approvalflow/pkg/persistence"
)

// Sweeper periodically asks "has this stage instance expired?" for every
// pending instance and publishes the resulting reminder and escalation
// events. The engine's decision functions own none of the timing; the
// sweeper is the caller that supplies the cadence, tracks the
// already-escalated state that makes escalation idempotent, and skips
// instances resolved between polls.
type Sweeper struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
}

// NewSweeper creates a sweeper over the given store and bus.
func NewSweeper(p persistence.Persistence, publisher eventbus.EventPublisher, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		persistence: p,
		publisher:   publisher,
		logger:      logger.With("module", "sweeper"),
	}
}

// SweepResult summarizes one sweep run.
type SweepResult struct {
	Checked     int
	Escalations int
	Reminders   int
}

// Sweep runs one pass over the pending stage instances at the given
// wall-clock time. Instances whose workflow or stage has disappeared are
// logged and skipped; one bad record never aborts the pass.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (*SweepResult, error) {
	instances, err := s.persistence.PendingStageInstances(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending stage instances: %w", err)
	}

	result := &SweepResult{}

	for _, instance := range instances {
		result.Checked++

		if err := s.sweepInstance(ctx, instance, now, result); err != nil {
			s.logger.Error("Failed to sweep stage instance",
				"instance_id", instance.ID,
				"workflow_id", instance.WorkflowID,
				"error", err)
		}
	}

	s.logger.Info("Sweep completed",
		"checked", result.Checked,
		"escalations", result.Escalations,
		"reminders", result.Reminders)

	return result, nil
}

func (s *Sweeper) sweepInstance(ctx context.Context, instance *models.StageInstance, now time.Time, result *SweepResult) error {
	w, err := s.persistence.WorkflowByID(ctx, instance.WorkflowID)
	if err != nil {
		return err
	}

	if w.IsDeleted {
		return nil
	}

	stage := NewStages(w).StageByOrder(instance.StageOrder)
	if stage == nil {
		return fmt.Errorf("stage order %d not found in workflow %s", instance.StageOrder, w.ID)
	}

	elapsedHours := now.Sub(time.Unix(instance.EnteredAt, 0)).Hours()

	if decision, fired := CheckEscalation(w, stage, elapsedHours, instance.Escalated); fired {
		event := events.EscalationFired{
			BaseEvent:          events.NewBaseEvent(events.EscalationFiredEvent, w.ID, w.ClientID),
			ContentID:          instance.ContentID,
			StageName:          decision.StageName,
			StageOrder:         decision.StageOrder,
			EscalationType:     decision.Type,
			Targets:            decision.Targets,
			EffectiveApprovers: decision.EffectiveApprovers(stage.Approvers),
			ElapsedHours:       elapsedHours,
		}

		if err := s.publisher.Publish(ctx, instance.ContentID, event); err != nil {
			return fmt.Errorf("failed to publish escalation event: %w", err)
		}

		instance.Escalated = true
		if err := s.persistence.SaveStageInstance(ctx, instance); err != nil {
			return fmt.Errorf("failed to mark instance escalated: %w", err)
		}

		result.Escalations++

		return nil
	}

	if stage.Notifications.OnDelay && CheckReminder(w, stage, elapsedHours, instance.RemindersSent) {
		event := events.ReminderDue{
			BaseEvent:    events.NewBaseEvent(events.ReminderDueEvent, w.ID, w.ClientID),
			ContentID:    instance.ContentID,
			StageName:    stage.Name,
			StageOrder:   stage.Order,
			Approvers:    stage.Approvers,
			ReminderSeq:  instance.RemindersSent + 1,
			ElapsedHours: elapsedHours,
		}

		if err := s.publisher.Publish(ctx, instance.ContentID, event); err != nil {
			return fmt.Errorf("failed to publish reminder event: %w", err)
		}

		instance.RemindersSent++
		if err := s.persistence.SaveStageInstance(ctx, instance); err != nil {
			return fmt.Errorf("failed to record reminder: %w", err)
		}

		result.Reminders++
	}

	return nil
}
