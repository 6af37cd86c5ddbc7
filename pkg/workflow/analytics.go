package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/contentops/approvalflow/pkg/eventbus"
	"github.com/contentops/approvalflow/pkg/events"
	"github.com/contentops/approvalflow/pkg/persistence"
)

// Aggregator records completed runs into a workflow's running analytics.
// The arithmetic lives on models.Analytics; this layer adds the
// lost-update-safe store round trip and announces the completion on the
// bus. A nil publisher records without announcing.
type Aggregator struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
}

// NewAggregator creates an analytics aggregator.
func NewAggregator(p persistence.Persistence, publisher eventbus.EventPublisher, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		persistence: p,
		publisher:   publisher,
		logger:      logger.With("module", "analytics_aggregator"),
	}
}

// RecordCompletion folds one finished run into the workflow's analytics.
// Completion times are taken as supplied, negative or zero included; the
// engine guarantees the running mean, not the plausibility of the data.
func (a *Aggregator) RecordCompletion(ctx context.Context, workflowID, contentID string, completionTimeHours float64, approved bool) error {
	err := a.persistence.RecordCompletion(ctx, workflowID, completionTimeHours, approved)
	if err != nil {
		return fmt.Errorf("failed to record completion for workflow %s: %w", workflowID, err)
	}

	a.logger.Debug("Recorded workflow completion",
		"workflow_id", workflowID,
		"content_id", contentID,
		"completion_hours", completionTimeHours,
		"approved", approved)

	if a.publisher == nil {
		return nil
	}

	event := events.WorkflowCompleted{
		BaseEvent:           events.NewBaseEvent(events.WorkflowCompletedEvent, workflowID, ""),
		ContentID:           contentID,
		Approved:            approved,
		CompletionTimeHours: completionTimeHours,
	}

	// The counters are already committed; a publish failure is logged, not
	// surfaced, so the caller never retries the recording itself.
	if err := a.publisher.Publish(ctx, contentID, event); err != nil {
		a.logger.Error("Failed to publish workflow completion event",
			"workflow_id", workflowID,
			"content_id", contentID,
			"error", err)
	}

	return nil
}
