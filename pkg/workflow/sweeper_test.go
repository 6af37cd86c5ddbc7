package workflow_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentops/approvalflow/pkg/eventbus"
	"github.com/contentops/approvalflow/pkg/events"
	"github.com/contentops/approvalflow/pkg/models"
	"github.com/contentops/approvalflow/pkg/persistence/file"
	"github.com/contentops/approvalflow/pkg/workflow"
)

type capturingPublisher struct {
	mu        sync.Mutex
	published []eventbus.Event
}

func (p *capturingPublisher) Publish(_ context.Context, _ string, event eventbus.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.published = append(p.published, event)

	return nil
}

func (p *capturingPublisher) events() []eventbus.Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]eventbus.Event(nil), p.published...)
}

func escalatableWorkflow(t *testing.T, store *file.Persistence) *models.Workflow {
	t.Helper()

	w := &models.Workflow{
		Name:     "Legal Pipeline",
		ClientID: "client-1",
		IsActive: true,
		Stages: []*models.Stage{
			{
				Name:      "Legal Review",
				Order:     1,
				Approvers: []string{"U1"},
				TimeLimit: floatPtr(24),
				Notifications: models.StageNotifications{
					OnDelay: true,
				},
				Escalation: models.StageEscalation{
					Enabled:    true,
					EscalateTo: []string{"U2"},
					Type:       models.EscalationParallel,
				},
			},
		},
		Settings: models.Settings{
			AutoReminders:    true,
			ReminderInterval: 4,
			MaxReminders:     3,
		},
	}
	require.NoError(t, store.SaveWorkflow(context.Background(), w))

	return w
}

func floatPtr(v float64) *float64 { return &v }

func TestSweeper_Sweep(t *testing.T) {
	ctx := context.Background()
	store := file.NewPersistence(t.TempDir())
	publisher := &capturingPublisher{}
	sweeper := workflow.NewSweeper(store, publisher, slog.Default())

	w := escalatableWorkflow(t, store)

	now := time.Now().UTC()
	instance := &models.StageInstance{
		WorkflowID: w.ID,
		ContentID:  "content-1",
		ClientID:   "client-1",
		StageOrder: 1,
		EnteredAt:  now.Add(-25 * time.Hour).Unix(),
	}
	require.NoError(t, store.SaveStageInstance(ctx, instance))

	t.Run("escalation fires past the stage time limit", func(t *testing.T) {
		result, err := sweeper.Sweep(ctx, now)
		require.NoError(t, err)

		assert.Equal(t, 1, result.Checked)
		assert.Equal(t, 1, result.Escalations)
		assert.Equal(t, 0, result.Reminders)

		published := publisher.events()
		require.Len(t, published, 1)

		fired, ok := published[0].(events.EscalationFired)
		require.True(t, ok)
		assert.Equal(t, w.ID, fired.WorkflowID)
		assert.Equal(t, "content-1", fired.ContentID)
		assert.Equal(t, "Legal Review", fired.StageName)
		assert.Equal(t, models.EscalationParallel, fired.EscalationType)
		assert.Equal(t, []string{"U2"}, fired.Targets)
		assert.Equal(t, []string{"U1", "U2"}, fired.EffectiveApprovers)
		assert.InDelta(t, 25, fired.ElapsedHours, 0.1)
	})

	t.Run("second sweep does not escalate again", func(t *testing.T) {
		result, err := sweeper.Sweep(ctx, now)
		require.NoError(t, err)

		assert.Equal(t, 0, result.Escalations)
		assert.Len(t, publisher.events(), 1)
	})
}

func TestSweeper_Reminders(t *testing.T) {
	ctx := context.Background()
	store := file.NewPersistence(t.TempDir())
	publisher := &capturingPublisher{}
	sweeper := workflow.NewSweeper(store, publisher, slog.Default())

	w := escalatableWorkflow(t, store)

	now := time.Now().UTC()
	instance := &models.StageInstance{
		WorkflowID: w.ID,
		ContentID:  "content-1",
		ClientID:   "client-1",
		StageOrder: 1,
		EnteredAt:  now.Add(-5 * time.Hour).Unix(),
	}
	require.NoError(t, store.SaveStageInstance(ctx, instance))

	result, err := sweeper.Sweep(ctx, now)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Escalations)
	assert.Equal(t, 1, result.Reminders)

	published := publisher.events()
	require.Len(t, published, 1)

	due, ok := published[0].(events.ReminderDue)
	require.True(t, ok)
	assert.Equal(t, 1, due.ReminderSeq)
	assert.Equal(t, []string{"U1"}, due.Approvers)

	t.Run("reminder waits for the next interval", func(t *testing.T) {
		result, err := sweeper.Sweep(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, 0, result.Reminders)
	})

	t.Run("next interval fires the second reminder", func(t *testing.T) {
		result, err := sweeper.Sweep(ctx, now.Add(4*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 1, result.Reminders)

		published := publisher.events()
		require.Len(t, published, 2)

		second, ok := published[1].(events.ReminderDue)
		require.True(t, ok)
		assert.Equal(t, 2, second.ReminderSeq)
	})
}

func TestSweeper_SkipsDeletedWorkflows(t *testing.T) {
	ctx := context.Background()
	store := file.NewPersistence(t.TempDir())
	publisher := &capturingPublisher{}
	sweeper := workflow.NewSweeper(store, publisher, slog.Default())

	w := escalatableWorkflow(t, store)

	instance := &models.StageInstance{
		WorkflowID: w.ID,
		ContentID:  "content-1",
		StageOrder: 1,
		EnteredAt:  time.Now().Add(-100 * time.Hour).Unix(),
	}
	require.NoError(t, store.SaveStageInstance(ctx, instance))
	require.NoError(t, store.DeleteWorkflow(ctx, w.ID, "tester"))

	result, err := sweeper.Sweep(ctx, time.Now().UTC())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Checked)
	assert.Equal(t, 0, result.Escalations)
	assert.Empty(t, publisher.events())
}
