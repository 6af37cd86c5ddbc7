package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentops/approvalflow/pkg/models"
)

func sourceWorkflow() *models.Workflow {
	return &models.Workflow{
		ID:       "wf-source",
		Name:     "Standard Review",
		ClientID: "client-1",
		IsActive: true,
		Stages: []*models.Stage{
			{
				ID:        "stage-1",
				Name:      "Initial Review",
				Order:     1,
				Approvers: []string{"U1"},
				TimeLimit: floatPtr(24),
				Conditions: []*models.Condition{
					{Type: models.ConditionPriority, Operator: models.OperatorEquals, Value: "high"},
				},
				Escalation: models.StageEscalation{
					Enabled:    true,
					EscalateTo: []string{"U2"},
					Type:       models.EscalationParallel,
				},
			},
			{ID: "stage-2", Name: "Final Approval", Order: 2, Approvers: []string{"U3"}},
		},
		Settings: models.Settings{
			AutoReminders:    true,
			ReminderInterval: 4,
			EscalationAfter:  floatPtr(48),
			EscalateTo:       []string{"manager"},
		},
		ApplicableTo: models.ApplicableTo{
			ContentTypes:  []string{"video"},
			Tags:          []string{"campaign"},
			BusinessValue: models.BusinessValueRange{Min: floatPtr(1000)},
		},
		Analytics: models.Analytics{TotalUsage: 42, AverageCompletionTime: 12, ApprovalRate: 80},
		Version:   7,
		IsDefault: true,
		CreatedBy: "author",
	}
}

func TestClone(t *testing.T) {
	source := sourceWorkflow()

	clone := Clone(source, "Standard Review Copy", "cloner")

	t.Run("fresh identity and lineage", func(t *testing.T) {
		assert.NotEqual(t, source.ID, clone.ID)
		assert.Equal(t, "Standard Review Copy", clone.Name)
		assert.Equal(t, 1, clone.Version)
		assert.Equal(t, source.ID, clone.ParentWorkflowID)
		assert.Equal(t, "cloner", clone.CreatedBy)
	})

	t.Run("never the default and analytics start empty", func(t *testing.T) {
		assert.False(t, clone.IsDefault)
		assert.Equal(t, int64(0), clone.Analytics.TotalUsage)
		assert.Zero(t, clone.Analytics.AverageCompletionTime)
		assert.Zero(t, clone.Analytics.ApprovalRate)
	})

	t.Run("stages keep content but gain fresh IDs", func(t *testing.T) {
		require.Len(t, clone.Stages, 2)
		assert.NotEqual(t, source.Stages[0].ID, clone.Stages[0].ID)
		assert.Equal(t, source.Stages[0].Name, clone.Stages[0].Name)
		assert.Equal(t, source.Stages[0].Order, clone.Stages[0].Order)
		assert.Equal(t, source.Stages[0].Approvers, clone.Stages[0].Approvers)
		require.Len(t, clone.Stages[0].Conditions, 1)
		assert.Equal(t, source.Stages[0].Conditions[0].Value, clone.Stages[0].Conditions[0].Value)
	})

	t.Run("deep copy is independent of the source", func(t *testing.T) {
		clone.Stages[0].Approvers[0] = "someone-else"
		clone.Stages[0].Conditions[0].Value = "low"
		*clone.Stages[0].TimeLimit = 99
		*clone.ApplicableTo.BusinessValue.Min = 0
		clone.Settings.EscalateTo[0] = "nobody"

		assert.Equal(t, "U1", source.Stages[0].Approvers[0])
		assert.Equal(t, "high", source.Stages[0].Conditions[0].Value)
		assert.Equal(t, 24.0, *source.Stages[0].TimeLimit)
		assert.Equal(t, 1000.0, *source.ApplicableTo.BusinessValue.Min)
		assert.Equal(t, "manager", source.Settings.EscalateTo[0])
	})

	t.Run("zero stages clones cleanly", func(t *testing.T) {
		empty := &models.Workflow{ID: "wf-empty", Name: "Empty", ClientID: "client-1"}
		c := Clone(empty, "Empty Copy", "cloner")
		assert.Empty(t, c.Stages)
		assert.Equal(t, 1, c.Version)
	})
}

func TestSoftDeleteAndRestore(t *testing.T) {
	w := sourceWorkflow()

	SoftDelete(w, "deleter")

	assert.True(t, w.IsDeleted)
	assert.False(t, w.IsActive)
	// The default slot is forfeited on delete; restoring later must not
	// bring it back alongside whichever workflow holds the slot by then.
	assert.False(t, w.IsDefault)
	assert.Equal(t, "deleter", w.DeletedBy)
	require.NotNil(t, w.DeletedAt)

	Restore(w)

	assert.False(t, w.IsDeleted)
	assert.Nil(t, w.DeletedAt)
	assert.Empty(t, w.DeletedBy)
	// Restore never reactivates; that is an explicit follow-up decision.
	assert.False(t, w.IsActive)
}
