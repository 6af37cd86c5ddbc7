package workflow_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentops/approvalflow/pkg/lock"
	"github.com/contentops/approvalflow/pkg/models"
	"github.com/contentops/approvalflow/pkg/persistence"
	"github.com/contentops/approvalflow/pkg/persistence/file"
	"github.com/contentops/approvalflow/pkg/workflow"
)

func newTestSelector(t *testing.T) (*workflow.Selector, *file.Persistence) {
	t.Helper()

	store := file.NewPersistence(t.TempDir())
	selector := workflow.NewSelector(store, lock.NewLocalLocker(), slog.Default())

	return selector, store
}

func saveWorkflow(t *testing.T, store *file.Persistence, w *models.Workflow) *models.Workflow {
	t.Helper()
	require.NoError(t, store.SaveWorkflow(context.Background(), w))

	return w
}

func videoWorkflow(name, clientID string) *models.Workflow {
	return &models.Workflow{
		Name:     name,
		ClientID: clientID,
		IsActive: true,
		Stages: []*models.Stage{
			{Name: "Review", Order: 1, Approvers: []string{"U1"}},
		},
		ApplicableTo: models.ApplicableTo{ContentTypes: []string{"video"}},
	}
}

func TestSelector_SelectWorkflow(t *testing.T) {
	ctx := context.Background()
	selector, store := newTestSelector(t)

	applicable := saveWorkflow(t, store, videoWorkflow("Video Review", "client-1"))

	fallback := videoWorkflow("Catch All", "client-1")
	fallback.IsDefault = true
	fallback.ApplicableTo = models.ApplicableTo{}
	fallback = saveWorkflow(t, store, fallback)

	t.Run("applicable workflow wins over default", func(t *testing.T) {
		item := &models.ContentItem{ID: "content-1", Type: "video", ClientID: "client-1"}

		selected, err := selector.SelectWorkflow(ctx, item, "client-1")
		require.NoError(t, err)
		// Both match here; the fallback is also applicable since its rules
		// are empty. Any applicable workflow is a valid pick.
		assert.Contains(t, []string{applicable.ID, fallback.ID}, selected.ID)
	})

	t.Run("default used when nothing applies", func(t *testing.T) {
		require.NoError(t, store.DeleteWorkflow(ctx, applicable.ID, "tester"))
		require.NoError(t, store.DeleteWorkflow(ctx, fallback.ID, "tester"))

		saveWorkflow(t, store, videoWorkflow("Strict Video", "client-1"))

		def := videoWorkflow("Default", "client-1")
		def.ApplicableTo = models.ApplicableTo{ContentTypes: []string{"article"}}
		def.IsDefault = true
		def = saveWorkflow(t, store, def)

		item := &models.ContentItem{ID: "content-2", Type: "podcast", ClientID: "client-1"}

		selected, err := selector.SelectWorkflow(ctx, item, "client-1")
		require.NoError(t, err)
		assert.Equal(t, def.ID, selected.ID)
	})

	t.Run("no applicable and no default", func(t *testing.T) {
		item := &models.ContentItem{ID: "content-3", Type: "podcast", ClientID: "client-2"}

		_, err := selector.SelectWorkflow(ctx, item, "client-2")
		require.Error(t, err)
		assert.ErrorIs(t, err, workflow.ErrNoDefaultWorkflow)
	})
}

func TestSelector_SoftDeletedWorkflowsAreInvisible(t *testing.T) {
	ctx := context.Background()
	selector, store := newTestSelector(t)

	w := saveWorkflow(t, store, videoWorkflow("Video Review", "client-1"))

	item := &models.ContentItem{ID: "content-1", Type: "video", ClientID: "client-1"}

	found, err := selector.FindApplicableWorkflows(ctx, item, "client-1")
	require.NoError(t, err)
	require.Len(t, found, 1)

	require.NoError(t, store.DeleteWorkflow(ctx, w.ID, "tester"))

	found, err = selector.FindApplicableWorkflows(ctx, item, "client-1")
	require.NoError(t, err)
	assert.Empty(t, found)

	// Direct load still works for lineage and restore.
	loaded, err := store.WorkflowByID(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, loaded.IsDeleted)
}

func TestSelector_SetDefaultWorkflow(t *testing.T) {
	ctx := context.Background()
	selector, store := newTestSelector(t)

	first := videoWorkflow("First", "client-1")
	first.IsDefault = true
	first = saveWorkflow(t, store, first)

	second := saveWorkflow(t, store, videoWorkflow("Second", "client-1"))

	require.NoError(t, selector.SetDefaultWorkflow(ctx, second.ID, "client-1"))

	t.Run("exactly one default remains", func(t *testing.T) {
		workflows, err := store.Workflows(ctx, "client-1")
		require.NoError(t, err)

		defaults := 0
		for _, w := range workflows {
			if w.IsDefault {
				defaults++
				assert.Equal(t, second.ID, w.ID)
				assert.True(t, w.IsActive)
			}
		}

		assert.Equal(t, 1, defaults)
	})

	t.Run("default read resolves the new target", func(t *testing.T) {
		def, err := selector.DefaultWorkflow(ctx, "client-1")
		require.NoError(t, err)
		assert.Equal(t, second.ID, def.ID)
	})

	t.Run("swap is idempotent", func(t *testing.T) {
		require.NoError(t, selector.SetDefaultWorkflow(ctx, second.ID, "client-1"))

		def, err := selector.DefaultWorkflow(ctx, "client-1")
		require.NoError(t, err)
		assert.Equal(t, second.ID, def.ID)
	})

	t.Run("deleted target is rejected", func(t *testing.T) {
		require.NoError(t, store.DeleteWorkflow(ctx, first.ID, "tester"))

		err := selector.SetDefaultWorkflow(ctx, first.ID, "client-1")
		require.Error(t, err)
		assert.ErrorIs(t, err, persistence.ErrWorkflowDeleted)
	})

	t.Run("target of another client is rejected", func(t *testing.T) {
		other := saveWorkflow(t, store, videoWorkflow("Other", "client-2"))

		err := selector.SetDefaultWorkflow(ctx, other.ID, "client-1")
		require.Error(t, err)
		assert.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
	})
}

// Deleting the current default, promoting another workflow, then restoring
// and explicitly reactivating the first one must not resurrect a second
// default: the delete forfeits the slot, and restore never wins it back.
func TestSelector_RestoredWorkflowDoesNotReclaimDefault(t *testing.T) {
	ctx := context.Background()
	selector, store := newTestSelector(t)

	first := videoWorkflow("First", "client-1")
	first.IsDefault = true
	first = saveWorkflow(t, store, first)

	second := saveWorkflow(t, store, videoWorkflow("Second", "client-1"))

	require.NoError(t, store.DeleteWorkflow(ctx, first.ID, "tester"))
	require.NoError(t, selector.SetDefaultWorkflow(ctx, second.ID, "client-1"))

	restored, err := store.WorkflowByID(ctx, first.ID)
	require.NoError(t, err)
	workflow.Restore(restored)
	require.NoError(t, store.SaveWorkflow(ctx, restored))

	restored.IsActive = true
	require.NoError(t, store.SaveWorkflow(ctx, restored))

	workflows, err := store.Workflows(ctx, "client-1")
	require.NoError(t, err)
	require.Len(t, workflows, 2)

	defaults := 0

	for _, w := range workflows {
		if w.IsDefault && w.IsActive {
			defaults++

			assert.Equal(t, second.ID, w.ID)
		}
	}

	assert.Equal(t, 1, defaults)

	def, err := selector.DefaultWorkflow(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, second.ID, def.ID)
}
