package file

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentops/approvalflow/pkg/models"
)

func TestStageInstanceRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewStageInstanceRepository(t.TempDir())

	t.Run("empty store has no pending instances", func(t *testing.T) {
		pending, err := repo.Pending(ctx)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})

	open := &models.StageInstance{
		WorkflowID: "wf-1",
		ContentID:  "content-1",
		StageOrder: 1,
		EnteredAt:  time.Now().Unix(),
	}
	require.NoError(t, repo.Save(ctx, open))
	assert.NotEmpty(t, open.ID)

	resolved := &models.StageInstance{
		WorkflowID: "wf-1",
		ContentID:  "content-2",
		StageOrder: 1,
		EnteredAt:  time.Now().Unix(),
		Resolved:   true,
	}
	require.NoError(t, repo.Save(ctx, resolved))

	t.Run("pending skips resolved instances", func(t *testing.T) {
		pending, err := repo.Pending(ctx)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, open.ID, pending[0].ID)
	})

	t.Run("state updates persist in place", func(t *testing.T) {
		open.Escalated = true
		open.RemindersSent = 2
		require.NoError(t, repo.Save(ctx, open))

		pending, err := repo.Pending(ctx)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.True(t, pending[0].Escalated)
		assert.Equal(t, 2, pending[0].RemindersSent)
	})

	t.Run("resolving removes from the pending set", func(t *testing.T) {
		open.Resolved = true
		require.NoError(t, repo.Save(ctx, open))

		pending, err := repo.Pending(ctx)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})
}
