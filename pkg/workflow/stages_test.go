package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentops/approvalflow/pkg/models"
)

func TestStages_Normalize(t *testing.T) {
	w := &models.Workflow{
		Stages: []*models.Stage{
			{Name: "Final Approval", Order: 3},
			{Name: "Initial Review", Order: 1},
			{Name: "Quality Check", Order: 2},
		},
	}

	NewStages(w).Normalize()

	assert.Equal(t, "Initial Review", w.Stages[0].Name)
	assert.Equal(t, "Quality Check", w.Stages[1].Name)
	assert.Equal(t, "Final Approval", w.Stages[2].Name)
}

func TestStages_Navigation(t *testing.T) {
	w := &models.Workflow{
		Stages: []*models.Stage{
			{Name: "Initial Review", Order: 1},
			{Name: "Quality Check", Order: 2},
			{Name: "Final Approval", Order: 3},
		},
	}
	stages := NewStages(w)

	next := stages.NextStage(1)
	require.NotNil(t, next)
	assert.Equal(t, "Quality Check", next.Name)

	prev := stages.PrevStage(2)
	require.NotNil(t, prev)
	assert.Equal(t, "Initial Review", prev.Name)

	assert.Nil(t, stages.PrevStage(1))
	assert.Nil(t, stages.NextStage(3))
	assert.True(t, stages.IsTerminal(3))
	assert.False(t, stages.IsTerminal(1))

	first := stages.First()
	require.NotNil(t, first)
	assert.Equal(t, "Initial Review", first.Name)

	assert.Equal(t, 3, stages.Count())
}

// A workflow ordered {1, 2, 4} has no stage after 2: the lookup asks for
// rank 3 exactly and does not skip ahead to 4.
func TestStages_NextStage_StrictOverGaps(t *testing.T) {
	w := &models.Workflow{
		Stages: []*models.Stage{
			{Name: "Initial Review", Order: 1},
			{Name: "Legal Review", Order: 2},
			{Name: "Final Approval", Order: 4},
		},
	}
	stages := NewStages(w)

	assert.Nil(t, stages.NextStage(2))
	assert.True(t, stages.IsTerminal(2))

	final := stages.StageByOrder(4)
	require.NotNil(t, final)
	assert.Equal(t, "Final Approval", final.Name)
}

func TestStages_EmptyWorkflow(t *testing.T) {
	stages := NewStages(&models.Workflow{})

	assert.Nil(t, stages.First())
	assert.Nil(t, stages.StageByOrder(1))
	assert.True(t, stages.IsTerminal(1))
	assert.Equal(t, 0, stages.Count())
}
