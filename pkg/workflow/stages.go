package workflow

import (
	"sort"

	"github.com/contentops/approvalflow/pkg/models"
)

// Stages is the ordered stage registry for one workflow version. Stage
// order is the stage's own integer rank, not its array position, so all
// navigation goes through rank lookups.
type Stages struct {
	workflow *models.Workflow
}

// NewStages wraps a workflow's stage list for order-based navigation.
func NewStages(w *models.Workflow) *Stages {
	return &Stages{workflow: w}
}

// Normalize re-sorts the stages ascending by order. It is applied on every
// persist. The sort is stable; ordering among duplicate ranks is undefined
// and callers must not rely on it.
func (s *Stages) Normalize() {
	sort.SliceStable(s.workflow.Stages, func(i, j int) bool {
		return s.workflow.Stages[i].Order < s.workflow.Stages[j].Order
	})
}

// StageByOrder returns the stage whose rank equals n, or nil.
func (s *Stages) StageByOrder(n int) *models.Stage {
	for _, stage := range s.workflow.Stages {
		if stage.Order == n {
			return stage
		}
	}

	return nil
}

// NextStage returns the stage with rank n+1, or nil when the current stage
// is terminal. The lookup is strict: a workflow ordered {1, 3} has no next
// stage after 1. Non-contiguous ranks are a data-integrity concern the
// surrounding system is expected to prevent.
func (s *Stages) NextStage(n int) *models.Stage {
	return s.StageByOrder(n + 1)
}

// PrevStage returns the stage with rank n-1, or nil at the first stage.
func (s *Stages) PrevStage(n int) *models.Stage {
	return s.StageByOrder(n - 1)
}

// First returns the stage with the smallest rank, or nil for an empty
// workflow.
func (s *Stages) First() *models.Stage {
	var first *models.Stage

	for _, stage := range s.workflow.Stages {
		if first == nil || stage.Order < first.Order {
			first = stage
		}
	}

	return first
}

// IsTerminal reports whether no stage follows rank n.
func (s *Stages) IsTerminal(n int) bool {
	return s.NextStage(n) == nil
}

// Count returns the number of stages in the workflow.
func (s *Stages) Count() int {
	return len(s.workflow.Stages)
}
