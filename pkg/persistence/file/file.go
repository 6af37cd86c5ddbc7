// Package file provides file-based persistence for workflow definitions
// and stage instances. Workflows are JSON documents under
// <root>/workflows, stage instances under <root>/instances. A single
// process owns the directory; per-client serialization for the default
// swap and the analytics read-modify-write both run under an internal
// mutex, which is the per-client mutual-exclusion mechanism this adapter
// provides.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/contentops/approvalflow/pkg/models"
	"github.com/contentops/approvalflow/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the
// file system.
type Persistence struct {
	root         string
	workflowRepo *WorkflowRepository
	instanceRepo *StageInstanceRepository
}

// NewPersistence creates a new instance of Persistence with the specified
// root directory.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:         cleanRoot,
		workflowRepo: NewWorkflowRepository(cleanRoot),
		instanceRepo: NewStageInstanceRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup. For file-based persistence, there
// is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Workflows returns the non-deleted workflows owned by a client.
func (fp *Persistence) Workflows(ctx context.Context, clientID string) ([]*models.Workflow, error) {
	return fp.workflowRepo.GetAll(ctx, clientID)
}

func (fp *Persistence) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	return fp.workflowRepo.GetByID(ctx, id)
}

func (fp *Persistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	return fp.workflowRepo.Save(ctx, workflow)
}

func (fp *Persistence) DeleteWorkflow(ctx context.Context, id, userID string) error {
	return fp.workflowRepo.Delete(ctx, id, userID)
}

func (fp *Persistence) DefaultWorkflow(ctx context.Context, clientID string) (*models.Workflow, error) {
	return fp.workflowRepo.GetDefault(ctx, clientID)
}

func (fp *Persistence) SetDefaultWorkflow(ctx context.Context, workflowID, clientID string) error {
	return fp.workflowRepo.SetDefault(ctx, workflowID, clientID)
}

func (fp *Persistence) RecordCompletion(ctx context.Context, workflowID string, completionTimeHours float64, approved bool) error {
	return fp.workflowRepo.RecordCompletion(ctx, workflowID, completionTimeHours, approved)
}

func (fp *Persistence) PendingStageInstances(ctx context.Context) ([]*models.StageInstance, error) {
	return fp.instanceRepo.Pending(ctx)
}

func (fp *Persistence) SaveStageInstance(ctx context.Context, instance *models.StageInstance) error {
	return fp.instanceRepo.Save(ctx, instance)
}

var _ persistence.Persistence = (*Persistence)(nil)
