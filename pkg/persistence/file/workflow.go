package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/contentops/approvalflow/pkg/models"
	"github.com/contentops/approvalflow/pkg/persistence"
	"github.com/contentops/approvalflow/pkg/workflow"
	"github.com/google/uuid"
)

// WorkflowRepository handles workflow-related file operations. All writes
// and the default swap serialize on an internal mutex; the file system
// offers no transactions, so the mutex is the exclusivity mechanism.
type WorkflowRepository struct {
	root string
	mu   sync.Mutex
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(root string) *WorkflowRepository {
	return &WorkflowRepository{root: root}
}

func (wr *WorkflowRepository) dir() string {
	return filepath.Join(wr.root, "workflows")
}

func (wr *WorkflowRepository) path(id string) string {
	return filepath.Join(wr.dir(), id+".json")
}

// GetAll returns the non-deleted workflows owned by a client. An empty
// clientID returns every non-deleted workflow.
func (wr *WorkflowRepository) GetAll(ctx context.Context, clientID string) ([]*models.Workflow, error) {
	ids, err := wr.listIDs()
	if err != nil {
		return nil, err
	}

	workflows := make([]*models.Workflow, 0, len(ids))

	for _, id := range ids {
		w, err := wr.GetByID(ctx, id)
		if err != nil {
			if persistence.IsWorkflowNotFound(err) {
				continue
			}

			return nil, err
		}

		if w.IsDeleted {
			continue
		}

		if clientID != "" && w.ClientID != clientID {
			continue
		}

		workflows = append(workflows, w)
	}

	return workflows, nil
}

func (wr *WorkflowRepository) listIDs() ([]string, error) {
	root := os.DirFS(wr.dir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow files: %w", err)
	}

	ids := make([]string, 0, len(jsonFiles))
	for _, file := range jsonFiles {
		ids = append(ids, file[:len(file)-5])
	}

	return ids, nil
}

// GetByID loads one workflow document, validating it against the workflow
// schema first. Soft-deleted workflows are returned here (lineage and
// restore need them); the list and default reads filter them out.
func (wr *WorkflowRepository) GetByID(_ context.Context, id string) (*models.Workflow, error) {
	data, err := os.ReadFile(wr.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, fmt.Errorf("failed to read workflow %s: %w", id, err)
	}

	var document map[string]any
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("failed to decode workflow %s: %w", id, err)
	}

	if err := models.ValidateWorkflowDocument(document); err != nil {
		return nil, persistence.NewWorkflowError("GetByID", id, err)
	}

	var w models.Workflow
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to decode workflow %s: %w", id, err)
	}

	return &w, nil
}

// Save persists the aggregate, assigning identity and timestamps on first
// write and normalizing stage order before the document hits disk.
func (wr *WorkflowRepository) Save(ctx context.Context, w *models.Workflow) error {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	return wr.saveLocked(ctx, w)
}

func (wr *WorkflowRepository) saveLocked(_ context.Context, w *models.Workflow) error {
	now := time.Now().UTC()

	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}

	w.UpdatedAt = now

	if w.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate workflow ID: %w", err)
		}

		w.ID = id.String()
	}

	if w.Version == 0 {
		w.Version = 1
	}

	for _, stage := range w.Stages {
		if stage.ID == "" {
			stage.ID = uuid.New().String()
		}
	}

	workflow.NewStages(w).Normalize()

	if err := os.MkdirAll(wr.dir(), 0o755); err != nil {
		return fmt.Errorf("failed to create workflows directory: %w", err)
	}

	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode workflow %s: %w", w.ID, err)
	}

	if err := os.WriteFile(wr.path(w.ID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write workflow %s: %w", w.ID, err)
	}

	return nil
}

// Delete soft-deletes the workflow; the document stays on disk.
func (wr *WorkflowRepository) Delete(ctx context.Context, id, userID string) error {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	w, err := wr.GetByID(ctx, id)
	if err != nil {
		return err
	}

	workflow.SoftDelete(w, userID)

	return wr.saveLocked(ctx, w)
}

// GetDefault returns the unique (default && active) workflow for a client,
// or ErrNoDefaultWorkflow.
func (wr *WorkflowRepository) GetDefault(ctx context.Context, clientID string) (*models.Workflow, error) {
	workflows, err := wr.GetAll(ctx, clientID)
	if err != nil {
		return nil, err
	}

	for _, w := range workflows {
		if w.IsDefault && w.IsActive {
			return w, nil
		}
	}

	return nil, persistence.NewClientError("GetDefault", clientID, persistence.ErrNoDefaultWorkflow)
}

// SetDefault clears the default flag across the client's workflows and
// sets it on the target, forcing the target active. The whole swap runs
// under the repository mutex so two concurrent calls for the same client
// cannot leave two defaults.
func (wr *WorkflowRepository) SetDefault(ctx context.Context, workflowID, clientID string) error {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	target, err := wr.GetByID(ctx, workflowID)
	if err != nil {
		return err
	}

	if target.IsDeleted {
		return persistence.NewWorkflowError("SetDefault", workflowID, persistence.ErrWorkflowDeleted)
	}

	if target.ClientID != clientID {
		return persistence.NewWorkflowError("SetDefault", workflowID, persistence.ErrWorkflowNotFound)
	}

	workflows, err := wr.GetAll(ctx, clientID)
	if err != nil {
		return err
	}

	for _, w := range workflows {
		if w.IsDefault && w.ID != workflowID {
			w.IsDefault = false
			if err := wr.saveLocked(ctx, w); err != nil {
				return fmt.Errorf("failed to clear previous default %s: %w", w.ID, err)
			}
		}
	}

	target.IsDefault = true
	target.IsActive = true

	return wr.saveLocked(ctx, target)
}

// RecordCompletion folds one finished run into the workflow's analytics.
// The read-modify-write runs under the repository mutex, which is what
// keeps concurrent completions from losing each other's usage increment.
func (wr *WorkflowRepository) RecordCompletion(ctx context.Context, workflowID string, completionTimeHours float64, approved bool) error {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	w, err := wr.GetByID(ctx, workflowID)
	if err != nil {
		return err
	}

	w.Analytics.Record(completionTimeHours, approved)
	now := time.Now().UTC()
	w.LastUsedAt = &now

	return wr.saveLocked(ctx, w)
}
