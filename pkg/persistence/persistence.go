// Package persistence provides the data storage abstraction for workflow
// definitions and stage instances.
package persistence

import (
	"context"

	"github.com/contentops/approvalflow/pkg/models"
)

// Persistence is the store contract the engine runs against. Two
// operations carry real concurrency requirements that implementations must
// honor rather than approximate:
//
//   - SetDefaultWorkflow must be atomic per client. The clear-then-set
//     sequence may never leave two defaults, and a failure after the clear
//     must surface (the caller sees ErrNoDefaultWorkflow on the next read
//     and retries) rather than being treated as "no default required".
//   - RecordCompletion is a read-modify-write on the workflow's analytics.
//     Concurrent completions of the same workflow must not lose updates;
//     implementations use an atomic store-side recompute or optimistic
//     retry, never a blind overwrite.
//
// All reads exclude soft-deleted workflows.
type Persistence interface {
	// Workflows returns the non-deleted workflows owned by a client.
	Workflows(ctx context.Context, clientID string) ([]*models.Workflow, error)
	WorkflowByID(ctx context.Context, id string) (*models.Workflow, error)
	// SaveWorkflow persists the aggregate, normalizing stage order on write.
	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error
	// DeleteWorkflow soft-deletes; the record stays for lineage and restore.
	DeleteWorkflow(ctx context.Context, id, userID string) error

	// DefaultWorkflow returns the unique default for a client, or
	// ErrNoDefaultWorkflow.
	DefaultWorkflow(ctx context.Context, clientID string) (*models.Workflow, error)
	// SetDefaultWorkflow atomically makes the target the single default for
	// the client and forces it active.
	SetDefaultWorkflow(ctx context.Context, workflowID, clientID string) error

	// RecordCompletion folds one finished run into the workflow's running
	// analytics without losing concurrent updates.
	RecordCompletion(ctx context.Context, workflowID string, completionTimeHours float64, approved bool) error

	// Stage instances are the runtime state the sweeper polls: which stage
	// of which workflow a content item is sitting in, since when, and what
	// has already been fired for it.
	PendingStageInstances(ctx context.Context) ([]*models.StageInstance, error)
	SaveStageInstance(ctx context.Context, instance *models.StageInstance) error

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
