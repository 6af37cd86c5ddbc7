package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/contentops/approvalflow/pkg/lock"
	"github.com/contentops/approvalflow/pkg/models"
	"github.com/contentops/approvalflow/pkg/persistence"
)

// ErrWorkflowNotFound is returned when a workflow is not found.
var ErrWorkflowNotFound = persistence.ErrWorkflowNotFound

// ErrNoDefaultWorkflow is returned when a client has no default workflow.
var ErrNoDefaultWorkflow = persistence.ErrNoDefaultWorkflow

const setDefaultLockTTL = 10 * time.Second

// Selector resolves which workflow governs a content item: an explicitly
// applicable one, or the client's single default. All reads go through the
// persistence layer's deleted-workflow filtering.
type Selector struct {
	persistence persistence.Persistence
	matcher     *Matcher
	locker      lock.Locker
	logger      *slog.Logger
}

// NewSelector creates a workflow selector. The locker serializes the
// per-client default swap on top of whatever atomicity the store itself
// provides; pass a redis locker when multiple processes share a store
// without native transactions.
func NewSelector(p persistence.Persistence, locker lock.Locker, logger *slog.Logger) *Selector {
	return &Selector{
		persistence: p,
		matcher:     NewMatcher(logger),
		locker:      locker,
		logger:      logger.With("module", "workflow_selector"),
	}
}

// FindApplicableWorkflows returns every active workflow of the client whose
// applicability rules match the content item. The result order is
// unspecified; callers needing a ranking impose their own.
func (s *Selector) FindApplicableWorkflows(ctx context.Context, item *models.ContentItem, clientID string) ([]*models.Workflow, error) {
	workflows, err := s.persistence.Workflows(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load workflows for client %s: %w", clientID, err)
	}

	applicable := make([]*models.Workflow, 0)

	for _, w := range workflows {
		if s.matcher.Matches(w, item) {
			applicable = append(applicable, w)
		}
	}

	s.logger.Debug("Completed applicability matching",
		"client_id", clientID,
		"content_id", item.ID,
		"candidates", len(workflows),
		"matches", len(applicable))

	return applicable, nil
}

// SelectWorkflow picks the workflow that should govern the content item:
// the first applicable one, else the client's default, else
// ErrNoDefaultWorkflow.
func (s *Selector) SelectWorkflow(ctx context.Context, item *models.ContentItem, clientID string) (*models.Workflow, error) {
	applicable, err := s.FindApplicableWorkflows(ctx, item, clientID)
	if err != nil {
		return nil, err
	}

	if len(applicable) > 0 {
		return applicable[0], nil
	}

	return s.DefaultWorkflow(ctx, clientID)
}

// DefaultWorkflow returns the unique default workflow for the client.
func (s *Selector) DefaultWorkflow(ctx context.Context, clientID string) (*models.Workflow, error) {
	w, err := s.persistence.DefaultWorkflow(ctx, clientID)
	if err != nil {
		return nil, err
	}

	return w, nil
}

// SetDefaultWorkflow makes the target workflow the client's single default
// and forces it active. The swap is serialized per client: the store's own
// exclusivity operation runs under a per-client lock so two concurrent
// calls cannot interleave their clear and set steps. A failure between the
// two steps leaves the client with no default, which reads back as
// ErrNoDefaultWorkflow so the caller can retry.
func (s *Selector) SetDefaultWorkflow(ctx context.Context, workflowID, clientID string) error {
	key := "approvalflow:default:" + clientID

	acquired, err := s.locker.TryLock(ctx, key, setDefaultLockTTL)
	if err != nil {
		return fmt.Errorf("failed to lock default swap for client %s: %w", clientID, err)
	}

	if !acquired {
		return persistence.NewClientError("SetDefaultWorkflow", clientID, persistence.ErrConcurrentUpdate)
	}

	defer func() {
		if err := s.locker.Unlock(ctx, key); err != nil {
			s.logger.Error("Failed to release default swap lock", "client_id", clientID, "error", err)
		}
	}()

	if err := s.persistence.SetDefaultWorkflow(ctx, workflowID, clientID); err != nil {
		return err
	}

	s.logger.Info("Default workflow changed", "client_id", clientID, "workflow_id", workflowID)

	return nil
}
