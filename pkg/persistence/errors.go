// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrWorkflowNotFound indicates a workflow was not found by the given identifier.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrWorkflowDeleted indicates the workflow exists but has been soft-deleted.
	ErrWorkflowDeleted = errors.New("workflow is deleted")

	// ErrNoDefaultWorkflow indicates no default workflow exists for the client.
	// After a failed SetDefaultWorkflow this is the recoverable signal that
	// the caller must retry the operation.
	ErrNoDefaultWorkflow = errors.New("no default workflow for client")

	// ErrConcurrentUpdate indicates an optimistic-concurrency conflict; the
	// caller's read-modify-write raced another writer and should retry.
	ErrConcurrentUpdate = errors.New("concurrent workflow update")

	// ErrStageInstanceNotFound indicates a stage instance was not found.
	ErrStageInstanceNotFound = errors.New("stage instance not found")
)

// WorkflowError wraps workflow-related errors with additional context.
type WorkflowError struct {
	Op         string // Operation being performed (e.g., "WorkflowByID", "SetDefault")
	WorkflowID string // Workflow ID if applicable
	ClientID   string // Client ID if applicable
	Err        error  // Underlying error
}

func (e *WorkflowError) Error() string {
	target := e.WorkflowID
	if target == "" && e.ClientID != "" {
		target = fmt.Sprintf("client %s", e.ClientID)
	}

	return fmt.Sprintf("%s operation failed for workflow %s: %v", e.Op, target, e.Err)
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for workflow errors.
func (e *WorkflowError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewWorkflowError creates a new workflow error with context.
func NewWorkflowError(op, workflowID string, err error) *WorkflowError {
	return &WorkflowError{
		Op:         op,
		WorkflowID: workflowID,
		Err:        err,
	}
}

// NewClientError creates a new workflow error for per-client operations.
func NewClientError(op, clientID string, err error) *WorkflowError {
	return &WorkflowError{
		Op:       op,
		ClientID: clientID,
		Err:      err,
	}
}

// IsWorkflowNotFound checks if an error indicates a workflow was not found.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsNoDefaultWorkflow checks if an error indicates the client has no default.
func IsNoDefaultWorkflow(err error) bool {
	return errors.Is(err, ErrNoDefaultWorkflow)
}

// IsConcurrentUpdate checks if an error indicates an optimistic-concurrency
// conflict that should be retried.
func IsConcurrentUpdate(err error) bool {
	return errors.Is(err, ErrConcurrentUpdate)
}
