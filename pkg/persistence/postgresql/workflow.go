package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/contentops/approvalflow/pkg/models"
	"github.com/contentops/approvalflow/pkg/persistence"
	"github.com/contentops/approvalflow/pkg/workflow"
	"github.com/google/uuid"
)

// WorkflowRepository handles workflow-related database operations.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger}
}

const workflowColumns = `
	id
  , name
  , description
  , client_id
  , organization_id
  , is_default
  , is_active
  , is_deleted
  , deleted_at
  , deleted_by
  , stages
  , settings
  , applicable_to
  , total_usage
  , average_completion_time
  , approval_rate
  , analytics_extra
  , version
  , parent_workflow_id
  , created_by
  , created_at
  , updated_at
  , last_used_at
`

// GetAll returns the non-deleted workflows owned by a client. An empty
// clientID returns every non-deleted workflow.
func (r *WorkflowRepository) GetAll(ctx context.Context, clientID string) ([]*models.Workflow, error) {
	query := `
		SELECT ` + workflowColumns + `
		FROM workflows
		WHERE NOT is_deleted
		  AND ($1 = '' OR client_id = $1)
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		w, err := r.scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		workflows = append(workflows, w)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	return workflows, nil
}

// GetByID loads one workflow, soft-deleted ones included; lineage and
// restore need to see them.
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	query := `
		SELECT ` + workflowColumns + `
		FROM workflows
		WHERE id = $1
	`

	row := r.db.QueryRowContext(ctx, query, id)

	w, err := r.scanWorkflow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, fmt.Errorf("failed to scan workflow: %w", err)
	}

	return w, nil
}

// GetDefault returns the unique (default, active, not deleted) workflow
// for a client. The partial unique index guarantees at most one row.
func (r *WorkflowRepository) GetDefault(ctx context.Context, clientID string) (*models.Workflow, error) {
	query := `
		SELECT ` + workflowColumns + `
		FROM workflows
		WHERE client_id = $1 AND is_default AND is_active AND NOT is_deleted
	`

	row := r.db.QueryRowContext(ctx, query, clientID)

	w, err := r.scanWorkflow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewClientError("GetDefault", clientID, persistence.ErrNoDefaultWorkflow)
		}

		return nil, fmt.Errorf("failed to scan workflow: %w", err)
	}

	return w, nil
}

// Save upserts the aggregate, normalizing stage order first. The analytics
// counters are deliberately excluded from the update: they only ever move
// through RecordCompletion's atomic recompute, so a Save based on a stale
// read can never roll back a concurrent completion.
func (r *WorkflowRepository) Save(ctx context.Context, w *models.Workflow) error {
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

	stagesJSON, err := json.Marshal(w.Stages)
	if err != nil {
		return fmt.Errorf("failed to marshal stages: %w", err)
	}

	settingsJSON, err := json.Marshal(w.Settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	applicableToJSON, err := json.Marshal(w.ApplicableTo)
	if err != nil {
		return fmt.Errorf("failed to marshal applicability rules: %w", err)
	}

	extraJSON, err := json.Marshal(analyticsExtra{
		BottleneckStages:   w.Analytics.BottleneckStages,
		PerformanceByStage: w.Analytics.PerformanceByStage,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal analytics extra: %w", err)
	}

	query := `
		INSERT INTO workflows (
			id, name, description, client_id, organization_id,
			is_default, is_active, is_deleted, deleted_at, deleted_by,
			stages, settings, applicable_to,
			total_usage, average_completion_time, approval_rate, analytics_extra,
			version, parent_workflow_id, created_by, created_at, updated_at, last_used_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			organization_id = EXCLUDED.organization_id,
			is_default = EXCLUDED.is_default,
			is_active = EXCLUDED.is_active,
			is_deleted = EXCLUDED.is_deleted,
			deleted_at = EXCLUDED.deleted_at,
			deleted_by = EXCLUDED.deleted_by,
			stages = EXCLUDED.stages,
			settings = EXCLUDED.settings,
			applicable_to = EXCLUDED.applicable_to,
			analytics_extra = EXCLUDED.analytics_extra,
			version = EXCLUDED.version,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		w.ID,
		w.Name,
		w.Description,
		w.ClientID,
		nullString(w.OrganizationID),
		w.IsDefault,
		w.IsActive,
		w.IsDeleted,
		w.DeletedAt,
		nullString(w.DeletedBy),
		stagesJSON,
		settingsJSON,
		applicableToJSON,
		w.Analytics.TotalUsage,
		w.Analytics.AverageCompletionTime,
		w.Analytics.ApprovalRate,
		extraJSON,
		w.Version,
		nullString(w.ParentWorkflowID),
		nullString(w.CreatedBy),
		w.CreatedAt,
		w.UpdatedAt,
		w.LastUsedAt,
	)
	if err != nil {
		return persistence.NewWorkflowError("Save", w.ID, err)
	}

	return nil
}

// Delete soft-deletes a workflow.
func (r *WorkflowRepository) Delete(ctx context.Context, id, userID string) error {
	query := `
		UPDATE workflows
		SET is_deleted = TRUE,
		    is_active = FALSE,
		    is_default = FALSE,
		    deleted_at = NOW(),
		    deleted_by = $2,
		    updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted
	`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return persistence.NewWorkflowError("Delete", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
	}

	return nil
}

// SetDefault swaps the client's default inside one transaction: clear the
// previous default, then set and activate the target. The partial unique
// index is the backstop; even a racing writer outside this transaction
// cannot commit a second default.
func (r *WorkflowRepository) SetDefault(ctx context.Context, workflowID, clientID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		UPDATE workflows
		SET is_default = FALSE, updated_at = NOW()
		WHERE client_id = $1 AND is_default
	`, clientID)
	if err != nil {
		return persistence.NewClientError("SetDefault", clientID, err)
	}

	var result sql.Result

	result, err = tx.ExecContext(ctx, `
		UPDATE workflows
		SET is_default = TRUE, is_active = TRUE, updated_at = NOW()
		WHERE id = $1 AND client_id = $2 AND NOT is_deleted
	`, workflowID, clientID)
	if err != nil {
		return persistence.NewWorkflowError("SetDefault", workflowID, err)
	}

	var affected int64

	affected, err = result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		err = persistence.NewWorkflowError("SetDefault", workflowID, persistence.ErrWorkflowNotFound)

		return err
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit default swap: %w", err)
	}

	return nil
}

// RecordCompletion folds one finished run into the analytics counters in a
// single UPDATE. Every expression reads the pre-update row, so the two
// running means and the usage increment are consistent with each other and
// concurrent completions serialize on the row lock instead of losing
// updates.
func (r *WorkflowRepository) RecordCompletion(ctx context.Context, workflowID string, completionTimeHours float64, approved bool) error {
	signal := 0.0
	if approved {
		signal = 100.0
	}

	query := `
		UPDATE workflows
		SET average_completion_time = average_completion_time
		        + ($2 - average_completion_time) / (total_usage + 1),
		    approval_rate = approval_rate
		        + ($3 - approval_rate) / (total_usage + 1),
		    total_usage = total_usage + 1,
		    last_used_at = NOW(),
		    updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted
	`

	result, err := r.db.ExecContext(ctx, query, workflowID, completionTimeHours, signal)
	if err != nil {
		return persistence.NewWorkflowError("RecordCompletion", workflowID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return persistence.NewWorkflowError("RecordCompletion", workflowID, persistence.ErrWorkflowNotFound)
	}

	return nil
}

type analyticsExtra struct {
	BottleneckStages   []string                            `json:"bottleneck_stages,omitempty"`
	PerformanceByStage map[string]*models.StagePerformance `json:"performance_by_stage,omitempty"`
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *WorkflowRepository) scanWorkflow(row rowScanner) (*models.Workflow, error) {
	var (
		organizationID   sql.NullString
		deletedBy        sql.NullString
		parentWorkflowID sql.NullString
		createdBy        sql.NullString
		deletedAt        sql.NullTime
		lastUsedAt       sql.NullTime
		stagesJSON       []byte
		settingsJSON     []byte
		applicableToJSON []byte
		extraJSON        []byte
	)

	workflowRecord := &models.Workflow{}

	err := row.Scan(
		&workflowRecord.ID,
		&workflowRecord.Name,
		&workflowRecord.Description,
		&workflowRecord.ClientID,
		&organizationID,
		&workflowRecord.IsDefault,
		&workflowRecord.IsActive,
		&workflowRecord.IsDeleted,
		&deletedAt,
		&deletedBy,
		&stagesJSON,
		&settingsJSON,
		&applicableToJSON,
		&workflowRecord.Analytics.TotalUsage,
		&workflowRecord.Analytics.AverageCompletionTime,
		&workflowRecord.Analytics.ApprovalRate,
		&extraJSON,
		&workflowRecord.Version,
		&parentWorkflowID,
		&createdBy,
		&workflowRecord.CreatedAt,
		&workflowRecord.UpdatedAt,
		&lastUsedAt,
	)
	if err != nil {
		return nil, err
	}

	workflowRecord.OrganizationID = organizationID.String
	workflowRecord.DeletedBy = deletedBy.String
	workflowRecord.ParentWorkflowID = parentWorkflowID.String
	workflowRecord.CreatedBy = createdBy.String

	if deletedAt.Valid {
		workflowRecord.DeletedAt = &deletedAt.Time
	}

	if lastUsedAt.Valid {
		workflowRecord.LastUsedAt = &lastUsedAt.Time
	}

	if err := json.Unmarshal(stagesJSON, &workflowRecord.Stages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stages: %w", err)
	}

	if err := json.Unmarshal(settingsJSON, &workflowRecord.Settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}

	if err := json.Unmarshal(applicableToJSON, &workflowRecord.ApplicableTo); err != nil {
		return nil, fmt.Errorf("failed to unmarshal applicability rules: %w", err)
	}

	var extra analyticsExtra
	if err := json.Unmarshal(extraJSON, &extra); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analytics extra: %w", err)
	}

	workflowRecord.Analytics.BottleneckStages = extra.BottleneckStages
	workflowRecord.Analytics.PerformanceByStage = extra.PerformanceByStage

	return workflowRecord, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
