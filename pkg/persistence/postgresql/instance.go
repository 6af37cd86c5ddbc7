package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/contentops/approvalflow/pkg/models"
	"github.com/contentops/approvalflow/pkg/persistence"
	"github.com/google/uuid"
)

// StageInstanceRepository handles the runtime stage instances polled by
// the escalation sweeper.
type StageInstanceRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStageInstanceRepository creates a new stage instance repository.
func NewStageInstanceRepository(db *sql.DB, logger *slog.Logger) *StageInstanceRepository {
	return &StageInstanceRepository{db: db, logger: logger}
}

// Pending returns the unresolved stage instances.
func (r *StageInstanceRepository) Pending(ctx context.Context) ([]*models.StageInstance, error) {
	query := `
		SELECT id, workflow_id, content_id, client_id, stage_order,
		       entered_at, resolved, escalated, reminders_sent
		FROM stage_instances
		WHERE NOT resolved
		ORDER BY entered_at
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query stage instances: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	instances := make([]*models.StageInstance, 0)

	for rows.Next() {
		var (
			instance models.StageInstance
			clientID sql.NullString
		)

		err := rows.Scan(
			&instance.ID,
			&instance.WorkflowID,
			&instance.ContentID,
			&clientID,
			&instance.StageOrder,
			&instance.EnteredAt,
			&instance.Resolved,
			&instance.Escalated,
			&instance.RemindersSent,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stage instance: %w", err)
		}

		instance.ClientID = clientID.String
		instances = append(instances, &instance)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating stage instances: %w", err)
	}

	return instances, nil
}

// Save upserts a stage instance, assigning identity on first write.
func (r *StageInstanceRepository) Save(ctx context.Context, instance *models.StageInstance) error {
	if instance.ID == "" {
		instance.ID = uuid.New().String()
	}

	query := `
		INSERT INTO stage_instances (
			id, workflow_id, content_id, client_id, stage_order,
			entered_at, resolved, escalated, reminders_sent
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			stage_order = EXCLUDED.stage_order,
			entered_at = EXCLUDED.entered_at,
			resolved = EXCLUDED.resolved,
			escalated = EXCLUDED.escalated,
			reminders_sent = EXCLUDED.reminders_sent
	`

	_, err := r.db.ExecContext(ctx, query,
		instance.ID,
		instance.WorkflowID,
		instance.ContentID,
		nullString(instance.ClientID),
		instance.StageOrder,
		instance.EnteredAt,
		instance.Resolved,
		instance.Escalated,
		instance.RemindersSent,
	)
	if err != nil {
		return persistence.NewWorkflowError("SaveStageInstance", instance.WorkflowID, err)
	}

	return nil
}
