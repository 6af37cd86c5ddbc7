// Package postgresql provides PostgreSQL persistence for workflow
// definitions and stage instances.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"github.com/contentops/approvalflow/pkg/models"
	"github.com/contentops/approvalflow/pkg/persistence"
	"github.com/contentops/approvalflow/pkg/persistence/sqlbase"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db           *sql.DB
	logger       *slog.Logger
	workflowRepo *WorkflowRepository
	instanceRepo *StageInstanceRepository
}

// NewPersistence creates a new PostgreSQL persistence layer and runs
// pending migrations.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:           database,
		logger:       logger,
		workflowRepo: NewWorkflowRepository(database, logger),
		instanceRepo: NewStageInstanceRepository(database, logger),
	}, nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) Workflows(ctx context.Context, clientID string) ([]*models.Workflow, error) {
	return p.workflowRepo.GetAll(ctx, clientID)
}

func (p *Persistence) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	return p.workflowRepo.GetByID(ctx, id)
}

func (p *Persistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	return p.workflowRepo.Save(ctx, workflow)
}

func (p *Persistence) DeleteWorkflow(ctx context.Context, id, userID string) error {
	return p.workflowRepo.Delete(ctx, id, userID)
}

func (p *Persistence) DefaultWorkflow(ctx context.Context, clientID string) (*models.Workflow, error) {
	return p.workflowRepo.GetDefault(ctx, clientID)
}

func (p *Persistence) SetDefaultWorkflow(ctx context.Context, workflowID, clientID string) error {
	return p.workflowRepo.SetDefault(ctx, workflowID, clientID)
}

func (p *Persistence) RecordCompletion(ctx context.Context, workflowID string, completionTimeHours float64, approved bool) error {
	return p.workflowRepo.RecordCompletion(ctx, workflowID, completionTimeHours, approved)
}

func (p *Persistence) PendingStageInstances(ctx context.Context) ([]*models.StageInstance, error) {
	return p.instanceRepo.Pending(ctx)
}

func (p *Persistence) SaveStageInstance(ctx context.Context, instance *models.StageInstance) error {
	return p.instanceRepo.Save(ctx, instance)
}

var _ persistence.Persistence = (*Persistence)(nil)
