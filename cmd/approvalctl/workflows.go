package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	cli "github.com/urfave/cli/v3"

	"github.com/contentops/approvalflow/pkg/cmd"
	"github.com/contentops/approvalflow/pkg/persistence"
	"github.com/contentops/approvalflow/pkg/workflow"
)

func databaseURLFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "database-url",
		Usage:    "Database connection URL for persistence",
		Required: true,
		Sources:  cli.EnvVars("DATABASE_URL"),
	}
}

func redisURLFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "redis-url",
		Usage:   "Redis URL for cross-process locking (in-process lock if empty)",
		Value:   "",
		Sources: cli.EnvVars("REDIS_URL"),
	}
}

func withPersistence(ctx context.Context, command *cli.Command, fn func(p persistence.Persistence, logger *slog.Logger) error) error {
	logger := slog.With("module", "approvalctl")

	p := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	defer func() {
		if err := p.Close(ctx); err != nil {
			logger.Error("Failed to close persistence", "error", err)
		}
	}()

	return fn(p, logger)
}

// NewListCommand lists a client's workflows. Deleted workflows never show
// up here; use restore with an explicit ID to bring one back.
func NewListCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List workflows for a client",
		Flags: []cli.Flag{
			databaseURLFlag(),
			&cli.StringFlag{
				Name:     "client-id",
				Usage:    "Client whose workflows to list",
				Required: true,
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			return withPersistence(ctx, command, func(p persistence.Persistence, _ *slog.Logger) error {
				workflows, err := p.Workflows(ctx, command.String("client-id"))
				if err != nil {
					return fmt.Errorf("failed to list workflows: %w", err)
				}

				tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				_, _ = fmt.Fprintln(tw, "ID\tNAME\tVERSION\tSTAGES\tACTIVE\tDEFAULT\tUSAGE")

				for _, w := range workflows {
					_, _ = fmt.Fprintf(tw, "%s\t%s\tv%d\t%d\t%t\t%t\t%d\n",
						w.ID, w.Name, w.Version, len(w.Stages), w.IsActive, w.IsDefault, w.Analytics.TotalUsage)
				}

				return tw.Flush()
			})
		},
	}
}

// NewSetDefaultCommand swaps the client's default workflow. The swap goes
// through the selector so it is serialized per client and the target ends
// up as the single active default.
func NewSetDefaultCommand() *cli.Command {
	return &cli.Command{
		Name:  "set-default",
		Usage: "Make a workflow the client's default",
		Flags: []cli.Flag{
			databaseURLFlag(),
			redisURLFlag(),
			&cli.StringFlag{
				Name:     "client-id",
				Usage:    "Client owning the workflow",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "workflow-id",
				Usage:    "Workflow to promote",
				Required: true,
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			return withPersistence(ctx, command, func(p persistence.Persistence, logger *slog.Logger) error {
				selector := workflow.NewSelector(p, cmd.NewLocker(command.String("redis-url")), logger)

				workflowID := command.String("workflow-id")
				clientID := command.String("client-id")

				if err := selector.SetDefaultWorkflow(ctx, workflowID, clientID); err != nil {
					return fmt.Errorf("failed to set default workflow: %w", err)
				}

				_, _ = fmt.Fprintf(os.Stdout, "Workflow %s is now the default for client %s\n", workflowID, clientID)

				return nil
			})
		},
	}
}

// NewCloneCommand copies a workflow into a fresh version-1 aggregate.
func NewCloneCommand() *cli.Command {
	return &cli.Command{
		Name:  "clone",
		Usage: "Clone a workflow into a new independent copy",
		Flags: []cli.Flag{
			databaseURLFlag(),
			&cli.StringFlag{
				Name:     "workflow-id",
				Usage:    "Source workflow to clone",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "name",
				Usage:    "Name for the clone",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "created-by",
				Usage: "User recorded as the clone's creator",
				Value: "",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			return withPersistence(ctx, command, func(p persistence.Persistence, _ *slog.Logger) error {
				source, err := p.WorkflowByID(ctx, command.String("workflow-id"))
				if err != nil {
					return fmt.Errorf("failed to load source workflow: %w", err)
				}

				if source.IsDeleted {
					return fmt.Errorf("workflow %s: %w", source.ID, persistence.ErrWorkflowDeleted)
				}

				clone := workflow.Clone(source, command.String("name"), command.String("created-by"))

				if err := p.SaveWorkflow(ctx, clone); err != nil {
					return fmt.Errorf("failed to save clone: %w", err)
				}

				_, _ = fmt.Fprintf(os.Stdout, "Cloned %s into %s (%s)\n", source.ID, clone.ID, clone.Name)

				return nil
			})
		},
	}
}

// NewDeleteCommand soft-deletes a workflow.
func NewDeleteCommand() *cli.Command {
	return &cli.Command{
		Name:  "delete",
		Usage: "Soft-delete a workflow",
		Flags: []cli.Flag{
			databaseURLFlag(),
			&cli.StringFlag{
				Name:     "workflow-id",
				Usage:    "Workflow to delete",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "deleted-by",
				Usage: "User recorded as the deleter",
				Value: "",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			return withPersistence(ctx, command, func(p persistence.Persistence, _ *slog.Logger) error {
				workflowID := command.String("workflow-id")

				if err := p.DeleteWorkflow(ctx, workflowID, command.String("deleted-by")); err != nil {
					return fmt.Errorf("failed to delete workflow: %w", err)
				}

				_, _ = fmt.Fprintf(os.Stdout, "Workflow %s deleted (restorable with 'approvalctl restore')\n", workflowID)

				return nil
			})
		},
	}
}

// NewRestoreCommand clears a workflow's delete markers. The restored
// workflow comes back inactive; activate it explicitly once reviewed.
func NewRestoreCommand() *cli.Command {
	return &cli.Command{
		Name:  "restore",
		Usage: "Restore a soft-deleted workflow",
		Flags: []cli.Flag{
			databaseURLFlag(),
			&cli.StringFlag{
				Name:     "workflow-id",
				Usage:    "Workflow to restore",
				Required: true,
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			return withPersistence(ctx, command, func(p persistence.Persistence, _ *slog.Logger) error {
				w, err := p.WorkflowByID(ctx, command.String("workflow-id"))
				if err != nil {
					return fmt.Errorf("failed to load workflow: %w", err)
				}

				if !w.IsDeleted {
					_, _ = fmt.Fprintf(os.Stdout, "Workflow %s is not deleted, nothing to do\n", w.ID)

					return nil
				}

				workflow.Restore(w)

				if err := p.SaveWorkflow(ctx, w); err != nil {
					return fmt.Errorf("failed to save restored workflow: %w", err)
				}

				_, _ = fmt.Fprintf(os.Stdout, "Workflow %s restored (inactive until explicitly activated)\n", w.ID)

				return nil
			})
		},
	}
}
