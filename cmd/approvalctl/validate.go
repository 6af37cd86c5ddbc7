package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	cli "github.com/urfave/cli/v3"

	"github.com/contentops/approvalflow/pkg/models"
	"github.com/contentops/approvalflow/pkg/workflow"
)

var ErrInvalidWorkflows = errors.New("invalid workflow definitions found")

// NewValidateCommand validates workflow definition files before they are
// loaded into a store. Each file is checked twice: against the document
// schema, then as a decoded aggregate with struct-level validation and the
// ordering rules the engine relies on.
func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Aliases:   []string{"v"},
		Usage:     "Validate workflow definition files",
		ArgsUsage: "<file-or-directory>...",
		Action: func(ctx context.Context, command *cli.Command) error {
			if command.Args().Len() == 0 {
				return errors.New("at least one file or directory is required")
			}

			validate := validator.New(validator.WithRequiredStructEnabled())

			valid := 0
			invalid := 0

			for _, arg := range command.Args().Slice() {
				paths, err := collectJSONFiles(arg)
				if err != nil {
					return err
				}

				for _, path := range paths {
					if err := validateFile(path, validate); err != nil {
						_, _ = fmt.Fprintf(os.Stdout, "%s: INVALID: %v\n", path, err)
						invalid++
					} else {
						_, _ = fmt.Fprintf(os.Stdout, "%s: VALID\n", path)
						valid++
					}
				}
			}

			_, _ = fmt.Fprintf(os.Stdout, "\nValidation Summary:\n")
			_, _ = fmt.Fprintf(os.Stdout, "  Valid workflows:   %d\n", valid)
			_, _ = fmt.Fprintf(os.Stdout, "  Invalid workflows: %d\n", invalid)

			if invalid > 0 {
				return fmt.Errorf("%w: %d", ErrInvalidWorkflows, invalid)
			}

			return nil
		},
	}
}

func collectJSONFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if !info.IsDir() {
		return []string{path}, nil
	}

	matches, err := filepath.Glob(filepath.Join(path, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", path, err)
	}

	return matches, nil
}

func validateFile(path string, validate *validator.Validate) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var document map[string]any
	if err := json.Unmarshal(data, &document); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	if err := models.ValidateWorkflowDocument(document); err != nil {
		return err
	}

	var w models.Workflow
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("failed to decode workflow: %w", err)
	}

	if err := validate.Struct(&w); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return validationErrors
		}

		return err
	}

	return checkStageOrders(&w)
}

// checkStageOrders rejects duplicate order ranks. Gaps are legal; duplicate
// ranks would make stage navigation ambiguous.
func checkStageOrders(w *models.Workflow) error {
	workflow.NewStages(w).Normalize()

	seen := make(map[int]string, len(w.Stages))

	for _, stage := range w.Stages {
		if other, ok := seen[stage.Order]; ok {
			return fmt.Errorf("stages %q and %q share order %d", other, stage.Name, stage.Order)
		}

		seen[stage.Order] = stage.Name
	}

	return nil
}
