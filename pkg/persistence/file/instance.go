package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/contentops/approvalflow/pkg/models"
	"github.com/google/uuid"
)

// StageInstanceRepository stores the runtime stage instances the sweeper
// polls, one JSON document per instance.
type StageInstanceRepository struct {
	root string
	mu   sync.Mutex
}

// NewStageInstanceRepository creates a new stage instance repository.
func NewStageInstanceRepository(root string) *StageInstanceRepository {
	return &StageInstanceRepository{root: root}
}

func (ir *StageInstanceRepository) dir() string {
	return filepath.Join(ir.root, "instances")
}

func (ir *StageInstanceRepository) path(id string) string {
	return filepath.Join(ir.dir(), id+".json")
}

// Pending returns the unresolved stage instances.
func (ir *StageInstanceRepository) Pending(_ context.Context) ([]*models.StageInstance, error) {
	root := os.DirFS(ir.dir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list stage instance files: %w", err)
	}

	instances := make([]*models.StageInstance, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		data, err := os.ReadFile(filepath.Join(ir.dir(), file))
		if err != nil {
			return nil, fmt.Errorf("failed to read stage instance %s: %w", file, err)
		}

		var instance models.StageInstance
		if err := json.Unmarshal(data, &instance); err != nil {
			return nil, fmt.Errorf("failed to decode stage instance %s: %w", file, err)
		}

		if instance.Resolved {
			continue
		}

		instances = append(instances, &instance)
	}

	return instances, nil
}

// Save persists a stage instance, assigning identity on first write.
func (ir *StageInstanceRepository) Save(_ context.Context, instance *models.StageInstance) error {
	ir.mu.Lock()
	defer ir.mu.Unlock()

	if instance.ID == "" {
		instance.ID = uuid.New().String()
	}

	if err := os.MkdirAll(ir.dir(), 0o755); err != nil {
		return fmt.Errorf("failed to create instances directory: %w", err)
	}

	data, err := json.MarshalIndent(instance, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode stage instance %s: %w", instance.ID, err)
	}

	if err := os.WriteFile(ir.path(instance.ID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write stage instance %s: %w", instance.ID, err)
	}

	return nil
}
