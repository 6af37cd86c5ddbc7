// Package cmd wires shared infrastructure for the approvalflow binaries.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/contentops/approvalflow/pkg/persistence"
	"github.com/contentops/approvalflow/pkg/persistence/file"
	"github.com/contentops/approvalflow/pkg/persistence/postgresql"
)

// NewPersistence builds the persistence layer from a database URL. A
// postgres:// URL selects the PostgreSQL adapter; anything else is treated
// as a file:// root.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch parseProvider(databaseURL) {
	case "postgres", "postgresql":
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to create PostgreSQL persistence: %w", err))
		}

		return p
	default:
		return file.NewPersistence(databaseURL)
	}
}

func parseProvider(databaseURL string) string {
	parts := strings.Split(databaseURL, "://")

	return parts[0]
}
