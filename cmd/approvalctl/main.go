package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/contentops/approvalflow/pkg/log"
)

func main() {
	command := &cli.Command{
		Name:                  "approvalctl",
		Usage:                 "Create and manage approval workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Before: func(ctx context.Context, command *cli.Command) (context.Context, error) {
			log.Setup(command.String("log-level"))

			return ctx, nil
		},
		Commands: []*cli.Command{
			NewValidateCommand(),
			NewListCommand(),
			NewSetDefaultCommand(),
			NewCloneCommand(),
			NewDeleteCommand(),
			NewRestoreCommand(),
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
