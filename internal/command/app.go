package command

import (
	"context"
	"errors"

	"github.com/urfave/cli/v2"

	"taskdeck/client/internal/config"
)

type Deps struct {
	LoadConfig   func() config.Config
	RunBoard     func(context.Context, config.Config) error
	RunMigrateUp func(context.Context, config.Config) error
}

func BuildApp(deps Deps) *cli.App {
	return &cli.App{
		Name:  "taskdeck",
		Usage: "kanban client for a remote coding agent",
		Action: func(ctx *cli.Context) error {
			cfg := loadConfig(deps)
			return runBoard(ctx.Context, deps, cfg)
		},
		Commands: []*cli.Command{
			{
				Name:  "board",
				Usage: "start the board runtime",
				Action: func(ctx *cli.Context) error {
					cfg := loadConfig(deps)
					return runBoard(ctx.Context, deps, cfg)
				},
			},
			{
				Name:  "migrate",
				Usage: "run database migration",
				Subcommands: []*cli.Command{
					{
						Name:  "up",
						Usage: "apply pending migrations",
						Action: func(ctx *cli.Context) error {
							cfg := loadConfig(deps)
							return runMigrateUp(ctx.Context, deps, cfg)
						},
					},
				},
			},
		},
	}
}

func loadConfig(deps Deps) config.Config {
	if deps.LoadConfig != nil {
		return deps.LoadConfig()
	}
	return config.LoadConfig()
}

func runBoard(ctx context.Context, deps Deps, cfg config.Config) error {
	if deps.RunBoard == nil {
		return errors.New("board runner is not configured")
	}
	return deps.RunBoard(ctx, cfg)
}

func runMigrateUp(ctx context.Context, deps Deps, cfg config.Config) error {
	if deps.RunMigrateUp == nil {
		return errors.New("migrate up runner is not configured")
	}
	return deps.RunMigrateUp(ctx, cfg)
}
