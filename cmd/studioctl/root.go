package main

import (
	"github.com/spf13/cobra"

	"github.com/pirouette/studio/internal/app"
	"github.com/pirouette/studio/internal/database"
)

type cli struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "studioctl",
		Short: "Operator tooling for the studio session service",
		Long: `studioctl runs maintenance and account tasks directly against the
studio database, using the same configuration as the server.

Configuration is read from config/config.yaml (or the directory given with
--config) and STUDIO_* environment variables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return app.ConfigureLogging("studioctl", c.logLevel, "development")
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to configuration directory or file")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "diagnostic log level written to stderr")

	root.AddCommand(c.sessionsCmd(), c.usersCmd(), c.auditCmd())
	return root
}

// withStack opens the database, migrates it and hands a wired auth stack to fn.
func (c *cli) withStack(fn func(cfg *app.Config, stack *app.AuthStack) error) error {
	cfg, err := app.LoadConfigFrom(c.configPath)
	if err != nil {
		return err
	}
	if _, err := app.ApplyRuntimeDefaults(cfg); err != nil {
		return err
	}

	db, err := database.OpenAndMigrate(cfg.Database.ConnectionConfig())
	if err != nil {
		return err
	}
	defer func() { _ = database.Close(db) }()

	stack, err := app.NewAuthStack(db, cfg.Auth, nil)
	if err != nil {
		return err
	}
	return fn(cfg, stack)
}
