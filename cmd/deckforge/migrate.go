package main

import (
	"fmt"

	"github.com/phrazzld/deckforge/internal/platform/migrate"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate up|down|status",
		Short: "Manage the database schema",
		Long: `Apply, roll back or inspect the schema migrations of the configured
postgres or sqlite database.

  up      apply every pending migration
  down    roll back the most recent migration
  status  list migrations and when they were applied`,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{migrate.CommandUp, migrate.CommandDown, migrate.CommandStatus},
		RunE:      runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	db, err := openDatabase(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if db == nil {
		return errNoMigrations
	}

	migrator, err := newMigrator(cfg.Database.Driver, db, logger)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer func() {
		if err := migrator.Close(); err != nil {
			logger.Error("error closing database connection", "error", err)
		}
	}()

	logger.Info("running migrations", "command", args[0], "driver", cfg.Database.Driver)
	if err := migrator.Run(ctx, args[0], cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("migrate %s failed: %w", args[0], err)
	}
	return nil
}
