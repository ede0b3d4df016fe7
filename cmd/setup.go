package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/desertthunder/pixtape/internal/repositories"
	"github.com/desertthunder/pixtape/internal/shared"
	"github.com/gorilla/securecookie"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example configuration to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", configPath)

	r.writePlain("✓ Configuration written to %s\n", configPath)
	if cmd.Bool("keys") {
		r.writePlain("\nAdd these to [session] to keep users logged in across restarts:\n")
		r.writePlain("hash_key = %q\n", hex.EncodeToString(securecookie.GenerateRandomKey(64)))
		r.writePlain("block_key = %q\n", hex.EncodeToString(securecookie.GenerateRandomKey(32)))
	}
	r.writePlain("\nNext steps:\n")
	r.writePlain("1. Fill in [credentials] or set PIXTAPE_* variables in .env\n")
	r.writePlain("2. Run 'pixtape serve --open'\n")
	return nil
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase(ctx, cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return r.writePlain("✓ Database ready at %s\n", r.config.Database.Path)
}

// RollbackDatabase reverts the most recent migration.
func (r *Runner) RollbackDatabase(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase(ctx, cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := shared.RollbackMigration(ctx, db); err != nil {
		return err
	}
	r.logger.Info("rolled back latest migration", "path", r.config.Database.Path)
	return nil
}

// PruneSessions deletes stale sessions from the SQLite store.
func (r *Runner) PruneSessions(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase(ctx, cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	age := cmd.Duration("older-than")
	if age <= 0 {
		return fmt.Errorf("%w: --older-than must be positive", shared.ErrInvalidInput)
	}

	n, err := repositories.NewSessionRepository(db).Prune(ctx, time.Now().Add(-age))
	if err != nil {
		return err
	}
	r.logger.Info("pruned sessions", "count", n, "older_than", age)
	return r.writePlain("Removed %d session(s)\n", n)
}
