package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/foxhole/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes the example config if none exists, then creates the storage directory and
// migrates the database.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	path := r.configPath
	if path == "" {
		path = shared.ExpandPath(cmd.String("config"))
	}

	if _, err := os.Stat(path); err == nil {
		r.logger.Info("using existing config", "path", path)
	} else {
		r.logger.Info("config file not found, creating from template", "path", path)
		if err := shared.CreateConfigFile(path); err != nil {
			return err
		}
		config, err := shared.LoadConfig(path)
		if err != nil {
			return err
		}
		r.config = config
	}

	dir := r.config.StorageDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: failed to create storage directory: %v", shared.ErrStorage, err)
	}
	r.logger.Info("storage directory ready", "path", dir)

	db, err := r.database()
	if err != nil {
		return err
	}
	if cmd.Bool("rollback") {
		if err := shared.RollbackMigration(db); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrStorage, err)
		}
		r.logger.Info("rolled back latest migration", "path", r.config.Database.Path)
		return r.writePlain("Rolled back the latest database migration\n")
	}
	r.logger.Info("database ready", "path", r.config.Database.Path)

	return r.writePlain("Setup complete. Next: 'foxhole auth set-credentials --file <client_secret.json>'\n")
}
