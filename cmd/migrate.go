package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SiGentIsHere/Weblink-Shield/internal/database"
)

func newMigrateCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:       "migrate <up|down>",
		Short:     "Apply or roll back database migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{database.MigrateUp, database.MigrateDown},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadRuntime()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if !cfg.Database.Enabled {
				return errors.New("database is disabled; set database.enabled to run migrations")
			}

			if err = database.RunMigrations(cfg.Database.URL(), dir, args[0], log); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Migration %s completed successfully\n", args[0])
			return err
		},
	}

	cmd.Flags().StringVar(&dir, "dir", database.DefaultMigrationsDir, "migrations directory")
	return cmd
}
