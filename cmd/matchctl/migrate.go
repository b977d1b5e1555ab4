package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"venuematch/internal/logger"
	"venuematch/internal/migrations"
)

func newMigrateCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the catalog schema",
	}

	var version int64
	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := root.logger()
			if err != nil {
				return err
			}
			repo, _, err := openPostgres()
			if err != nil {
				return err
			}
			defer repo.Close()

			if version > 0 {
				err = migrations.UpTo(cmd.Context(), repo.DB(), version, log)
			} else {
				err = migrations.Up(cmd.Context(), repo.DB(), log)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migration done")
			return nil
		},
	}
	up.Flags().Int64Var(&version, "version", 0, "Migrate up to this version (default: latest)")

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := root.logger()
			if err != nil {
				return err
			}
			repo, _, err := openPostgres()
			if err != nil {
				return err
			}
			defer repo.Close()

			return migrations.Down(cmd.Context(), repo.DB(), log)
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			// goose reports status at info level
			log, err := logger.NewLogger("text", "info")
			if err != nil {
				return err
			}
			repo, _, err := openPostgres()
			if err != nil {
				return err
			}
			defer repo.Close()

			if err := migrations.Status(cmd.Context(), repo.DB(), log); err != nil {
				return err
			}
			current, err := migrations.Version(cmd.Context(), repo.DB())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", current)
			return nil
		},
	}

	cmd.AddCommand(up, down, status)
	return cmd
}
