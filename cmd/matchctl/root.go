package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"venuematch/internal/config"
	"venuematch/internal/logger"
	"venuematch/internal/repository"
)

type rootOptions struct {
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "matchctl",
		Short:         "Operate the venue match engine",
		Long:          "matchctl runs schema migrations, one-off matches, and station lookups against the venue catalog.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error, none")

	cmd.AddCommand(
		newMigrateCmd(opts),
		newImportCmd(),
		newMatchCmd(opts),
		newStationsCmd(opts),
	)
	return cmd
}

func (o *rootOptions) logger() (*zap.Logger, error) {
	return logger.NewLogger("text", o.logLevel)
}

// openPostgres connects using the same environment as the server
func openPostgres() (*repository.PostgresRepository, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	repo, err := repository.NewPostgresRepository(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
		cfg.PostgreSQL.ConnectTimeout,
	)
	if err != nil {
		return nil, nil, err
	}
	return repo, cfg, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
