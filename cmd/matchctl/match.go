package main

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"venuematch/internal/repository"
	"venuematch/internal/service"
)

type matchOptions struct {
	catalogFile string
	constraints map[string]string
	seed        int64
	plan        bool
}

func newMatchCmd(root *rootOptions) *cobra.Command {
	opts := &matchOptions{}

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Run one match and print the result as JSON",
		Example: `  matchctl match --catalog-file venues.json --set station=Gangnam --set food_type=korean,chinese
  matchctl match --set station=Hongdae --set kind=bar --plan`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatch(cmd, root, opts)
		},
	}
	cmd.Flags().StringVar(&opts.catalogFile, "catalog-file", "", "Read venues from a JSON file instead of PostgreSQL")
	cmd.Flags().StringToStringVar(&opts.constraints, "set", nil, "Constraint key=value (repeatable)")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "Shuffle seed (0 uses the clock)")
	cmd.Flags().BoolVar(&opts.plan, "plan", false, "Print the relaxation tiers without querying")
	return cmd
}

func runMatch(cmd *cobra.Command, root *rootOptions, opts *matchOptions) error {
	if len(opts.constraints) == 0 {
		return errors.New("at least one --set key=value is required")
	}

	log, err := root.logger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	svc, closeFn, err := openService(opts.catalogFile, service.MatchOptions{Seed: opts.seed}, log)
	if err != nil {
		return err
	}
	defer closeFn()

	if opts.plan {
		tiers, err := svc.Plan(opts.constraints)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), tiers)
	}

	result, err := svc.Match(cmd.Context(), opts.constraints)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), result)
}

// openService builds a match service over a venue file, or over PostgreSQL when path is empty
func openService(path string, opts service.MatchOptions, log *zap.Logger) (*service.MatchService, func(), error) {
	if path != "" {
		venues, err := repository.LoadVenuesFile(path)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewMemoryRepository(venues)
		svc := service.NewMatchService(repo, repo, repo, opts, log)
		return svc, svc.Close, nil
	}

	repo, cfg, err := openPostgres()
	if err != nil {
		return nil, nil, err
	}
	if opts.Seed == 0 {
		opts.Seed = cfg.Match.Seed
	}
	opts.LookupTimeout = cfg.Match.LookupTimeout
	opts.RecordTimeout = cfg.Match.RecordTimeout
	svc := service.NewMatchService(repo, repo, repo, opts, log)
	return svc, func() {
		svc.Close()
		repo.Close()
	}, nil
}
