package main

import (
	"github.com/spf13/cobra"

	"venuematch/internal/service"
)

func newStationsCmd(root *rootOptions) *cobra.Command {
	var (
		catalogFile string
		kind        string
		prefix      string
		drinks      string
		quadrants   string
	)

	cmd := &cobra.Command{
		Use:   "stations",
		Short: "List stations, or the drink types served around one",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := root.logger()
			if err != nil {
				return err
			}

			svc, closeFn, err := openService(catalogFile, service.MatchOptions{}, log)
			if err != nil {
				return err
			}
			defer closeFn()

			if drinks != "" {
				types, err := svc.StationDrinkTypes(cmd.Context(), drinks, quadrants)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{"station": drinks, "drink_types": types})
			}

			stations, err := svc.Stations(cmd.Context(), kind, prefix)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"stations": stations})
		},
	}
	cmd.Flags().StringVar(&catalogFile, "catalog-file", "", "Read venues from a JSON file instead of PostgreSQL")
	cmd.Flags().StringVar(&kind, "kind", "", "Venue kind: restaurant or bar")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Station name prefix")
	cmd.Flags().StringVar(&drinks, "drink-types", "", "Show drink types served around this station")
	cmd.Flags().StringVar(&quadrants, "quadrants", "", "Exit quadrants for --drink-types, comma separated")
	return cmd
}
