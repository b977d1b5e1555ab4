package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"venuematch/internal/repository"
)

func newImportCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load venues from a JSON file into PostgreSQL",
		RunE: func(cmd *cobra.Command, args []string) error {
			venues, err := repository.LoadVenuesFile(file)
			if err != nil {
				return err
			}

			repo, _, err := openPostgres()
			if err != nil {
				return err
			}
			defer repo.Close()

			if err := repo.UpsertVenues(cmd.Context(), venues); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d venues\n", len(venues))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON array of venues")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
