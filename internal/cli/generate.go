package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/romangod6/lemmy-sitemap/internal/models"
)

var (
	noHistory bool
)

func initGenerateCommand() *cobra.Command {
	generateCommand := &cobra.Command{
		Use:   "generate",
		Short: "Fetches posts and communities and writes the sitemap files once",
		RunE:  runGenerateCommand,
	}

	generateCommand.Flags().BoolVar(&noHistory, "no-history", false, "Do not record the run in the database")
	return generateCommand
}

func runGenerateCommand(cmd *cobra.Command, args []string) error {
	a, err := loadApp(!noHistory)
	if err != nil {
		return err
	}
	defer a.Close()

	run, err := a.generator.Generate(cmd.Context(), models.TriggerCLI)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Run %s: %d posts fetched, %d indexed, %d communities, %d files written\n",
		run.ID, run.PostsFetched, run.PostsIndexed, run.CommunitiesFetched, run.SitemapFiles)
	for _, e := range run.Errors {
		fmt.Fprintf(cmd.OutOrStdout(), "  degraded: %s\n", e)
	}
	return nil
}
