package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/romangod6/lemmy-sitemap/config"
	"github.com/romangod6/lemmy-sitemap/internal/models"
	"github.com/romangod6/lemmy-sitemap/internal/storage"
)

var (
	runsLimit int
)

func initRunsCommand() *cobra.Command {
	runsCommand := &cobra.Command{
		Use:   "runs",
		Short: "Lists recorded generation runs, newest first",
		RunE:  runRunsCommand,
	}

	runsCommand.Flags().IntVar(&runsLimit, "limit", 10, "Number of runs to show")
	return runsCommand
}

func runRunsCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := storage.NewStore(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("run history is disabled: database.driver is empty")
	}
	defer store.Close()

	runs, err := store.ListRuns(cmd.Context(), runsLimit, 0)
	if err != nil {
		return err
	}

	printRuns(cmd.OutOrStdout(), runs)
	return nil
}

func printRuns(w io.Writer, runs []*models.GenerationRun) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded")
		return
	}
	for _, run := range runs {
		duration := "-"
		if run.FinishedAt != nil {
			duration = run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
		}
		fmt.Fprintf(w, "%s  %s  %-9s %-8s %s  posts=%d indexed=%d communities=%d files=%d\n",
			run.ID, run.StartedAt.Local().Format(time.DateTime), run.Status, run.Trigger, duration,
			run.PostsFetched, run.PostsIndexed, run.CommunitiesFetched, run.SitemapFiles)
		if len(run.Errors) > 0 {
			fmt.Fprintf(w, "    errors: %s\n", strings.Join(run.Errors, "; "))
		}
	}
}
