package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/romangod6/lemmy-sitemap/config"
	"github.com/romangod6/lemmy-sitemap/internal/checker"
	"github.com/romangod6/lemmy-sitemap/internal/utils"
)

var (
	samples    int
	jsonOutput bool
)

func initCheckCommand() *cobra.Command {
	checkCommand := &cobra.Command{
		Use:   "check",
		Short: "Visits a sample of URLs from the generated sitemaps",
		RunE:  runCheckCommand,
	}

	checkCommand.Flags().IntVar(&samples, "samples", 0, "URLs to visit per sitemap (defaults to checker.samples)")
	checkCommand.Flags().BoolVar(&jsonOutput, "json", false, "Print the report as JSON")
	return checkCommand
}

func runCheckCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := utils.NewLogger(cfg.Log.Level, cfg.Log.Dir)
	if err != nil {
		return err
	}
	defer logger.Close()

	n := cfg.Checker.Samples
	if samples > 0 {
		n = samples
	}

	c := checker.New(checker.Config{
		OutputRoot: cfg.Sitemap.Location,
		URLPrefix:  cfg.Lemmy.URLPrefix,
		Samples:    n,
		UserAgent:  cfg.Checker.UserAgent,
		Timeout:    cfg.GetTimeout(),
	}, logger.Logger)

	report, err := c.Check(cmd.Context())
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		printReport(cmd.OutOrStdout(), report)
	}

	if failed := report.Failed(); failed > 0 {
		return fmt.Errorf("%d of %d sampled URLs failed", failed, len(report.Pages))
	}
	return nil
}

func printReport(w io.Writer, report *checker.Report) {
	fmt.Fprintf(w, "Sitemaps checked: %d (%d URLs)\n", report.Sitemaps, report.URLs)
	for _, loc := range report.Missing {
		fmt.Fprintf(w, "Not available locally: %s\n", loc)
	}
	for _, p := range report.Pages {
		status := "OK"
		if !p.OK() {
			status = "FAIL"
		}
		fmt.Fprintf(w, "[%s] %d %s\n", status, p.StatusCode, p.URL)
		if p.Title != "" {
			fmt.Fprintf(w, "    title: %s\n", p.Title)
		}
		if p.Canonical != "" && p.Canonical != p.URL {
			fmt.Fprintf(w, "    canonical: %s\n", p.Canonical)
		}
		if p.Error != "" {
			fmt.Fprintf(w, "    error: %s\n", p.Error)
		}
	}
}
