// Package cli wires configuration, storage and the generator into the
// sitemapgen commands.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/romangod6/lemmy-sitemap/config"
	"github.com/romangod6/lemmy-sitemap/internal/generator"
	"github.com/romangod6/lemmy-sitemap/internal/lemmy"
	"github.com/romangod6/lemmy-sitemap/internal/metrics"
	"github.com/romangod6/lemmy-sitemap/internal/sitemap"
	"github.com/romangod6/lemmy-sitemap/internal/storage"
	"github.com/romangod6/lemmy-sitemap/internal/utils"
)

var (
	configPath string
)

func NewCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sitemapgen",
		Short:         "Lemmy sitemap generator",
		Long:          "Builds sitemap.xml files for a Lemmy instance from its public API",
		Example:       fmt.Sprintf("  %s <command> [flags...]", os.Args[0]),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")

	rootCmd.AddCommand(initGenerateCommand())
	rootCmd.AddCommand(initServeCommand())
	rootCmd.AddCommand(initCheckCommand())
	rootCmd.AddCommand(initRunsCommand())

	return rootCmd
}

// app holds everything a command needs after bootstrap.
type app struct {
	config    *config.Config
	logger    *utils.Logger
	store     storage.Store
	metrics   *metrics.Recorder
	generator *generator.Generator
}

func loadApp(withStore bool) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := utils.NewLogger(cfg.Log.Level, cfg.Log.Dir)
	if err != nil {
		return nil, err
	}

	a := &app{
		config:  cfg,
		logger:  logger,
		metrics: metrics.NewRecorder(nil),
	}

	if withStore {
		store, err := storage.NewStore(cfg.Database.Driver, cfg.Database.URL)
		if err != nil {
			logger.Close()
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		a.store = store
	}

	var gen *generator.Generator
	client := lemmy.NewClient(lemmy.ClientConfig{
		APIURL:    cfg.Lemmy.APIURL,
		URLPrefix: cfg.Lemmy.URLPrefix,
		PageLimit: cfg.Lemmy.PageLimit,
		MaxPages:  cfg.Lemmy.MaxPages,
		Timeout:   cfg.GetTimeout(),
		UserAgent: cfg.Lemmy.UserAgent,
		OnFailure: func(resource string, err error) {
			gen.RecordFetchFailure(resource, err)
		},
	}, logger.Logger)

	gen = generator.New(generator.Options{
		Fetcher:    client,
		Renderer:   sitemap.NewRenderer(cfg.Lemmy.URLPrefix, time.Now),
		OutputRoot: cfg.Sitemap.Location,
		Store:      a.store,
		Metrics:    a.metrics,
		Logger:     logger.Logger,
	})
	a.generator = gen

	return a, nil
}

func (a *app) Close() {
	if a.store != nil {
		a.store.Close()
	}
	a.logger.Close()
}
