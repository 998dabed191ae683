package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/romangod6/lemmy-sitemap/internal/api"
	"github.com/romangod6/lemmy-sitemap/internal/generator"
	"github.com/romangod6/lemmy-sitemap/internal/logfields"
	"github.com/romangod6/lemmy-sitemap/internal/models"
	"github.com/romangod6/lemmy-sitemap/internal/scheduler"
)

func initServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Regenerates sitemaps on a schedule and serves the HTTP API",
		RunE:  runServeCommand,
	}
}

func runServeCommand(cmd *cobra.Command, args []string) error {
	a, err := loadApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	logger := a.logger.Logger
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sched, err := scheduler.New(logger)
	if err != nil {
		return err
	}

	task := func() {
		_, err := a.generator.Generate(ctx, models.TriggerSchedule)
		if errors.Is(err, generator.ErrAlreadyRunning) {
			logger.Warn("Scheduled generation skipped, another run is in flight")
		}
	}
	if _, err := sched.ScheduleCron("sitemap", a.config.Scheduler.Cron, task); err != nil {
		return err
	}
	sched.Start()
	if a.config.Scheduler.RunOnStart {
		sched.RunNow()
	}

	server := api.NewServer(api.ServerOptions{
		Port:       a.config.Server.Port,
		OutputRoot: a.config.Sitemap.Location,
		Generator:  a.generator,
		Store:      a.store,
		Metrics:    a.metrics,
		Logger:     logger,
	})

	go func() {
		logger.Info("Starting API server", slog.Int("port", a.config.Server.Port))
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("API server stopped", logfields.Error(err))
			cancel()
		}
	}()

	waitForShutdown(ctx, cancel, logger, sched, server)
	return nil
}

func waitForShutdown(ctx context.Context, cancel context.CancelFunc, logger *slog.Logger, sched *scheduler.Scheduler, server *api.Server) {
	// Handle system signals for shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-sigChan:
	case <-ctx.Done():
	}
	logger.Info("Shutting down...")
	cancel()

	if err := sched.Stop(); err != nil {
		logger.Error("Error stopping scheduler", logfields.Error(err))
	}

	// Graceful server shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down server", logfields.Error(err))
	}
	logger.Info("Server shut down gracefully")
}
