package scheduler

import (
	"fmt"
	"log/slog"

	"github.com/go-co-op/gocron/v2"

	"github.com/romangod6/lemmy-sitemap/internal/logfields"
)

// Scheduler wraps a gocron scheduler running periodic generation jobs.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
}

// New creates a scheduler instance. It does nothing until Start.
func New(logger *slog.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		scheduler: s,
		logger:    logger,
	}, nil
}

// ScheduleCron runs task on a five-field cron expression. A tick that fires
// while the previous run is still going is skipped.
// Returns the job ID for later management.
func (s *Scheduler) ScheduleCron(name, expr string, task func()) (string, error) {
	job, err := s.scheduler.NewJob(
		gocron.CronJob(expr, false),
		gocron.NewTask(func() {
			s.logger.Info("Scheduled job started", slog.String("job", name))
			task()
		}),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return "", fmt.Errorf("failed to schedule %s with %q: %w", name, expr, err)
	}

	return job.ID().String(), nil
}

// RunNow triggers every registered job immediately.
func (s *Scheduler) RunNow() {
	for _, job := range s.scheduler.Jobs() {
		if err := job.RunNow(); err != nil {
			s.logger.Error("Failed to run job", slog.String("job", job.Name()), logfields.Error(err))
		}
	}
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() error {
	s.logger.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}
