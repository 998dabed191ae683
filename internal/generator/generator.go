// Package generator runs the sitemap pipeline: fetch posts, fetch
// communities, render and write the sitemap files.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/romangod6/lemmy-sitemap/internal/lemmy"
	"github.com/romangod6/lemmy-sitemap/internal/logfields"
	"github.com/romangod6/lemmy-sitemap/internal/metrics"
	"github.com/romangod6/lemmy-sitemap/internal/models"
	"github.com/romangod6/lemmy-sitemap/internal/sitemap"
	"github.com/romangod6/lemmy-sitemap/internal/storage"
)

// ErrAlreadyRunning is returned when a run is requested while another one
// is still in flight.
var ErrAlreadyRunning = errors.New("sitemap generation already running")

type Fetcher interface {
	FetchAllPosts(ctx context.Context) []models.Post
	FetchAllCommunities(ctx context.Context) []models.Community
}

type Renderer interface {
	Render(posts []models.Post, communities []models.Community, outputRoot string) (*sitemap.Result, error)
}

type Options struct {
	Fetcher    Fetcher
	Renderer   Renderer
	OutputRoot string
	// Store is optional; without it runs are not recorded.
	Store   storage.Store
	Metrics *metrics.Recorder
	Logger  *slog.Logger
}

type Generator struct {
	fetcher    Fetcher
	renderer   Renderer
	outputRoot string
	store      storage.Store
	metrics    *metrics.Recorder
	logger     *slog.Logger

	mu sync.Mutex // held for the duration of a run

	currentMu sync.Mutex
	current   *models.GenerationRun
}

func New(opts Options) *Generator {
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewRecorder(nil)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Generator{
		fetcher:    opts.Fetcher,
		renderer:   opts.Renderer,
		outputRoot: opts.OutputRoot,
		store:      opts.Store,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
	}
}

// Running reports whether a run is in flight.
func (g *Generator) Running() bool {
	g.currentMu.Lock()
	defer g.currentMu.Unlock()
	return g.current != nil
}

// RecordFetchFailure notes a degraded fetch on the current run. It is meant
// to be used as lemmy.ClientConfig.OnFailure.
func (g *Generator) RecordFetchFailure(resource string, err error) {
	g.metrics.IncFetchFailure(resource)

	g.currentMu.Lock()
	defer g.currentMu.Unlock()
	if g.current != nil {
		g.current.Errors = append(g.current.Errors, err.Error())
	}
}

// Generate performs one full rebuild. Fetch failures degrade the output but
// do not fail the run; a filesystem failure does and is returned. A context
// canceled before rendering aborts the run and leaves existing files alone.
func (g *Generator) Generate(ctx context.Context, trigger string) (*models.GenerationRun, error) {
	run, err := g.reserve(trigger)
	if err != nil {
		return nil, err
	}
	return g.execute(ctx, run)
}

// Start reserves the generator and runs in the background. It returns
// ErrAlreadyRunning without starting anything when a run is in flight.
func (g *Generator) Start(ctx context.Context, trigger string) error {
	run, err := g.reserve(trigger)
	if err != nil {
		return err
	}
	go g.execute(ctx, run)
	return nil
}

func (g *Generator) reserve(trigger string) (*models.GenerationRun, error) {
	if !g.mu.TryLock() {
		return nil, ErrAlreadyRunning
	}
	run := models.NewGenerationRun(trigger)
	g.setCurrent(run)
	return run, nil
}

func (g *Generator) execute(ctx context.Context, run *models.GenerationRun) (*models.GenerationRun, error) {
	defer g.mu.Unlock()
	defer g.setCurrent(nil)

	logger := g.logger.With(logfields.RunID(run.ID.String()), logfields.Trigger(run.Trigger))
	logger.Info("Starting sitemap generation")
	g.saveRun(context.WithoutCancel(ctx), logger, run, true)

	var (
		result      *sitemap.Result
		communities []models.Community
		err         error
	)

	posts := g.fetcher.FetchAllPosts(ctx)
	logger.Info("Fetched posts", logfields.Count(len(posts)))
	g.metrics.SetFetched(lemmy.ResourcePosts, len(posts))

	if err = ctx.Err(); err == nil {
		communities = g.fetcher.FetchAllCommunities(ctx)
		logger.Info("Fetched communities", logfields.Count(len(communities)))
		g.metrics.SetFetched(lemmy.ResourceCommunities, len(communities))
		err = ctx.Err()
	}

	if err != nil {
		err = fmt.Errorf("generation canceled before rendering: %w", err)
	} else {
		result, err = g.renderer.Render(posts, communities, g.outputRoot)
		if err != nil {
			err = fmt.Errorf("failed to render sitemaps: %w", err)
		}
	}

	g.currentMu.Lock()
	run.PostsFetched = len(posts)
	run.CommunitiesFetched = len(communities)
	if result != nil {
		run.PostsIndexed = result.PostsIndexed
		run.SitemapFiles = len(result.Files)
	}
	run.Finish(err)
	g.currentMu.Unlock()

	duration := run.FinishedAt.Sub(run.StartedAt)
	g.metrics.ObserveRun(run.Status, duration)

	if err != nil {
		logger.Error("Sitemap generation failed",
			logfields.DurationMS(float64(duration.Milliseconds())),
			logfields.Error(err))
	} else {
		g.metrics.SetSitemapFiles(run.SitemapFiles, *run.FinishedAt)
		logger.Info("Sitemap generation completed",
			slog.Int("posts_indexed", run.PostsIndexed),
			slog.Int("files", run.SitemapFiles),
			logfields.DurationMS(float64(duration.Milliseconds())))
	}

	g.saveRun(context.WithoutCancel(ctx), logger, run, false)
	return run, err
}

func (g *Generator) setCurrent(run *models.GenerationRun) {
	g.currentMu.Lock()
	defer g.currentMu.Unlock()
	g.current = run
}

// saveRun records the run; history is best effort and never fails a run.
func (g *Generator) saveRun(ctx context.Context, logger *slog.Logger, run *models.GenerationRun, create bool) {
	if g.store == nil {
		return
	}

	g.currentMu.Lock()
	snapshot := *run
	snapshot.Errors = append([]string(nil), run.Errors...)
	g.currentMu.Unlock()

	var err error
	if create {
		err = g.store.CreateRun(ctx, &snapshot)
	} else {
		err = g.store.UpdateRun(ctx, &snapshot)
	}
	if err != nil {
		logger.Error("Failed to record generation run", logfields.Error(err))
	}
}
