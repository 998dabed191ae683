package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/romangod6/lemmy-sitemap/internal/metrics"
	"github.com/romangod6/lemmy-sitemap/internal/sitemap"
	"github.com/romangod6/lemmy-sitemap/internal/storage"
)

type Server struct {
	router *gin.Engine
	port   int
	server *http.Server
}

type ServerOptions struct {
	Port       int
	OutputRoot string
	Generator  Generator
	Store      storage.Store
	Metrics    *metrics.Recorder
	Logger     *slog.Logger
}

func NewServer(opts ServerOptions) *Server {
	router := gin.New()
	router.Use(gin.Recovery())

	// Setup CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	handler := NewHandler(opts.Generator, opts.Store, opts.Logger)

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "healthy"})
		})

		api.GET("/status", handler.GetStatus)
		api.POST("/generate", handler.StartGeneration)

		runs := api.Group("/runs")
		{
			runs.GET("", handler.ListRuns)
			runs.GET("/:id", handler.GetRun)
		}
	}

	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	// Generated files, so the front-end proxy can pass sitemap requests through.
	if opts.OutputRoot != "" {
		router.StaticFile("/"+sitemap.IndexFile, filepath.Join(opts.OutputRoot, sitemap.IndexFile))
		router.Static("/"+sitemap.Dir, filepath.Join(opts.OutputRoot, sitemap.Dir))
	}

	return &Server{
		router: router,
		port:   opts.Port,
	}
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
