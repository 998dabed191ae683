package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/romangod6/lemmy-sitemap/internal/generator"
	"github.com/romangod6/lemmy-sitemap/internal/logfields"
	"github.com/romangod6/lemmy-sitemap/internal/models"
	"github.com/romangod6/lemmy-sitemap/internal/storage"
)

// Generator is the part of generator.Generator the API needs.
type Generator interface {
	Start(ctx context.Context, trigger string) error
	Running() bool
}

type Handler struct {
	generator Generator
	store     storage.Store
	logger    *slog.Logger
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type PaginationResponse struct {
	Data  interface{} `json:"data"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

func NewHandler(gen Generator, store storage.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{generator: gen, store: store, logger: logger}
}

// StartGeneration triggers a run in the background.
func (h *Handler) StartGeneration(c *gin.Context) {
	err := h.generator.Start(context.Background(), models.TriggerAPI)
	if errors.Is(err, generator.ErrAlreadyRunning) {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Sitemap generation already running"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to start on-demand generation", logfields.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to start generation"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

func (h *Handler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"running": h.generator.Running()})
}

func (h *Handler) ListRuns(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Run history is disabled"})
		return
	}

	page, limit := getPaginationParams(c)
	offset := (page - 1) * limit

	runs, err := h.store.ListRuns(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch runs"})
		return
	}
	if runs == nil {
		runs = []*models.GenerationRun{}
	}

	c.JSON(http.StatusOK, PaginationResponse{
		Data:  runs,
		Page:  page,
		Limit: limit,
	})
}

func (h *Handler) GetRun(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Run history is disabled"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid run ID"})
		return
	}

	run, err := h.store.GetRun(c.Request.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Run not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch run"})
		return
	}

	c.JSON(http.StatusOK, run)
}

func getPaginationParams(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "10"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	return page, limit
}
