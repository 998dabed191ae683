package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/romangod6/lemmy-sitemap/internal/models"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("not found")

// Store keeps the history of sitemap generation runs.
type Store interface {
	Initialize() error
	Close() error

	CreateRun(ctx context.Context, run *models.GenerationRun) error
	UpdateRun(ctx context.Context, run *models.GenerationRun) error
	GetRun(ctx context.Context, id uuid.UUID) (*models.GenerationRun, error)
	ListRuns(ctx context.Context, limit, offset int) ([]*models.GenerationRun, error)
}

// NewStore opens and initializes the store for driver. An empty driver
// returns a nil Store, which disables run history.
func NewStore(driver, url string) (Store, error) {
	var (
		store Store
		err   error
	)

	switch driver {
	case "":
		return nil, nil
	case "sqlite3", "sqlite":
		store, err = NewSQLiteStore(url)
	case "postgres", "postgresql":
		store, err = NewPostgresStore(url)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", driver, err)
	}

	if err := store.Initialize(); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize %s store: %w", driver, err)
	}
	return store, nil
}
