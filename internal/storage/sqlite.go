package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/romangod6/lemmy-sitemap/internal/models"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Initialize() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS generation_runs (
            id TEXT PRIMARY KEY,
            run_trigger TEXT NOT NULL,
            status TEXT NOT NULL,
            started_at DATETIME NOT NULL,
            finished_at DATETIME,
            posts_fetched INTEGER NOT NULL DEFAULT 0,
            communities_fetched INTEGER NOT NULL DEFAULT 0,
            posts_indexed INTEGER NOT NULL DEFAULT 0,
            sitemap_files INTEGER NOT NULL DEFAULT 0,
            errors TEXT
        )`,
		`CREATE INDEX IF NOT EXISTS idx_generation_runs_started_at ON generation_runs(started_at)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}

	return nil
}

func (s *SQLiteStore) CreateRun(ctx context.Context, run *models.GenerationRun) error {
	query := `
        INSERT INTO generation_runs (id, run_trigger, status, started_at, finished_at,
            posts_fetched, communities_fetched, posts_indexed, sitemap_files, errors)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `

	errorsJSON, err := json.Marshal(run.Errors)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, query,
		run.ID.String(),
		run.Trigger,
		run.Status,
		run.StartedAt,
		nullTime(run.FinishedAt),
		run.PostsFetched,
		run.CommunitiesFetched,
		run.PostsIndexed,
		run.SitemapFiles,
		string(errorsJSON),
	)

	return err
}

func (s *SQLiteStore) UpdateRun(ctx context.Context, run *models.GenerationRun) error {
	query := `
        UPDATE generation_runs SET
            status = ?,
            finished_at = ?,
            posts_fetched = ?,
            communities_fetched = ?,
            posts_indexed = ?,
            sitemap_files = ?,
            errors = ?
        WHERE id = ?
    `

	errorsJSON, err := json.Marshal(run.Errors)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, query,
		run.Status,
		nullTime(run.FinishedAt),
		run.PostsFetched,
		run.CommunitiesFetched,
		run.PostsIndexed,
		run.SitemapFiles,
		string(errorsJSON),
		run.ID.String(),
	)
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, id uuid.UUID) (*models.GenerationRun, error) {
	runs, err := s.queryRuns(ctx, `
        SELECT id, run_trigger, status, started_at, finished_at, posts_fetched,
            communities_fetched, posts_indexed, sitemap_files, errors
        FROM generation_runs
        WHERE id = ?
    `, id.String())
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrNotFound
	}
	return runs[0], nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit, offset int) ([]*models.GenerationRun, error) {
	return s.queryRuns(ctx, `
        SELECT id, run_trigger, status, started_at, finished_at, posts_fetched,
            communities_fetched, posts_indexed, sitemap_files, errors
        FROM generation_runs
        ORDER BY started_at DESC
        LIMIT ? OFFSET ?
    `, limit, offset)
}

func (s *SQLiteStore) queryRuns(ctx context.Context, query string, args ...interface{}) ([]*models.GenerationRun, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.GenerationRun
	for rows.Next() {
		var run models.GenerationRun
		var idStr string
		var finishedAt sql.NullTime
		var errorsJSON sql.NullString

		err := rows.Scan(
			&idStr,
			&run.Trigger,
			&run.Status,
			&run.StartedAt,
			&finishedAt,
			&run.PostsFetched,
			&run.CommunitiesFetched,
			&run.PostsIndexed,
			&run.SitemapFiles,
			&errorsJSON,
		)
		if err != nil {
			return nil, err
		}

		run.ID, err = uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("invalid run id %q: %w", idStr, err)
		}
		if finishedAt.Valid {
			t := finishedAt.Time
			run.FinishedAt = &t
		}
		if errorsJSON.Valid && errorsJSON.String != "" {
			if err := json.Unmarshal([]byte(errorsJSON.String), &run.Errors); err != nil {
				return nil, fmt.Errorf("invalid errors for run %s: %w", idStr, err)
			}
		}

		runs = append(runs, &run)
	}

	return runs, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// nullTime maps a missing time to NULL.
func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
