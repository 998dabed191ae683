package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/romangod6/lemmy-sitemap/internal/models"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Initialize() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS generation_runs (
            id UUID PRIMARY KEY,
            run_trigger VARCHAR(32) NOT NULL,
            status VARCHAR(32) NOT NULL,
            started_at TIMESTAMPTZ NOT NULL,
            finished_at TIMESTAMPTZ,
            posts_fetched INTEGER NOT NULL DEFAULT 0,
            communities_fetched INTEGER NOT NULL DEFAULT 0,
            posts_indexed INTEGER NOT NULL DEFAULT 0,
            sitemap_files INTEGER NOT NULL DEFAULT 0,
            errors TEXT[]
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

func (s *PostgresStore) CreateRun(ctx context.Context, run *models.GenerationRun) error {
	query := `
        INSERT INTO generation_runs (id, run_trigger, status, started_at, finished_at,
            posts_fetched, communities_fetched, posts_indexed, sitemap_files, errors)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `

	_, err := s.db.ExecContext(ctx, query,
		run.ID,
		run.Trigger,
		run.Status,
		run.StartedAt,
		nullTime(run.FinishedAt),
		run.PostsFetched,
		run.CommunitiesFetched,
		run.PostsIndexed,
		run.SitemapFiles,
		pq.Array(run.Errors),
	)

	return err
}

func (s *PostgresStore) UpdateRun(ctx context.Context, run *models.GenerationRun) error {
	query := `
        UPDATE generation_runs SET
            status = $1,
            finished_at = $2,
            posts_fetched = $3,
            communities_fetched = $4,
            posts_indexed = $5,
            sitemap_files = $6,
            errors = $7
        WHERE id = $8
    `

	res, err := s.db.ExecContext(ctx, query,
		run.Status,
		nullTime(run.FinishedAt),
		run.PostsFetched,
		run.CommunitiesFetched,
		run.PostsIndexed,
		run.SitemapFiles,
		pq.Array(run.Errors),
		run.ID,
	)
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, id uuid.UUID) (*models.GenerationRun, error) {
	query := `
        SELECT id, run_trigger, status, started_at, finished_at, posts_fetched,
            communities_fetched, posts_indexed, sitemap_files, errors
        FROM generation_runs
        WHERE id = $1
    `

	run, err := scanRun(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit, offset int) ([]*models.GenerationRun, error) {
	query := `
        SELECT id, run_trigger, status, started_at, finished_at, posts_fetched,
            communities_fetched, posts_indexed, sitemap_files, errors
        FROM generation_runs
        ORDER BY started_at DESC
        LIMIT $1 OFFSET $2
    `

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.GenerationRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*models.GenerationRun, error) {
	run := &models.GenerationRun{}
	var finishedAt sql.NullTime
	var errs []string

	err := row.Scan(
		&run.ID,
		&run.Trigger,
		&run.Status,
		&run.StartedAt,
		&finishedAt,
		&run.PostsFetched,
		&run.CommunitiesFetched,
		&run.PostsIndexed,
		&run.SitemapFiles,
		pq.Array(&errs),
	)
	if err != nil {
		return nil, err
	}

	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	run.Errors = errs
	return run, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
