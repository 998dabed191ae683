package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romangod6/lemmy-sitemap/internal/models"
)

func openTestStore(t *testing.T) Store {
	t.Helper()
	store, err := NewStore("sqlite3", filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoreRunLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	run := models.NewGenerationRun(models.TriggerCLI)
	require.NoError(t, store.CreateRun(ctx, run))

	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, models.RunStatusRunning, got.Status)
	assert.Equal(t, models.TriggerCLI, got.Trigger)
	assert.Nil(t, got.FinishedAt)
	assert.Empty(t, got.Errors)

	run.PostsFetched = 120
	run.CommunitiesFetched = 4
	run.PostsIndexed = 97
	run.SitemapFiles = 6
	run.Finish(errors.New("disk full"))
	require.NoError(t, store.UpdateRun(ctx, run))

	got, err = store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusError, got.Status)
	assert.Equal(t, 120, got.PostsFetched)
	assert.Equal(t, 4, got.CommunitiesFetched)
	assert.Equal(t, 97, got.PostsIndexed)
	assert.Equal(t, 6, got.SitemapFiles)
	assert.Equal(t, []string{"disk full"}, got.Errors)
	require.NotNil(t, got.FinishedAt)
	assert.WithinDuration(t, *run.FinishedAt, *got.FinishedAt, time.Second)
}

func TestSQLiteStoreListRunsNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		run := models.NewGenerationRun(models.TriggerSchedule)
		run.StartedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, store.CreateRun(ctx, run))
		ids = append(ids, run.ID)
	}

	runs, err := store.ListRuns(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)

	runs, err = store.ListRuns(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, ids[0], runs[0].ID)
}

func TestSQLiteStoreNotFound(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.GetRun(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.UpdateRun(ctx, models.NewGenerationRun(models.TriggerAPI))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewStoreDrivers(t *testing.T) {
	store, err := NewStore("", "ignored")
	require.NoError(t, err)
	assert.Nil(t, store)

	_, err = NewStore("mongodb", "ignored")
	require.Error(t, err)
}
