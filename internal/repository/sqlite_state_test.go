package repository

import (
	"context"
	"testing"
	"time"

	"github.com/MananAlchemy/JiraBridge-sub000/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateRepo_EmptySlotIsNotFound(t *testing.T) {
	repo := NewSQLiteStateRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	_, err := repo.GetCurrent(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStateRepo_SaveAndGetCurrent(t *testing.T) {
	repo := NewSQLiteStateRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	s := testutil.NewTestSession(start,
		testutil.WithTask("PROJ-1", "Fix login", "PROJ"),
		testutil.WithScreenshots("shot-1", "shot-2"),
	)
	s.DurationSeconds = 42
	require.NoError(t, repo.SaveCurrent(ctx, s))

	got, err := repo.GetCurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.True(t, got.StartedAt.Equal(start))
	assert.Nil(t, got.EndedAt)
	assert.Equal(t, 42, got.DurationSeconds)
	assert.True(t, got.Active)
	require.NotNil(t, got.Task)
	assert.Equal(t, "PROJ-1", got.Task.Key)
	assert.Equal(t, "Fix login", got.Task.Summary)
	assert.Equal(t, []string{"shot-1", "shot-2"}, got.ScreenshotIDs)
}

func TestStateRepo_SaveCurrentUpserts(t *testing.T) {
	repo := NewSQLiteStateRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	s := testutil.NewTestSession(start)
	require.NoError(t, repo.SaveCurrent(ctx, s))

	s.DurationSeconds = 60
	s.AppendScreenshot("shot-1")
	require.NoError(t, repo.SaveCurrent(ctx, s))

	got, err := repo.GetCurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, 60, got.DurationSeconds)
	assert.Equal(t, []string{"shot-1"}, got.ScreenshotIDs)
}

func TestStateRepo_SaveFinalizedSession(t *testing.T) {
	repo := NewSQLiteStateRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	s := testutil.NewTestSession(start, testutil.Finalized(125*time.Second))
	require.NoError(t, repo.SaveCurrent(ctx, s))

	got, err := repo.GetCurrent(ctx)
	require.NoError(t, err)
	assert.False(t, got.Active)
	require.NotNil(t, got.EndedAt)
	assert.True(t, got.EndedAt.Equal(start.Add(125*time.Second)))
	assert.Equal(t, 125, got.DurationSeconds)
	assert.Nil(t, got.Task)
}

func TestStateRepo_ClearCurrent(t *testing.T) {
	repo := NewSQLiteStateRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	s := testutil.NewTestSession(time.Now().UTC())
	require.NoError(t, repo.SaveCurrent(ctx, s))
	require.NoError(t, repo.ClearCurrent(ctx))

	_, err := repo.GetCurrent(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	// Clearing an empty slot is a no-op.
	require.NoError(t, repo.ClearCurrent(ctx))
}
