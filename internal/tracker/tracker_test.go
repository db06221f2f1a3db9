package tracker

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/MananAlchemy/JiraBridge-sub000/internal/domain"
	"github.com/MananAlchemy/JiraBridge-sub000/internal/repository"
	"github.com/MananAlchemy/JiraBridge-sub000/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var trackerEpoch = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func newTestTracker(t *testing.T) (*Tracker, *testutil.FakeClock, *sql.DB) {
	t.Helper()
	database := testutil.NewTestDB(t)
	clk := testutil.NewFakeClock(trackerEpoch)
	tr := NewTracker(
		repository.NewSQLiteStateRepo(database),
		repository.NewSQLiteDailyRepo(database),
		testutil.NewTestUoW(database),
		clk,
		NoopObserver{},
	)
	return tr, clk, database
}

func TestTracker_StartRejectsSecondSession(t *testing.T) {
	tr, _, _ := newTestTracker(t)
	ctx := context.Background()

	first, err := tr.Start(ctx, nil)
	require.NoError(t, err)

	_, err = tr.Start(ctx, &domain.TaskRef{Key: "PROJ-1", Summary: "x", Project: "P"})
	assert.ErrorIs(t, err, ErrSessionActive)

	// The existing session is unmodified.
	cur := tr.Current()
	require.NotNil(t, cur)
	assert.Equal(t, first.ID, cur.ID)
	assert.Nil(t, cur.Task)
}

func TestTracker_StartRejectsIncompleteTaskRef(t *testing.T) {
	tr, _, _ := newTestTracker(t)
	ctx := context.Background()

	_, err := tr.Start(ctx, &domain.TaskRef{Key: "PROJ-1"})
	assert.ErrorIs(t, err, domain.ErrInvalidTaskRef)
	assert.Nil(t, tr.Current())
}

func TestTracker_StartPersistsImmediately(t *testing.T) {
	tr, _, database := newTestTracker(t)
	ctx := context.Background()

	s, err := tr.Start(ctx, nil)
	require.NoError(t, err)

	persisted, err := repository.NewSQLiteStateRepo(database).GetCurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, s.ID, persisted.ID)
	assert.True(t, persisted.Active)
}

func TestTracker_TickRecomputesDuration(t *testing.T) {
	tr, clk, _ := newTestTracker(t)
	ctx := context.Background()

	assert.Equal(t, 0, tr.Tick(ctx), "tick without a session is a no-op")

	_, err := tr.Start(ctx, nil)
	require.NoError(t, err)

	clk.Advance(3 * time.Second)
	assert.Equal(t, 3, tr.Tick(ctx))
	clk.Advance(time.Second)
	assert.Equal(t, 4, tr.Tick(ctx))
}

func TestTracker_StopFinalizesAndClearsSlot(t *testing.T) {
	tr, clk, database := newTestTracker(t)
	ctx := context.Background()

	_, err := tr.Start(ctx, nil)
	require.NoError(t, err)

	clk.Advance(90 * time.Second)
	done, err := tr.Stop(ctx)
	require.NoError(t, err)
	require.NotNil(t, done)
	assert.False(t, done.Active)
	require.NotNil(t, done.EndedAt)
	assert.Equal(t, 90, done.DurationSeconds)
	assert.Equal(t, int(done.EndedAt.Sub(done.StartedAt).Seconds()), done.DurationSeconds)

	assert.Nil(t, tr.Current())
	_, err = repository.NewSQLiteStateRepo(database).GetCurrent(ctx)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTracker_StopWithNoSessionIsNoop(t *testing.T) {
	tr, _, database := newTestTracker(t)
	ctx := context.Background()

	done, err := tr.Stop(ctx)
	require.NoError(t, err)
	assert.Nil(t, done)

	// No daily aggregate was touched.
	history, err := repository.NewSQLiteDailyRepo(database).History(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestTracker_CancelDiscardsWithoutAggregation(t *testing.T) {
	tr, clk, database := newTestTracker(t)
	ctx := context.Background()

	_, err := tr.Start(ctx, nil)
	require.NoError(t, err)
	clk.Advance(300 * time.Second)

	require.NoError(t, tr.Cancel(ctx))
	assert.Nil(t, tr.Current())

	history, err := repository.NewSQLiteDailyRepo(database).History(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, history, "cancelled time never reaches the daily aggregate")

	// Cancel when idle is a no-op.
	require.NoError(t, tr.Cancel(ctx))
}

func TestTracker_AppendScreenshot(t *testing.T) {
	tr, _, _ := newTestTracker(t)
	ctx := context.Background()

	tr.AppendScreenshot(ctx, "orphan") // no session: dropped

	_, err := tr.Start(ctx, nil)
	require.NoError(t, err)
	tr.AppendScreenshot(ctx, "shot-1")
	tr.AppendScreenshot(ctx, "shot-2")

	cur := tr.Current()
	require.NotNil(t, cur)
	assert.Equal(t, []string{"shot-1", "shot-2"}, cur.ScreenshotIDs)
}

func TestTracker_CurrentReturnsSnapshot(t *testing.T) {
	tr, _, _ := newTestTracker(t)
	ctx := context.Background()

	_, err := tr.Start(ctx, &domain.TaskRef{Key: "PROJ-1", Summary: "x", Project: "P"})
	require.NoError(t, err)

	snap := tr.Current()
	snap.ScreenshotIDs = append(snap.ScreenshotIDs, "mutated")
	snap.Task.Key = "HACKED"

	cur := tr.Current()
	assert.Empty(t, cur.ScreenshotIDs)
	assert.Equal(t, "PROJ-1", cur.Task.Key)
}

func TestTracker_RestoreActiveSession(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	clk := testutil.NewFakeClock(trackerEpoch)
	state := repository.NewSQLiteStateRepo(database)
	daily := repository.NewSQLiteDailyRepo(database)

	tr := NewTracker(state, daily, testutil.NewTestUoW(database), clk, NoopObserver{})
	started, err := tr.Start(ctx, nil)
	require.NoError(t, err)

	// Simulate a restart: a fresh tracker over the same database.
	tr2 := NewTracker(state, daily, testutil.NewTestUoW(database), clk, NoopObserver{})
	require.NoError(t, tr2.Restore(ctx))

	cur := tr2.Current()
	require.NotNil(t, cur)
	assert.Equal(t, started.ID, cur.ID)
	assert.True(t, cur.Active)
}

func TestTracker_RestoreFoldsOrphanedFinalizedSession(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	clk := testutil.NewFakeClock(trackerEpoch)
	state := repository.NewSQLiteStateRepo(database)
	daily := repository.NewSQLiteDailyRepo(database)

	// A finalized session left in the slot means the process died between
	// finalize and fold.
	orphan := testutil.NewTestSession(trackerEpoch, testutil.Finalized(200*time.Second))
	require.NoError(t, state.SaveCurrent(ctx, orphan))

	tr := NewTracker(state, daily, testutil.NewTestUoW(database), clk, NoopObserver{})
	require.NoError(t, tr.Restore(ctx))

	assert.Nil(t, tr.Current())
	agg, err := daily.Get(ctx, "2026-03-14")
	require.NoError(t, err)
	assert.Equal(t, 200, agg.TotalTimeSeconds)
	assert.Equal(t, 1, agg.SessionCount)

	_, err = state.GetCurrent(ctx)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTracker_TodayIncludesLiveSession(t *testing.T) {
	tr, clk, database := newTestTracker(t)
	ctx := context.Background()

	// A prior folded session on the same day.
	daily := repository.NewSQLiteDailyRepo(database)
	prior := testutil.NewTestAggregate("2026-03-14",
		testutil.NewTestSession(trackerEpoch.Add(-2*time.Hour), testutil.Finalized(100*time.Second)))
	require.NoError(t, daily.Upsert(ctx, prior))

	_, err := tr.Start(ctx, nil)
	require.NoError(t, err)
	clk.Advance(50 * time.Second)

	today, err := tr.Today(ctx)
	require.NoError(t, err)
	assert.Equal(t, 150, today.TotalTimeSeconds)
	assert.Equal(t, 1, today.SessionCount, "live session is not counted as finalized")
}
