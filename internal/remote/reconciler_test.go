package remote

import (
	"context"
	"testing"
	"time"

	"github.com/MananAlchemy/JiraBridge-sub000/internal/domain"
	"github.com/MananAlchemy/JiraBridge-sub000/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reconcilerEpoch = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

// fakeSource serves a fixed session snapshot, standing in for the tracker.
type fakeSource struct {
	session *domain.Session
}

func (f *fakeSource) Current() *domain.Session { return f.session }

func newTestReconciler(t *testing.T, store Store) (*Reconciler, *fakeSource, *testutil.FakeClock) {
	t.Helper()
	clk := testutil.NewFakeClock(reconcilerEpoch)
	source := &fakeSource{session: testutil.NewTestSession(reconcilerEpoch,
		testutil.WithTask("PROJ-1", "Fix login", "PROJ"))}
	// A huge interval keeps the background ticker quiet; tests drive
	// Flush explicitly.
	rec := NewReconciler(store, source, clk, Config{User: "manan", FlushInterval: time.Hour}, NoopObserver{})
	return rec, source, clk
}

func TestReconciler_BeginMirrorsSession(t *testing.T) {
	store := newMemStore()
	rec, source, _ := newTestReconciler(t, store)
	defer rec.Abort()

	require.NoError(t, rec.Begin(context.Background()))

	mirrored, err := store.GetSessions(context.Background(), "manan", "2026-03-14")
	require.NoError(t, err)
	require.Len(t, mirrored, 1)
	assert.Equal(t, source.session.ID, mirrored[0].ID)
	assert.True(t, mirrored[0].Active)
}

func TestReconciler_BeginWithoutSession(t *testing.T) {
	store := newMemStore()
	clk := testutil.NewFakeClock(reconcilerEpoch)
	rec := NewReconciler(store, &fakeSource{}, clk, DefaultConfig("manan"), NoopObserver{})

	assert.ErrorIs(t, rec.Begin(context.Background()), ErrNoSession)
}

func TestReconciler_FirstFlushMayBeShort(t *testing.T) {
	store := newMemStore()
	rec, _, clk := newTestReconciler(t, store)
	defer rec.Abort()
	ctx := context.Background()

	require.NoError(t, rec.Begin(ctx))
	clk.Advance(45 * time.Second)
	rec.Flush(ctx)

	assert.Equal(t, 45, store.dailyTotal("manan", "2026-03-14"))
}

func TestReconciler_FlushAttributesTask(t *testing.T) {
	store := newMemStore()
	rec, _, clk := newTestReconciler(t, store)
	defer rec.Abort()
	ctx := context.Background()

	require.NoError(t, rec.Begin(ctx))
	clk.Advance(60 * time.Second)
	rec.Flush(ctx)

	agg, err := store.GetDaily(ctx, "manan", "2026-03-14")
	require.NoError(t, err)
	require.Contains(t, agg.Tasks, "PROJ-1")
	assert.Equal(t, 60, agg.Tasks["PROJ-1"].TimeSpentSeconds)
}

func TestReconciler_FailedWindowCarriesIntoNext(t *testing.T) {
	store := newMemStore()
	rec, _, clk := newTestReconciler(t, store)
	defer rec.Abort()
	ctx := context.Background()

	require.NoError(t, rec.Begin(ctx))

	// First window fails at the remote; local state is unaffected and the
	// delta is carried.
	store.failDaily = 1
	clk.Advance(60 * time.Second)
	rec.Flush(ctx)
	assert.Equal(t, 0, store.dailyTotal("manan", "2026-03-14"))

	// Next window succeeds with both windows' worth: eventual convergence
	// without double-counting.
	clk.Advance(60 * time.Second)
	rec.Flush(ctx)
	assert.Equal(t, 120, store.dailyTotal("manan", "2026-03-14"))
	assert.Equal(t, []int{60, 120}, store.calls, "each flush sends its own accumulated delta, not a cumulative resend")

	// A further window carries only itself.
	clk.Advance(60 * time.Second)
	rec.Flush(ctx)
	assert.Equal(t, 180, store.dailyTotal("manan", "2026-03-14"))
}

func TestReconciler_FinishFlushesTailAndFinalizesMirror(t *testing.T) {
	store := newMemStore()
	rec, source, clk := newTestReconciler(t, store)
	ctx := context.Background()

	require.NoError(t, rec.Begin(ctx))
	clk.Advance(60 * time.Second)
	rec.Flush(ctx)

	clk.Advance(90 * time.Second)
	source.session.Finalize(clk.Now())
	rec.Finish(ctx, source.session)

	assert.Equal(t, 150, store.dailyTotal("manan", "2026-03-14"))

	mirrored, err := store.GetSessions(ctx, "manan", "2026-03-14")
	require.NoError(t, err)
	require.Len(t, mirrored, 1)
	assert.False(t, mirrored[0].Active)
	require.NotNil(t, mirrored[0].EndedAt)
	assert.Equal(t, 150, mirrored[0].DurationSeconds)

	// Finish is terminal; further flushes are inert.
	clk.Advance(60 * time.Second)
	rec.Flush(ctx)
	assert.Equal(t, 150, store.dailyTotal("manan", "2026-03-14"))
}

func TestReconciler_AbortDropsPendingWork(t *testing.T) {
	store := newMemStore()
	rec, _, clk := newTestReconciler(t, store)
	ctx := context.Background()

	require.NoError(t, rec.Begin(ctx))
	clk.Advance(30 * time.Second)
	rec.Abort()

	rec.Flush(ctx)
	assert.Equal(t, 0, store.dailyTotal("manan", "2026-03-14"))
}

func TestReconciler_FlushBeforeBeginIsNoop(t *testing.T) {
	store := newMemStore()
	rec, _, _ := newTestReconciler(t, store)

	rec.Flush(context.Background())
	assert.Empty(t, store.calls)
}
