package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MananAlchemy/JiraBridge-sub000/internal/clock"
	"github.com/MananAlchemy/JiraBridge-sub000/internal/db"
	"github.com/MananAlchemy/JiraBridge-sub000/internal/domain"
	"github.com/MananAlchemy/JiraBridge-sub000/internal/repository"
	"github.com/google/uuid"
)

// Tracker owns the single "current session" slot and folds finalized
// sessions into daily aggregates. It is the only writer of the slot;
// readers get snapshot copies via Current.
type Tracker struct {
	state repository.StateRepo
	daily repository.DailyRepo
	uow   db.UnitOfWork
	clock clock.Clock
	obs   Observer

	mu      sync.Mutex
	current *domain.Session
}

// NewTracker wires a tracker over its persistence ports. Call Restore
// afterwards to recover a session that survived a process restart.
func NewTracker(state repository.StateRepo, daily repository.DailyRepo, uow db.UnitOfWork, clk clock.Clock, obs Observer) *Tracker {
	if obs == nil {
		obs = NoopObserver{}
	}
	return &Tracker{
		state: state,
		daily: daily,
		uow:   uow,
		clock: clk,
		obs:   obs,
	}
}

// Restore reloads a persisted active session into the slot, so a crash or
// restart does not silently drop an in-progress session. A persisted but
// already-finalized session is left for Stop-time folding that never
// happened; it is folded immediately and the slot cleared.
func (t *Tracker) Restore(ctx context.Context) error {
	s, err := t.state.GetCurrent(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("restoring session: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if s.Active {
		t.current = s
		t.obs.ObserveTracker(Event{Op: "restore", SessionID: s.ID, TaskKey: taskKey(s)})
		return nil
	}

	// The process died between finalize and fold. Fold now.
	if err := t.foldAndClear(ctx, s); err != nil {
		return fmt.Errorf("folding recovered session: %w", err)
	}
	t.obs.ObserveTracker(Event{Op: "restore_fold", SessionID: s.ID, TaskKey: taskKey(s)})
	return nil
}

// Start begins a new tracking session, optionally bound to a task. It
// fails with ErrSessionActive when a session is already being tracked and
// with domain.ErrInvalidTaskRef when the binding is incomplete. The new
// session is persisted before Start returns.
func (t *Tracker) Start(ctx context.Context, task *domain.TaskRef) (*domain.Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current != nil {
		return nil, ErrSessionActive
	}
	if task != nil {
		validated, err := domain.NewTaskRef(task.Key, task.Summary, task.Project)
		if err != nil {
			return nil, err
		}
		task = validated
	}

	s := domain.NewSession(uuid.New().String(), t.clock.Now(), task)
	if err := t.state.SaveCurrent(ctx, s); err != nil {
		t.obs.ObserveTracker(Event{Op: "start", SessionID: s.ID, Err: err})
		return nil, fmt.Errorf("%w: %v", ErrStatePersistence, err)
	}

	t.current = s
	t.obs.ObserveTracker(Event{Op: "start", SessionID: s.ID, TaskKey: taskKey(s)})
	return snapshot(s), nil
}

// Tick recomputes the live duration of the active session and refreshes
// the durable slot. A failed write is logged and swallowed; the loss is
// bounded to one tick interval. Returns the current duration in seconds,
// or zero when no session is active.
func (t *Tracker) Tick(ctx context.Context) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil {
		return 0
	}
	t.current.Touch(t.clock.Now())
	if err := t.state.SaveCurrent(ctx, t.current); err != nil {
		t.obs.ObserveTracker(Event{Op: "tick", SessionID: t.current.ID, Err: err})
	}
	return t.current.DurationSeconds
}

// Stop finalizes the active session, folds it into its start date's daily
// aggregate, and clears the slot — all in one transaction. Returns the
// finalized session so callers can drive work-log submission, or nil when
// no session was active.
func (t *Tracker) Stop(ctx context.Context) (*domain.Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil {
		return nil, nil
	}

	s := t.current
	s.Finalize(t.clock.Now())

	if err := t.foldAndClear(ctx, s); err != nil {
		// The session stays finalized in the durable slot; Restore folds
		// it on the next startup.
		if saveErr := t.state.SaveCurrent(ctx, s); saveErr != nil {
			t.obs.ObserveTracker(Event{Op: "stop_save", SessionID: s.ID, Err: saveErr})
		}
		t.current = nil
		t.obs.ObserveTracker(Event{Op: "stop", SessionID: s.ID, Err: err})
		return snapshot(s), fmt.Errorf("%w: %v", ErrStatePersistence, err)
	}

	t.current = nil
	t.obs.ObserveTracker(Event{Op: "stop", SessionID: s.ID, TaskKey: taskKey(s)})
	return snapshot(s), nil
}

// Cancel discards the active session without folding it into any daily
// aggregate. Meant for debug and recovery paths. No-op when idle.
func (t *Tracker) Cancel(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil {
		return nil
	}
	id := t.current.ID
	if err := t.state.ClearCurrent(ctx); err != nil {
		t.obs.ObserveTracker(Event{Op: "cancel", SessionID: id, Err: err})
		return fmt.Errorf("%w: %v", ErrStatePersistence, err)
	}
	t.current = nil
	t.obs.ObserveTracker(Event{Op: "cancel", SessionID: id})
	return nil
}

// AppendScreenshot records a captured screenshot id against the active
// session. No-op when no session is active; a failed persistence write is
// logged and swallowed.
func (t *Tracker) AppendScreenshot(ctx context.Context, screenshotID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil {
		return
	}
	t.current.AppendScreenshot(screenshotID)
	if err := t.state.SaveCurrent(ctx, t.current); err != nil {
		t.obs.ObserveTracker(Event{Op: "screenshot", SessionID: t.current.ID, Err: err})
	}
}

// Current returns a snapshot copy of the active session, or nil.
func (t *Tracker) Current() *domain.Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil {
		return nil
	}
	return snapshot(t.current)
}

// Today loads today's persisted aggregate and layers the live duration of
// the active session on top, when its start date matches. The returned
// aggregate is display-only and never persisted.
func (t *Tracker) Today(ctx context.Context) (*domain.DailyAggregate, error) {
	now := t.clock.Now()
	dateKey := now.Format(domain.DateKeyLayout)

	agg, err := t.daily.Get(ctx, dateKey)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		agg = domain.NewDailyAggregate(dateKey)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current != nil && t.current.DateKey() == dateKey {
		live := int(now.Sub(t.current.StartedAt).Seconds())
		agg.AddDelta(live, t.current.Task)
	}
	return agg, nil
}

// foldAndClear applies a finalized session to its daily aggregate and
// empties the slot in a single transaction. Callers hold t.mu.
func (t *Tracker) foldAndClear(ctx context.Context, s *domain.Session) error {
	return t.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txDaily := repository.NewSQLiteDailyRepo(tx)
		txState := repository.NewSQLiteStateRepo(tx)

		agg, err := txDaily.Get(ctx, s.DateKey())
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			agg = domain.NewDailyAggregate(s.DateKey())
		}
		agg.Fold(s)

		if err := txDaily.Upsert(ctx, agg); err != nil {
			return err
		}
		return txState.ClearCurrent(ctx)
	})
}

func snapshot(s *domain.Session) *domain.Session {
	cp := *s
	if s.EndedAt != nil {
		end := *s.EndedAt
		cp.EndedAt = &end
	}
	if s.Task != nil {
		task := *s.Task
		cp.Task = &task
	}
	cp.ScreenshotIDs = append([]string(nil), s.ScreenshotIDs...)
	return &cp
}

func taskKey(s *domain.Session) string {
	if s.Task == nil {
		return ""
	}
	return s.Task.Key
}
