package remote

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MananAlchemy/JiraBridge-sub000/internal/clock"
	"github.com/MananAlchemy/JiraBridge-sub000/internal/domain"
)

// ErrNoSession indicates Begin was called with no active session to mirror.
var ErrNoSession = errors.New("no active session to reconcile")

// SessionSource exposes a read-only snapshot of the current session.
// *tracker.Tracker satisfies it.
type SessionSource interface {
	Current() *domain.Session
}

// Config holds reconciler settings.
type Config struct {
	User          string
	FlushInterval time.Duration
}

// DefaultConfig returns the standard 60-second flush cadence.
func DefaultConfig(user string) Config {
	return Config{User: user, FlushInterval: 60 * time.Second}
}

// Reconciler mirrors local session and aggregate state to the remote store
// on a fixed cadence while a session is active. Local state is always
// authoritative: a failed remote write is observed and its delta carried
// into the next window, never retried synchronously and never surfaced.
type Reconciler struct {
	store  Store
	source SessionSource
	clock  clock.Clock
	cfg    Config
	obs    Observer

	mu        sync.Mutex
	sessionID string
	dateKey   string
	task      *domain.TaskRef
	startedAt time.Time
	lastMark  time.Time
	pending   int
	stopCh    chan struct{}
}

// NewReconciler wires a reconciler over the remote store.
func NewReconciler(store Store, source SessionSource, clk clock.Clock, cfg Config, obs Observer) *Reconciler {
	if obs == nil {
		obs = NoopObserver{}
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 60 * time.Second
	}
	return &Reconciler{
		store:  store,
		source: source,
		clock:  clk,
		cfg:    cfg,
		obs:    obs,
	}
}

// Begin starts mirroring the current session: writes the initial remote
// session record (best effort) and schedules periodic flushes bound to the
// session's lifetime. Fails only when no session is active.
func (r *Reconciler) Begin(ctx context.Context) error {
	s := r.source.Current()
	if s == nil {
		return ErrNoSession
	}

	r.mu.Lock()
	r.sessionID = s.ID
	r.dateKey = s.DateKey()
	r.task = s.Task
	r.startedAt = s.StartedAt
	r.lastMark = s.StartedAt
	r.pending = 0
	stopCh := make(chan struct{})
	r.stopCh = stopCh
	r.mu.Unlock()

	if err := r.store.StoreSession(ctx, r.cfg.User, s.DateKey(), s); err != nil {
		r.obs.ObserveFlush(FlushEvent{
			Op: "session_store", User: r.cfg.User, DateKey: s.DateKey(),
			SessionID: s.ID, Err: err,
		})
	}

	go r.run(stopCh)
	return nil
}

// run drives the periodic flush until the session ends. The ticker is the
// 60-second cadence; stopCh gives Finish and Abort deterministic,
// immediate cancellation so no late flush writes to a cleared slot.
func (r *Reconciler) run(stopCh chan struct{}) {
	ticker := time.NewTicker(r.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			r.Flush(context.Background())
		}
	}
}

// Flush pushes the accumulated time delta since the last successful mark
// to the remote daily aggregate and refreshes the session mirror. The
// delta is nominally one flush interval but may be shorter right after
// start or longer after a delayed timer or failed windows.
func (r *Reconciler) Flush(ctx context.Context) {
	r.mu.Lock()
	if r.sessionID == "" {
		r.mu.Unlock()
		return
	}
	now := r.clock.Now()
	delta := r.pending + int(now.Sub(r.lastMark).Seconds())
	r.lastMark = now
	user, dateKey, sessionID, task := r.cfg.User, r.dateKey, r.sessionID, r.task
	duration := int(now.Sub(r.startedAt).Seconds())
	r.mu.Unlock()

	if delta <= 0 {
		return
	}

	if err := r.store.UpdateDaily(ctx, user, dateKey, delta, task); err != nil {
		// Carry the failed window into the next flush instead of dropping
		// it, so the remote mirror converges without undercounting.
		r.mu.Lock()
		r.pending = delta
		r.mu.Unlock()
		r.obs.ObserveFlush(FlushEvent{
			Op: "flush", User: user, DateKey: dateKey, SessionID: sessionID,
			DeltaSeconds: delta, Err: err,
		})
		return
	}

	r.mu.Lock()
	r.pending = 0
	r.mu.Unlock()

	upd := SessionUpdate{DurationSeconds: &duration}
	if s := r.source.Current(); s != nil && s.ID == sessionID {
		count := len(s.ScreenshotIDs)
		upd.ScreenshotCount = &count
	}
	if err := r.store.UpdateSession(ctx, user, dateKey, sessionID, upd); err != nil {
		r.obs.ObserveFlush(FlushEvent{
			Op: "session_update", User: user, DateKey: dateKey, SessionID: sessionID, Err: err,
		})
	}

	r.obs.ObserveFlush(FlushEvent{
		Op: "flush", User: user, DateKey: dateKey, SessionID: sessionID,
		DeltaSeconds: delta, Success: true,
	})
}

// Finish cancels the flush timer, pushes any unflushed delta up to the
// session's end time, and writes the finalized session record. Remote
// failures are observed but never returned; local state is authoritative.
func (r *Reconciler) Finish(ctx context.Context, finalized *domain.Session) {
	r.mu.Lock()
	if r.sessionID == "" {
		r.mu.Unlock()
		return
	}
	if r.stopCh != nil {
		close(r.stopCh)
		r.stopCh = nil
	}

	end := r.clock.Now()
	if finalized.EndedAt != nil {
		end = *finalized.EndedAt
	}
	delta := r.pending + int(end.Sub(r.lastMark).Seconds())
	user, dateKey, sessionID, task := r.cfg.User, r.dateKey, r.sessionID, r.task
	r.sessionID = ""
	r.pending = 0
	r.mu.Unlock()

	if delta > 0 {
		err := r.store.UpdateDaily(ctx, user, dateKey, delta, task)
		r.obs.ObserveFlush(FlushEvent{
			Op: "final_flush", User: user, DateKey: dateKey, SessionID: sessionID,
			DeltaSeconds: delta, Success: err == nil, Err: err,
		})
	}

	if err := r.store.StoreSession(ctx, user, dateKey, finalized); err != nil {
		r.obs.ObserveFlush(FlushEvent{
			Op: "session_store", User: user, DateKey: dateKey, SessionID: sessionID, Err: err,
		})
		return
	}
	r.obs.ObserveFlush(FlushEvent{
		Op: "session_store", User: user, DateKey: dateKey, SessionID: sessionID, Success: true,
	})
}

// Abort cancels the flush timer and forgets the session without any final
// flush. Used when a session is cancelled rather than stopped.
func (r *Reconciler) Abort() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopCh != nil {
		close(r.stopCh)
		r.stopCh = nil
	}
	r.sessionID = ""
	r.pending = 0
}
