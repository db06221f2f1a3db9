package repository

import (
	"context"
	"errors"

	"github.com/MananAlchemy/JiraBridge-sub000/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// StateRepo is the durable "current session" slot. Exactly one session may
// occupy the slot; it survives process restarts so an in-progress session
// is not lost to a crash.
type StateRepo interface {
	// GetCurrent loads the session occupying the slot, or ErrNotFound.
	GetCurrent(ctx context.Context) (*domain.Session, error)
	// SaveCurrent upserts the slot with the given session.
	SaveCurrent(ctx context.Context, s *domain.Session) error
	// ClearCurrent empties the slot. Clearing an empty slot is a no-op.
	ClearCurrent(ctx context.Context) error
}

// DailyRepo persists per-day aggregates and their per-task breakdown.
type DailyRepo interface {
	// Get loads one day's aggregate, or ErrNotFound.
	Get(ctx context.Context, dateKey string) (*domain.DailyAggregate, error)
	// Upsert writes the aggregate row and all of its task entries.
	Upsert(ctx context.Context, agg *domain.DailyAggregate) error
	// History lists aggregates most-recent-first, up to limit (0 = all).
	History(ctx context.Context, limit int) ([]*domain.DailyAggregate, error)
	// Since lists aggregates with date_key >= fromDateKey, most-recent-first.
	Since(ctx context.Context, fromDateKey string) ([]*domain.DailyAggregate, error)
}
