package remote

import (
	"context"
	"errors"
	"time"

	"github.com/MananAlchemy/JiraBridge-sub000/internal/domain"
)

var (
	// ErrUnavailable indicates the remote store was unreachable or
	// answered with a server error.
	ErrUnavailable = errors.New("remote store unavailable")

	// ErrNotFound indicates the requested remote record does not exist.
	ErrNotFound = errors.New("remote record not found")

	// ErrRejected indicates the remote store refused the request itself;
	// resending the same payload cannot succeed.
	ErrRejected = errors.New("remote store rejected request")
)

// SessionUpdate is a partial update applied to a mirrored session record.
// Nil fields are left unchanged.
type SessionUpdate struct {
	DurationSeconds *int       `json:"durationSeconds,omitempty"`
	Active          *bool      `json:"isActive,omitempty"`
	EndedAt         *time.Time `json:"endTime,omitempty"`
	ScreenshotCount *int       `json:"screenshotCount,omitempty"`
}

// Store is the hierarchical remote document store, keyed by
// (user, dateKey) with sub-records for the daily aggregate and individual
// sessions. Implementations never panic into the core; every operation
// reports failure through its error.
type Store interface {
	StoreDaily(ctx context.Context, user, dateKey string, agg *domain.DailyAggregate) error
	UpdateDaily(ctx context.Context, user, dateKey string, deltaSeconds int, task *domain.TaskRef) error
	StoreSession(ctx context.Context, user, dateKey string, s *domain.Session) error
	UpdateSession(ctx context.Context, user, dateKey, sessionID string, upd SessionUpdate) error
	GetDaily(ctx context.Context, user, dateKey string) (*domain.DailyAggregate, error)
	GetSessions(ctx context.Context, user, dateKey string) ([]*domain.Session, error)
}
