package testutil

import (
	"time"

	"github.com/MananAlchemy/JiraBridge-sub000/internal/domain"
	"github.com/google/uuid"
)

// Session options
type SessionOption func(*domain.Session)

func WithTask(key, summary, project string) SessionOption {
	return func(s *domain.Session) {
		s.Task = &domain.TaskRef{Key: key, Summary: summary, Project: project}
	}
}

func WithScreenshots(ids ...string) SessionOption {
	return func(s *domain.Session) {
		s.ScreenshotIDs = append(s.ScreenshotIDs, ids...)
	}
}

// Finalized ends the session dur after its start.
func Finalized(dur time.Duration) SessionOption {
	return func(s *domain.Session) {
		s.Finalize(s.StartedAt.Add(dur))
	}
}

// NewTestSession creates an active session starting at the given instant.
func NewTestSession(start time.Time, opts ...SessionOption) *domain.Session {
	s := domain.NewSession(uuid.New().String(), start, nil)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewTestAggregate creates a daily aggregate with the given folded sessions.
func NewTestAggregate(dateKey string, sessions ...*domain.Session) *domain.DailyAggregate {
	agg := domain.NewDailyAggregate(dateKey)
	for _, s := range sessions {
		agg.Fold(s)
	}
	return agg
}
