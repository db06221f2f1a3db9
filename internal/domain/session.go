package domain

import (
	"errors"
	"time"
)

// ErrInvalidTaskRef indicates a task reference missing one of its required
// fields. Key, summary, and project travel together or not at all.
var ErrInvalidTaskRef = errors.New("task reference requires key, summary, and project")

// TaskRef is an immutable snapshot of an issue-tracker task taken at
// session start.
type TaskRef struct {
	Key     string
	Summary string
	Project string
}

// NewTaskRef validates that all fields are present together.
func NewTaskRef(key, summary, project string) (*TaskRef, error) {
	if key == "" || summary == "" || project == "" {
		return nil, ErrInvalidTaskRef
	}
	return &TaskRef{Key: key, Summary: summary, Project: project}, nil
}

// DateKeyLayout is the calendar-date key used for daily aggregates and
// remote record paths.
const DateKeyLayout = "2006-01-02"

// Session is one continuous interval of tracked work. A session is active
// from creation until Finalize; EndedAt is set exactly once.
type Session struct {
	ID              string
	StartedAt       time.Time
	EndedAt         *time.Time
	DurationSeconds int
	Active          bool
	Task            *TaskRef
	ScreenshotIDs   []string
}

// NewSession creates an active session starting now. The task binding is
// optional and fixed for the session's lifetime.
func NewSession(id string, now time.Time, task *TaskRef) *Session {
	return &Session{
		ID:        id,
		StartedAt: now,
		Active:    true,
		Task:      task,
	}
}

// Touch recomputes the live duration against the given instant. No-op once
// the session is finalized.
func (s *Session) Touch(now time.Time) {
	if !s.Active {
		return
	}
	s.DurationSeconds = int(now.Sub(s.StartedAt).Seconds())
}

// Finalize ends the session: EndedAt is set, the duration is frozen at
// exactly EndedAt - StartedAt, and the session becomes inactive.
func (s *Session) Finalize(now time.Time) {
	if !s.Active {
		return
	}
	end := now
	s.EndedAt = &end
	s.DurationSeconds = int(end.Sub(s.StartedAt).Seconds())
	s.Active = false
}

// AppendScreenshot records a captured screenshot id. Ignored once the
// session is finalized.
func (s *Session) AppendScreenshot(id string) {
	if !s.Active {
		return
	}
	s.ScreenshotIDs = append(s.ScreenshotIDs, id)
}

// DateKey returns the calendar date the session is attributed to. A session
// belongs entirely to its start date, even when it crosses midnight.
func (s *Session) DateKey() string {
	return s.StartedAt.Format(DateKeyLayout)
}
