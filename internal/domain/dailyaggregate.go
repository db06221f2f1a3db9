package domain

import (
	"sort"
	"time"

	"github.com/MananAlchemy/JiraBridge-sub000/internal/format"
)

// TaskTotal accumulates tracked time for one task within a single day.
type TaskTotal struct {
	Key                string
	Summary            string
	Project            string
	TimeSpentSeconds   int
	TimeSpentFormatted string
	SessionCount       int
	ScreenshotCount    int
}

// DailyAggregate holds accumulated totals for one user on one calendar
// date, broken down by task. Totals only ever grow; a finalized session is
// folded in exactly once.
type DailyAggregate struct {
	DateKey            string
	TotalTimeSeconds   int
	TotalTimeFormatted string
	SessionCount       int
	ScreenshotCount    int
	Tasks              map[string]*TaskTotal
	UpdatedAt          time.Time
}

// NewDailyAggregate creates an empty aggregate for the given date key.
func NewDailyAggregate(dateKey string) *DailyAggregate {
	return &DailyAggregate{
		DateKey:            dateKey,
		TotalTimeFormatted: format.Duration(0),
		Tasks:              make(map[string]*TaskTotal),
	}
}

// Fold adds a finalized session's duration and screenshot count to the
// day's totals and, when the session is task-bound, to that task's entry.
// Callers must fold each finalized session exactly once; Fold does not
// deduplicate by session id.
func (d *DailyAggregate) Fold(s *Session) {
	d.add(s.DurationSeconds, len(s.ScreenshotIDs), 1, s.Task)
}

// AddDelta applies an incremental time delta, optionally attributed to a
// task. This is the additive primitive behind minute-granularity flushes;
// it does not bump session counts.
func (d *DailyAggregate) AddDelta(deltaSeconds int, task *TaskRef) {
	d.add(deltaSeconds, 0, 0, task)
}

func (d *DailyAggregate) add(seconds, screenshots, sessions int, task *TaskRef) {
	d.TotalTimeSeconds += seconds
	d.SessionCount += sessions
	d.ScreenshotCount += screenshots
	d.TotalTimeFormatted = format.Duration(d.TotalTimeSeconds)

	if task == nil {
		return
	}
	entry, ok := d.Tasks[task.Key]
	if !ok {
		entry = &TaskTotal{Key: task.Key, Summary: task.Summary, Project: task.Project}
		d.Tasks[task.Key] = entry
	}
	entry.TimeSpentSeconds += seconds
	entry.SessionCount += sessions
	entry.ScreenshotCount += screenshots
	entry.TimeSpentFormatted = format.Duration(entry.TimeSpentSeconds)
}

// TaskKeys returns the task keys in lexical order for stable display.
func (d *DailyAggregate) TaskKeys() []string {
	keys := make([]string, 0, len(d.Tasks))
	for k := range d.Tasks {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
