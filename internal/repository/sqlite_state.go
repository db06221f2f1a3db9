package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MananAlchemy/JiraBridge-sub000/internal/db"
	"github.com/MananAlchemy/JiraBridge-sub000/internal/domain"
)

// SQLiteStateRepo implements StateRepo over the single-row tracker_state
// table.
type SQLiteStateRepo struct {
	db db.DBTX
}

// NewSQLiteStateRepo creates a new SQLiteStateRepo.
func NewSQLiteStateRepo(db db.DBTX) *SQLiteStateRepo {
	return &SQLiteStateRepo{db: db}
}

func (r *SQLiteStateRepo) GetCurrent(ctx context.Context) (*domain.Session, error) {
	query := `SELECT session_id, started_at, ended_at, duration_s, active,
		task_key, task_summary, task_project, screenshot_ids
		FROM tracker_state WHERE slot = 'current'`
	row := r.db.QueryRowContext(ctx, query)

	var s domain.Session
	var startedAtStr string
	var endedAt, taskKey, taskSummary, taskProject sql.NullString
	var active int
	var screenshotJSON string

	err := row.Scan(
		&s.ID, &startedAtStr, &endedAt, &s.DurationSeconds, &active,
		&taskKey, &taskSummary, &taskProject, &screenshotJSON,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("current session: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning current session: %w", err)
	}

	s.StartedAt, err = time.Parse(time.RFC3339, startedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing started_at: %w", err)
	}
	s.EndedAt = parseNullableTime(endedAt, time.RFC3339)
	s.Active = intToBool(active)

	if taskKey.Valid && taskKey.String != "" {
		s.Task = &domain.TaskRef{
			Key:     taskKey.String,
			Summary: taskSummary.String,
			Project: taskProject.String,
		}
	}

	if err := json.Unmarshal([]byte(screenshotJSON), &s.ScreenshotIDs); err != nil {
		return nil, fmt.Errorf("parsing screenshot ids: %w", err)
	}

	return &s, nil
}

func (r *SQLiteStateRepo) SaveCurrent(ctx context.Context, s *domain.Session) error {
	shots := s.ScreenshotIDs
	if shots == nil {
		shots = []string{}
	}
	screenshotJSON, err := json.Marshal(shots)
	if err != nil {
		return fmt.Errorf("encoding screenshot ids: %w", err)
	}

	var taskKey, taskSummary, taskProject interface{}
	if s.Task != nil {
		taskKey = s.Task.Key
		taskSummary = s.Task.Summary
		taskProject = s.Task.Project
	}

	query := `INSERT INTO tracker_state (slot, session_id, started_at, ended_at, duration_s, active,
		task_key, task_summary, task_project, screenshot_ids, updated_at)
		VALUES ('current', ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			session_id = excluded.session_id,
			started_at = excluded.started_at,
			ended_at = excluded.ended_at,
			duration_s = excluded.duration_s,
			active = excluded.active,
			task_key = excluded.task_key,
			task_summary = excluded.task_summary,
			task_project = excluded.task_project,
			screenshot_ids = excluded.screenshot_ids,
			updated_at = excluded.updated_at`
	_, err = r.db.ExecContext(ctx, query,
		s.ID,
		s.StartedAt.Format(time.RFC3339),
		nullableTimeToString(s.EndedAt, time.RFC3339),
		s.DurationSeconds,
		boolToInt(s.Active),
		taskKey, taskSummary, taskProject,
		string(screenshotJSON),
		nowUTC(),
	)
	if err != nil {
		return fmt.Errorf("saving current session: %w", err)
	}
	return nil
}

func (r *SQLiteStateRepo) ClearCurrent(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tracker_state WHERE slot = 'current'`)
	if err != nil {
		return fmt.Errorf("clearing current session: %w", err)
	}
	return nil
}
