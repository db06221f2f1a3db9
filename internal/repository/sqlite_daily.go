package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/MananAlchemy/JiraBridge-sub000/internal/db"
	"github.com/MananAlchemy/JiraBridge-sub000/internal/domain"
	"github.com/MananAlchemy/JiraBridge-sub000/internal/format"
)

// SQLiteDailyRepo implements DailyRepo. Only second counts are stored;
// formatted strings are recomputed on load so they can never go stale.
type SQLiteDailyRepo struct {
	db db.DBTX
}

// NewSQLiteDailyRepo creates a new SQLiteDailyRepo.
func NewSQLiteDailyRepo(db db.DBTX) *SQLiteDailyRepo {
	return &SQLiteDailyRepo{db: db}
}

func (r *SQLiteDailyRepo) Get(ctx context.Context, dateKey string) (*domain.DailyAggregate, error) {
	query := `SELECT date_key, total_seconds, session_count, screenshot_count, updated_at
		FROM daily_aggregates WHERE date_key = ?`
	row := r.db.QueryRowContext(ctx, query, dateKey)

	agg, err := r.scanAggregate(row)
	if err != nil {
		return nil, err
	}
	if err := r.loadTasks(ctx, agg); err != nil {
		return nil, err
	}
	return agg, nil
}

func (r *SQLiteDailyRepo) Upsert(ctx context.Context, agg *domain.DailyAggregate) error {
	query := `INSERT INTO daily_aggregates (date_key, total_seconds, session_count, screenshot_count, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(date_key) DO UPDATE SET
			total_seconds = excluded.total_seconds,
			session_count = excluded.session_count,
			screenshot_count = excluded.screenshot_count,
			updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query,
		agg.DateKey,
		agg.TotalTimeSeconds,
		agg.SessionCount,
		agg.ScreenshotCount,
		nowUTC(),
	)
	if err != nil {
		return fmt.Errorf("upserting daily aggregate: %w", err)
	}

	taskQuery := `INSERT INTO daily_task_totals (date_key, task_key, summary, project, seconds, session_count, screenshot_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date_key, task_key) DO UPDATE SET
			summary = excluded.summary,
			project = excluded.project,
			seconds = excluded.seconds,
			session_count = excluded.session_count,
			screenshot_count = excluded.screenshot_count`
	for _, key := range agg.TaskKeys() {
		entry := agg.Tasks[key]
		_, err := r.db.ExecContext(ctx, taskQuery,
			agg.DateKey, entry.Key, entry.Summary, entry.Project,
			entry.TimeSpentSeconds, entry.SessionCount, entry.ScreenshotCount,
		)
		if err != nil {
			return fmt.Errorf("upserting task total %s: %w", entry.Key, err)
		}
	}
	return nil
}

func (r *SQLiteDailyRepo) History(ctx context.Context, limit int) ([]*domain.DailyAggregate, error) {
	query := `SELECT date_key, total_seconds, session_count, screenshot_count, updated_at
		FROM daily_aggregates ORDER BY date_key DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return r.queryAggregates(ctx, query, args...)
}

func (r *SQLiteDailyRepo) Since(ctx context.Context, fromDateKey string) ([]*domain.DailyAggregate, error) {
	query := `SELECT date_key, total_seconds, session_count, screenshot_count, updated_at
		FROM daily_aggregates WHERE date_key >= ? ORDER BY date_key DESC`
	return r.queryAggregates(ctx, query, fromDateKey)
}

func (r *SQLiteDailyRepo) queryAggregates(ctx context.Context, query string, args ...any) ([]*domain.DailyAggregate, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing daily aggregates: %w", err)
	}
	defer rows.Close()

	var aggs []*domain.DailyAggregate
	for rows.Next() {
		agg, err := r.scanAggregateRow(rows)
		if err != nil {
			return nil, err
		}
		aggs = append(aggs, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating daily aggregates: %w", err)
	}

	for _, agg := range aggs {
		if err := r.loadTasks(ctx, agg); err != nil {
			return nil, err
		}
	}
	return aggs, nil
}

func (r *SQLiteDailyRepo) scanAggregate(row *sql.Row) (*domain.DailyAggregate, error) {
	agg := domain.NewDailyAggregate("")
	var updatedAtStr string
	err := row.Scan(&agg.DateKey, &agg.TotalTimeSeconds, &agg.SessionCount, &agg.ScreenshotCount, &updatedAtStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("daily aggregate: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning daily aggregate: %w", err)
	}
	return r.populateAggregate(agg, updatedAtStr)
}

func (r *SQLiteDailyRepo) scanAggregateRow(rows *sql.Rows) (*domain.DailyAggregate, error) {
	agg := domain.NewDailyAggregate("")
	var updatedAtStr string
	err := rows.Scan(&agg.DateKey, &agg.TotalTimeSeconds, &agg.SessionCount, &agg.ScreenshotCount, &updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("scanning daily aggregate row: %w", err)
	}
	return r.populateAggregate(agg, updatedAtStr)
}

func (r *SQLiteDailyRepo) populateAggregate(agg *domain.DailyAggregate, updatedAtStr string) (*domain.DailyAggregate, error) {
	var err error
	agg.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	agg.TotalTimeFormatted = format.Duration(agg.TotalTimeSeconds)
	return agg, nil
}

func (r *SQLiteDailyRepo) loadTasks(ctx context.Context, agg *domain.DailyAggregate) error {
	query := `SELECT task_key, summary, project, seconds, session_count, screenshot_count
		FROM daily_task_totals WHERE date_key = ? ORDER BY task_key`
	rows, err := r.db.QueryContext(ctx, query, agg.DateKey)
	if err != nil {
		return fmt.Errorf("listing task totals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entry domain.TaskTotal
		err := rows.Scan(&entry.Key, &entry.Summary, &entry.Project,
			&entry.TimeSpentSeconds, &entry.SessionCount, &entry.ScreenshotCount)
		if err != nil {
			return fmt.Errorf("scanning task total: %w", err)
		}
		entry.TimeSpentFormatted = format.Duration(entry.TimeSpentSeconds)
		agg.Tasks[entry.Key] = &entry
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating task totals: %w", err)
	}
	return nil
}
