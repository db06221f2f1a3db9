package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/MananAlchemy/JiraBridge-sub000/internal/domain"
	"github.com/MananAlchemy/JiraBridge-sub000/internal/format"
)

// HTTPConfig holds settings for the JSON-over-HTTP remote store client.
type HTTPConfig struct {
	BaseURL    string
	TimeoutMs  int
	MaxRetries int
}

// DefaultHTTPConfig returns client defaults: 5s per call, one retry.
func DefaultHTTPConfig(baseURL string) HTTPConfig {
	return HTTPConfig{BaseURL: baseURL, TimeoutMs: 5000, MaxRetries: 1}
}

// httpStore implements Store against a hierarchical REST document API:
//
//	PUT    /users/{user}/dates/{date}/daily
//	POST   /users/{user}/dates/{date}/daily/increment
//	GET    /users/{user}/dates/{date}/daily
//	PUT    /users/{user}/dates/{date}/sessions/{id}
//	PATCH  /users/{user}/dates/{date}/sessions/{id}
//	GET    /users/{user}/dates/{date}/sessions
type httpStore struct {
	cfg  HTTPConfig
	http *http.Client
}

// NewHTTPStore creates a Store over the remote document API.
func NewHTTPStore(cfg HTTPConfig) Store {
	return &httpStore{
		cfg: cfg,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
	}
}

// Wire payloads. Formatted strings travel with the record so dumb readers
// of the remote store render the same text the app does.
type taskPayload struct {
	Summary            string `json:"summary"`
	Project            string `json:"project"`
	TimeSpentSeconds   int    `json:"timeSpentSeconds"`
	TimeSpentFormatted string `json:"timeSpentFormatted"`
	SessionCount       int    `json:"sessionCount"`
	ScreenshotCount    int    `json:"screenshotCount"`
}

type dailyPayload struct {
	DateKey            string                 `json:"dateKey"`
	TotalTimeSeconds   int                    `json:"totalTimeSeconds"`
	TotalTimeFormatted string                 `json:"totalTimeFormatted"`
	SessionCount       int                    `json:"sessionCount"`
	ScreenshotCount    int                    `json:"screenshotCount"`
	Tasks              map[string]taskPayload `json:"tasks,omitempty"`
}

type incrementPayload struct {
	DeltaSeconds int    `json:"deltaSeconds"`
	TaskKey      string `json:"taskKey,omitempty"`
	TaskSummary  string `json:"taskSummary,omitempty"`
	Project      string `json:"project,omitempty"`
}

type sessionPayload struct {
	ID              string   `json:"id"`
	StartTime       string   `json:"startTime"`
	EndTime         *string  `json:"endTime,omitempty"`
	DurationSeconds int      `json:"durationSeconds"`
	IsActive        bool     `json:"isActive"`
	TaskKey         string   `json:"taskKey,omitempty"`
	TaskSummary     string   `json:"taskSummary,omitempty"`
	Project         string   `json:"project,omitempty"`
	ScreenshotIDs   []string `json:"screenshotIds,omitempty"`
}

func (c *httpStore) StoreDaily(ctx context.Context, user, dateKey string, agg *domain.DailyAggregate) error {
	body := dailyPayload{
		DateKey:            agg.DateKey,
		TotalTimeSeconds:   agg.TotalTimeSeconds,
		TotalTimeFormatted: agg.TotalTimeFormatted,
		SessionCount:       agg.SessionCount,
		ScreenshotCount:    agg.ScreenshotCount,
	}
	if len(agg.Tasks) > 0 {
		body.Tasks = make(map[string]taskPayload, len(agg.Tasks))
		for key, entry := range agg.Tasks {
			body.Tasks[key] = taskPayload{
				Summary:            entry.Summary,
				Project:            entry.Project,
				TimeSpentSeconds:   entry.TimeSpentSeconds,
				TimeSpentFormatted: entry.TimeSpentFormatted,
				SessionCount:       entry.SessionCount,
				ScreenshotCount:    entry.ScreenshotCount,
			}
		}
	}
	return c.do(ctx, http.MethodPut, c.dailyPath(user, dateKey), body, nil)
}

func (c *httpStore) UpdateDaily(ctx context.Context, user, dateKey string, deltaSeconds int, task *domain.TaskRef) error {
	body := incrementPayload{DeltaSeconds: deltaSeconds}
	if task != nil {
		body.TaskKey = task.Key
		body.TaskSummary = task.Summary
		body.Project = task.Project
	}
	return c.do(ctx, http.MethodPost, c.dailyPath(user, dateKey)+"/increment", body, nil)
}

func (c *httpStore) StoreSession(ctx context.Context, user, dateKey string, s *domain.Session) error {
	body := sessionPayload{
		ID:              s.ID,
		StartTime:       s.StartedAt.Format(time.RFC3339),
		DurationSeconds: s.DurationSeconds,
		IsActive:        s.Active,
		ScreenshotIDs:   s.ScreenshotIDs,
	}
	if s.EndedAt != nil {
		end := s.EndedAt.Format(time.RFC3339)
		body.EndTime = &end
	}
	if s.Task != nil {
		body.TaskKey = s.Task.Key
		body.TaskSummary = s.Task.Summary
		body.Project = s.Task.Project
	}
	return c.do(ctx, http.MethodPut, c.sessionPath(user, dateKey, s.ID), body, nil)
}

func (c *httpStore) UpdateSession(ctx context.Context, user, dateKey, sessionID string, upd SessionUpdate) error {
	return c.do(ctx, http.MethodPatch, c.sessionPath(user, dateKey, sessionID), upd, nil)
}

func (c *httpStore) GetDaily(ctx context.Context, user, dateKey string) (*domain.DailyAggregate, error) {
	var payload dailyPayload
	if err := c.do(ctx, http.MethodGet, c.dailyPath(user, dateKey), nil, &payload); err != nil {
		return nil, err
	}

	agg := domain.NewDailyAggregate(payload.DateKey)
	agg.TotalTimeSeconds = payload.TotalTimeSeconds
	agg.TotalTimeFormatted = format.Duration(payload.TotalTimeSeconds)
	agg.SessionCount = payload.SessionCount
	agg.ScreenshotCount = payload.ScreenshotCount
	for key, tp := range payload.Tasks {
		agg.Tasks[key] = &domain.TaskTotal{
			Key:                key,
			Summary:            tp.Summary,
			Project:            tp.Project,
			TimeSpentSeconds:   tp.TimeSpentSeconds,
			TimeSpentFormatted: format.Duration(tp.TimeSpentSeconds),
			SessionCount:       tp.SessionCount,
			ScreenshotCount:    tp.ScreenshotCount,
		}
	}
	return agg, nil
}

func (c *httpStore) GetSessions(ctx context.Context, user, dateKey string) ([]*domain.Session, error) {
	var payloads []sessionPayload
	if err := c.do(ctx, http.MethodGet, c.sessionsPath(user, dateKey), nil, &payloads); err != nil {
		return nil, err
	}

	sessions := make([]*domain.Session, 0, len(payloads))
	for _, p := range payloads {
		started, err := time.Parse(time.RFC3339, p.StartTime)
		if err != nil {
			return nil, fmt.Errorf("parsing session start time: %w", err)
		}
		s := &domain.Session{
			ID:              p.ID,
			StartedAt:       started,
			DurationSeconds: p.DurationSeconds,
			Active:          p.IsActive,
			ScreenshotIDs:   p.ScreenshotIDs,
		}
		if p.EndTime != nil {
			ended, err := time.Parse(time.RFC3339, *p.EndTime)
			if err != nil {
				return nil, fmt.Errorf("parsing session end time: %w", err)
			}
			s.EndedAt = &ended
		}
		if p.TaskKey != "" {
			s.Task = &domain.TaskRef{Key: p.TaskKey, Summary: p.TaskSummary, Project: p.Project}
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

func (c *httpStore) dailyPath(user, dateKey string) string {
	return fmt.Sprintf("%s/users/%s/dates/%s/daily", c.cfg.BaseURL, url.PathEscape(user), dateKey)
}

func (c *httpStore) sessionPath(user, dateKey, sessionID string) string {
	return fmt.Sprintf("%s/users/%s/dates/%s/sessions/%s", c.cfg.BaseURL, url.PathEscape(user), dateKey, url.PathEscape(sessionID))
}

func (c *httpStore) sessionsPath(user, dateKey string) string {
	return fmt.Sprintf("%s/users/%s/dates/%s/sessions", c.cfg.BaseURL, url.PathEscape(user), dateKey)
}

// do performs one JSON request with bounded retries. Retries stop on
// context cancellation so a stopped session never keeps the client busy.
func (c *httpStore) do(ctx context.Context, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.TimeoutMs)*time.Millisecond)
	defer cancel()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
	}

	var lastErr error
	attempts := 1 + c.cfg.MaxRetries
	for i := 0; i < attempts; i++ {
		lastErr = c.doOnce(ctx, method, path, payload, out)
		if lastErr == nil {
			return nil
		}
		// A missing record will not appear on retry, and a rejected
		// payload will not become acceptable.
		if ctx.Err() != nil || errors.Is(lastErr, ErrNotFound) || errors.Is(lastErr, ErrRejected) {
			break
		}
	}
	return lastErr
}

func (c *httpStore) doOnce(ctx context.Context, method, path string, payload []byte, out any) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
