package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/MananAlchemy/JiraBridge-sub000/internal/domain"
)

// WorkLog is one finalized session's worth of work submitted against a
// Jira issue.
type WorkLog struct {
	TaskKey         string
	StartedAt       time.Time
	EndedAt         time.Time
	DurationSeconds int
	Description     string
}

// Client provides task lookup and work-log submission. The tracking core
// treats task data as an immutable snapshot taken at session start.
type Client interface {
	// GetTask fetches an issue's identity as a task reference.
	GetTask(ctx context.Context, key string) (*domain.TaskRef, error)

	// LogWork submits a work-log entry for the given issue.
	LogWork(ctx context.Context, wl WorkLog) error

	// Available checks whether the Jira server is reachable with the
	// configured credentials.
	Available(ctx context.Context) bool
}

// restClient implements Client over the Jira REST API v2.
type restClient struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a Client for the configured Jira instance.
func NewClient(cfg Config) Client {
	return &restClient{
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

// issueResponse is the subset of GET /rest/api/2/issue/{key} we consume.
type issueResponse struct {
	Key    string `json:"key"`
	Fields struct {
		Summary string `json:"summary"`
		Project struct {
			Key string `json:"key"`
		} `json:"project"`
	} `json:"fields"`
}

// worklogRequest is the body of POST /rest/api/2/issue/{key}/worklog.
type worklogRequest struct {
	Comment          string `json:"comment,omitempty"`
	Started          string `json:"started"`
	TimeSpentSeconds int    `json:"timeSpentSeconds"`
}

// jiraStartedLayout is the timestamp format Jira's worklog API expects.
const jiraStartedLayout = "2006-01-02T15:04:05.000-0700"

func (c *restClient) GetTask(ctx context.Context, key string) (*domain.TaskRef, error) {
	path := fmt.Sprintf("%s/rest/api/2/issue/%s?fields=summary,project", c.cfg.BaseURL, url.PathEscape(key))

	var issue issueResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &issue); err != nil {
		return nil, err
	}
	return domain.NewTaskRef(issue.Key, issue.Fields.Summary, issue.Fields.Project.Key)
}

func (c *restClient) LogWork(ctx context.Context, wl WorkLog) error {
	if wl.TaskKey == "" || wl.DurationSeconds <= 0 {
		return ErrInvalidWorkLog
	}

	path := fmt.Sprintf("%s/rest/api/2/issue/%s/worklog", c.cfg.BaseURL, url.PathEscape(wl.TaskKey))
	body := worklogRequest{
		Comment:          wl.Description,
		Started:          wl.StartedAt.Format(jiraStartedLayout),
		TimeSpentSeconds: wl.DurationSeconds,
	}
	return c.do(ctx, http.MethodPost, path, body, nil)
}

func (c *restClient) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/rest/api/2/myself", nil)
	if err != nil {
		return false
	}
	req.SetBasicAuth(c.cfg.Email, c.cfg.APIToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// do performs one JSON request with bounded retries, stopping early on
// context cancellation and on errors a retry cannot fix.
func (c *restClient) do(ctx context.Context, method, path string, body, out any) error {
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
		if ctx.Err() != nil || lastErr == ErrUnauthorized || lastErr == ErrTaskNotFound || lastErr == ErrInvalidWorkLog {
			break
		}
	}
	return lastErr
}

func (c *restClient) doOnce(ctx context.Context, method, path string, payload []byte, out any) error {
	var reader *bytes.Reader
	var req *http.Request
	var err error
	if payload != nil {
		reader = bytes.NewReader(payload)
		req, err = http.NewRequestWithContext(ctx, method, path, reader)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, path, nil)
	}
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.SetBasicAuth(c.cfg.Email, c.cfg.APIToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrTaskNotFound
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return fmt.Errorf("jira rejected request: status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
