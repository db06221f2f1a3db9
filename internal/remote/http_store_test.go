package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MananAlchemy/JiraBridge-sub000/internal/domain"
	"github.com/MananAlchemy/JiraBridge-sub000/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStore_UpdateDaily(t *testing.T) {
	var gotPath string
	var gotBody incrementPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store := NewHTTPStore(DefaultHTTPConfig(server.URL))
	task := &domain.TaskRef{Key: "PROJ-1", Summary: "Fix login", Project: "PROJ"}
	err := store.UpdateDaily(context.Background(), "manan", "2026-03-14", 60, task)
	require.NoError(t, err)

	assert.Equal(t, "POST /users/manan/dates/2026-03-14/daily/increment", gotPath)
	assert.Equal(t, 60, gotBody.DeltaSeconds)
	assert.Equal(t, "PROJ-1", gotBody.TaskKey)
	assert.Equal(t, "PROJ", gotBody.Project)
}

func TestHTTPStore_StoreSessionRoundTrip(t *testing.T) {
	var gotBody sessionPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store := NewHTTPStore(DefaultHTTPConfig(server.URL))
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	s := testutil.NewTestSession(start,
		testutil.WithTask("PROJ-1", "Fix login", "PROJ"),
		testutil.WithScreenshots("a", "b"),
		testutil.Finalized(600*time.Second),
	)
	require.NoError(t, store.StoreSession(context.Background(), "manan", s.DateKey(), s))

	assert.Equal(t, s.ID, gotBody.ID)
	assert.Equal(t, "2026-03-14T09:00:00Z", gotBody.StartTime)
	require.NotNil(t, gotBody.EndTime)
	assert.Equal(t, "2026-03-14T09:10:00Z", *gotBody.EndTime)
	assert.Equal(t, 600, gotBody.DurationSeconds)
	assert.False(t, gotBody.IsActive)
	assert.Equal(t, []string{"a", "b"}, gotBody.ScreenshotIDs)
}

func TestHTTPStore_GetDaily(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(dailyPayload{
			DateKey:          "2026-03-14",
			TotalTimeSeconds: 3661,
			SessionCount:     2,
			ScreenshotCount:  5,
			Tasks: map[string]taskPayload{
				"PROJ-1": {Summary: "Fix login", Project: "PROJ", TimeSpentSeconds: 600, SessionCount: 1},
			},
		})
	}))
	defer server.Close()

	store := NewHTTPStore(DefaultHTTPConfig(server.URL))
	agg, err := store.GetDaily(context.Background(), "manan", "2026-03-14")
	require.NoError(t, err)

	assert.Equal(t, 3661, agg.TotalTimeSeconds)
	assert.Equal(t, "1h 1m 1s", agg.TotalTimeFormatted, "formatted total recomputed locally")
	assert.Equal(t, 2, agg.SessionCount)
	require.Contains(t, agg.Tasks, "PROJ-1")
	assert.Equal(t, "10m 0s", agg.Tasks["PROJ-1"].TimeSpentFormatted)
}

func TestHTTPStore_GetDailyNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	store := NewHTTPStore(DefaultHTTPConfig(server.URL))
	_, err := store.GetDaily(context.Background(), "manan", "2026-03-14")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPStore_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store := NewHTTPStore(HTTPConfig{BaseURL: server.URL, TimeoutMs: 2000, MaxRetries: 1})
	err := store.UpdateDaily(context.Background(), "manan", "2026-03-14", 60, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestHTTPStore_DoesNotRetryRejectedRequests(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	store := NewHTTPStore(HTTPConfig{BaseURL: server.URL, TimeoutMs: 2000, MaxRetries: 2})
	err := store.UpdateDaily(context.Background(), "manan", "2026-03-14", 60, nil)
	assert.ErrorIs(t, err, ErrRejected)
	assert.Equal(t, int32(1), calls.Load(), "the same payload cannot succeed on resend")
}

func TestHTTPStore_UnreachableIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listening anymore

	store := NewHTTPStore(HTTPConfig{BaseURL: server.URL, TimeoutMs: 500, MaxRetries: 0})
	err := store.UpdateDaily(context.Background(), "manan", "2026-03-14", 60, nil)
	assert.ErrorIs(t, err, ErrUnavailable)
}
