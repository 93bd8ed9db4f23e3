package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitualize/backend/store"
	"habitualize/internal/config"
	"habitualize/internal/metrics"
	"habitualize/internal/stats"
)

var today = time.Date(2024, 3, 10, 9, 0, 0, 0, time.Local)

type testServer struct {
	*Server
	store   *store.Store
	metrics *metrics.Collectors
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	clock := func() time.Time { return today }
	st, err := store.New(t.TempDir(), nil, store.WithClock(clock))
	require.NoError(t, err)
	m := metrics.New()
	cfg := config.ServerConfig{Mode: "test", CORSOrigins: []string{"http://localhost:3000"}}
	return testServer{Server: New(cfg, st, stats.NewService(st, clock), m), store: st, metrics: m}
}

func (ts testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestAddHabitAndOverview(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/habits", `{"name":"  Read ","points":"10"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/habits", `{"name":"Run","points":5}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/habits/toggle", `{"name":"Read","completed":true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/daily-overview", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"habits": [
			{"name":"Read","points":10,"completed":true,"creation_date":"2024-03-10"},
			{"name":"Run","points":5,"completed":false,"creation_date":"2024-03-10"}
		],
		"total_points": 15,
		"earned_points": 10,
		"percentage": 66
	}`, rec.Body.String())

	data, err := os.ReadFile(filepath.Join(ts.store.Dir(), "progress_log.csv"))
	require.NoError(t, err)
	assert.Equal(t, "date,earned_points,possible_points\r\n2024-03-10,10,15\r\n", string(data))
}

func TestAddHabitErrors(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/api/habits", `{"name":"Read","points":1}`).Code)

	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{"blank name", `{"name":"   ","points":1}`, http.StatusBadRequest, "Name required"},
		{"duplicate ignoring case", `{"name":"READ","points":1}`, http.StatusBadRequest, "Habit already exists"},
		{"bad points", `{"name":"Walk","points":"many"}`, http.StatusBadRequest, ""},
		{"not json", `name=Walk`, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/habits", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, decode(t, rec)["error"])
			}
		})
	}
}

func TestNegativePointsAreBadRequest(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/api/habits", `{"name":"Good","points":10}`).Code)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/api/goals", `{"name":"Marathon","points":20}`).Code)

	tests := []struct {
		path, body string
	}{
		{"/api/habits", `{"name":"Bad","points":-5}`},
		{"/api/habits/update", `{"old_name":"Good","new_name":"Good","new_points":"-1"}`},
		{"/api/goals", `{"name":"Someday","points":"-20"}`},
		{"/api/goals/update", `{"old_name":"Marathon","new_name":"Marathon","new_points":-3}`},
	}
	for _, tt := range tests {
		rec := ts.do(t, http.MethodPost, tt.path, tt.body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "%s %s", tt.path, tt.body)
		assert.Contains(t, decode(t, rec)["error"], "points must be zero or more")
	}

	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/api/habits/toggle", `{"name":"Good","completed":true}`).Code)
	rec := ts.do(t, http.MethodGet, "/api/daily-overview", "")
	require.Equal(t, http.StatusOK, rec.Code)
	overview := decode(t, rec)
	assert.EqualValues(t, 10, overview["total_points"])
	assert.EqualValues(t, 100, overview["percentage"])
}

func TestHabitLifecycle(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/api/habits", `{"name":"Read","points":1}`).Code)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/api/habits", `{"name":"Run","points":2}`).Code)

	rec := ts.do(t, http.MethodPost, "/api/habits/update", `{"old_name":"Read","new_name":"Run","new_points":3}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Habit name already exists", decode(t, rec)["error"])

	rec = ts.do(t, http.MethodPost, "/api/habits/update", `{"old_name":"Read","new_name":"Read books","new_points":3}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/habits/update", `{"old_name":"Ghost","new_name":"Spirit","new_points":3}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/habits/archive", `{"name":"Run"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/habits/all", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"active": [{"name":"Read books","points":3,"archived":false,"creation_date":"2024-03-10"}],
		"archived": [{"name":"Run","points":2,"archived":true,"creation_date":"2024-03-10"}]
	}`, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/habits/archive", `{"name":"Run","archived":false}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/habits/delete", `{"name":"Run"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(t, http.MethodPost, "/api/habits/delete", `{"name":"Run"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestToggleUnknownHabit(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/habits/toggle", `{"name":"Nope","completed":true}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/habits/toggle", `{"name":"Nope","completed":false}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStreak(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/api/habits", `{"name":"Read books","points":1}`).Code)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/api/habits/toggle", `{"name":"Read books","completed":true}`).Code)

	rec := ts.do(t, http.MethodGet, "/api/habits/streak/Read%20books", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Streak []stats.StreakDay `json:"streak"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Streak, 7)
	assert.Equal(t, stats.StreakDay{Date: "2024-03-10", Day: "Sun", Completed: true, IsToday: true}, body.Streak[6])
	assert.False(t, body.Streak[0].Completed)
}

func TestGoals(t *testing.T) {
	ts := newTestServer(t)

	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/api/goals", `{"name":"Learn Go","points":20}`).Code)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/api/goals",
		`{"name":"Ship v1","status":"Completed","deadline":"2024-06-01","points":"50"}`).Code)

	rec := ts.do(t, http.MethodPost, "/api/goals", `{"name":"learn go"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Goal already exists", decode(t, rec)["error"])

	rec = ts.do(t, http.MethodPost, "/api/goals/update",
		`{"old_name":"Learn Go","new_name":"Learn Go well","new_status":"In Progress","new_deadline":"","new_points":25}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/goals", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"goals": [
			{"name":"Learn Go well","status":"In Progress","deadline":"","points":25},
			{"name":"Ship v1","status":"Completed","deadline":"2024-06-01","points":50}
		],
		"stats": {"completed":50,"in_progress":25,"not_started":0,"total":75}
	}`, rec.Body.String())

	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/api/goals/delete", `{"name":"Ship v1"}`).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodPost, "/api/goals/delete", `{"name":"Ship v1"}`).Code)
}

func TestProgress(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/api/habits", `{"name":"Read","points":10}`).Code)

	rec := ts.do(t, http.MethodPost, "/api/progress/toggle", `{"name":"Read","completed":true,"date":"2024-03-09"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/progress/2024-03-09", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"date": "2024-03-09",
		"earned_points": 10,
		"total_points": 10,
		"percentage": 100,
		"completed_habits": [{"name":"Read","points":10}],
		"pending_habits": [],
		"weekly_earned": 10,
		"weekly_possible": 10,
		"weekly_percentage": 100
	}`, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/progress/yesterday", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/progress/toggle", `{"name":"Read","completed":true,"date":"03/09/2024"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCorruptTableIsServerError(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(ts.store.Dir(), "habits.csv"), []byte("name,points\r\n\"unterminated\r\n"), 0644))

	rec := ts.do(t, http.MethodGet, "/api/habits/all", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])

	ts.do(t, http.MethodGet, "/api/goals", "")
	assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.HTTPRequests.WithLabelValues("GET", "/api/goals", "200")))

	rec = ts.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "habitualize_http_requests_total")
}

func TestRequestID(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/health", "")
	_, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
	assert.NoError(t, err)

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, id)
	rec = httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get(RequestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/habits", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRunStopsOnCancel(t *testing.T) {
	st, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	srv := New(config.ServerConfig{Addr: "127.0.0.1:0", Mode: "test"}, st, stats.NewService(st, nil), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
