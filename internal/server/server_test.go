package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayoisaiah/solvelog/internal/config"
	"github.com/ayoisaiah/solvelog/internal/manager"
	"github.com/ayoisaiah/solvelog/internal/router"
	"github.com/ayoisaiah/solvelog/internal/server"
	"github.com/ayoisaiah/solvelog/internal/session"
	"github.com/ayoisaiah/solvelog/store"
)

type serverTest struct {
	Name       string
	Method     string
	Path       string
	Body       string
	WantStatus int
	WantBody   string
}

func newHandler(t *testing.T, s config.Settings) (http.Handler, *store.Client) {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "solvelog.db"), store.Options{})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	m := manager.New(db, manager.WithClock(func() time.Time { return time.Unix(5000, 0) }))
	rt := router.New(m, nil, config.NewStatic(s))

	return server.New(rt).Handler(), db
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestEndpoints(t *testing.T) {
	s := config.Default()
	s.Timer.AllowManualStop = false

	h, _ := newHandler(t, s)

	cases := []serverTest{
		{
			Name:       "start a timer",
			Method:     http.MethodPost,
			Path:       "/events",
			Body:       `{"type":"timer_start","platform":"LeetCode","problemId":"two-sum","difficulty":"easy","startedAt":1000}`,
			WantStatus: http.StatusOK,
			WantBody:   `"status":"ACTIVE"`,
		},
		{
			Name:       "missing problem id",
			Method:     http.MethodPost,
			Path:       "/events",
			Body:       `{"type":"timer_start","platform":"leetcode"}`,
			WantStatus: http.StatusBadRequest,
			WantBody:   "invalid event",
		},
		{
			Name:       "malformed body",
			Method:     http.MethodPost,
			Path:       "/events",
			Body:       `{"type":`,
			WantStatus: http.StatusBadRequest,
		},
		{
			Name:       "manual stop is disabled",
			Method:     http.MethodPost,
			Path:       "/events",
			Body:       `{"type":"timer_stop","platform":"leetcode","problemId":"two-sum"}`,
			WantStatus: http.StatusBadRequest,
			WantBody:   "manual stop is disabled",
		},
		{
			Name:       "event without a session returns null",
			Method:     http.MethodPost,
			Path:       "/events",
			Body:       `{"type":"timer_pause","platform":"leetcode","problemId":"3sum"}`,
			WantStatus: http.StatusOK,
			WantBody:   "null",
		},
		{
			Name:       "get a session",
			Method:     http.MethodGet,
			Path:       "/sessions/leetcode/two-sum",
			WantStatus: http.StatusOK,
			WantBody:   `"difficulty":"Easy"`,
		},
		{
			Name:       "unknown session",
			Method:     http.MethodGet,
			Path:       "/sessions/leetcode/lru-cache",
			WantStatus: http.StatusNotFound,
		},
		{
			Name:       "list sessions",
			Method:     http.MethodGet,
			Path:       "/sessions",
			WantStatus: http.StatusOK,
			WantBody:   `"problem_key":"leetcode:two-sum"`,
		},
		{
			Name:       "read settings",
			Method:     http.MethodGet,
			Path:       "/settings",
			WantStatus: http.StatusOK,
			WantBody:   `"allow_manual_stop":false`,
		},
		{
			Name:       "reject invalid settings",
			Method:     http.MethodPut,
			Path:       "/settings",
			Body:       `{"timer":{"start_mode":"always"}}`,
			WantStatus: http.StatusBadRequest,
		},
		{
			Name:       "clear sessions",
			Method:     http.MethodDelete,
			Path:       "/sessions",
			WantStatus: http.StatusNoContent,
		},
		{
			Name:       "list after clear",
			Method:     http.MethodGet,
			Path:       "/sessions",
			WantStatus: http.StatusOK,
			WantBody:   "[]",
		},
		{
			Name:       "wrong method",
			Method:     http.MethodPatch,
			Path:       "/sessions",
			WantStatus: http.StatusMethodNotAllowed,
		},
	}

	// cases share the handler and run in order
	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			rec := do(t, h, tc.Method, tc.Path, tc.Body)

			assert.Equal(t, tc.WantStatus, rec.Code, rec.Body.String())

			if tc.WantBody != "" {
				assert.Contains(t, rec.Body.String(), tc.WantBody)
			}
		})
	}
}

func TestUpdateSettings(t *testing.T) {
	h, _ := newHandler(t, config.Default())

	s := config.Default()
	s.Prune.Days = 7

	b, err := json.Marshal(s)
	require.NoError(t, err)

	rec := do(t, h, http.MethodPut, "/settings", string(b))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/settings", "")

	var got config.Settings
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, 7, got.Prune.Days)
}

func TestStoreUnavailable(t *testing.T) {
	h, db := newHandler(t, config.Default())
	require.NoError(t, db.Close())

	rec := do(t, h, http.MethodPost, "/events",
		`{"type":"timer_start","platform":"leetcode","problemId":"two-sum"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, h, http.MethodGet, "/sessions", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestEventRoundTrip(t *testing.T) {
	h, _ := newHandler(t, config.Default())

	rec := do(t, h, http.MethodPost, "/events",
		`{"type":"submission","platform":"codeforces","problemId":"1920A","verdict":"OK","submissionId":"9","submittedAt":1200}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var got session.Record
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, session.StatusCompleted, got.Status)
	assert.Equal(t, "9", got.LastSubmissionID)
}

func TestListenAndServeStops(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "solvelog.db"), store.Options{})
	require.NoError(t, err)

	defer db.Close()

	srv := server.New(router.New(manager.New(db), nil, config.NewStatic(config.Default())))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- srv.ListenAndServe(ctx, 0)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down")
	}
}
