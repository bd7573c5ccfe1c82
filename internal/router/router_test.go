package router_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayoisaiah/solvelog/internal/config"
	"github.com/ayoisaiah/solvelog/internal/manager"
	"github.com/ayoisaiah/solvelog/internal/prune"
	"github.com/ayoisaiah/solvelog/internal/router"
	"github.com/ayoisaiah/solvelog/internal/session"
	"github.com/ayoisaiah/solvelog/store"
)

var clock = time.Unix(10_000, 0)

type fixture struct {
	router   *router.Router
	settings *config.Static
	terminal []session.Record
}

func newFixture(t *testing.T, modify func(s *config.Settings)) *fixture {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "solvelog.db"), store.Options{
		Now: func() time.Time { return clock },
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	s := config.Default()
	if modify != nil {
		modify(&s)
	}

	f := &fixture{settings: config.NewStatic(s)}

	n := 0
	m := manager.New(
		db,
		manager.WithClock(func() time.Time { return clock }),
		manager.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("s%03d", n)
		}),
	)

	f.router = router.New(
		m,
		prune.New(m, f.settings, nil),
		f.settings,
		router.WithClock(func() time.Time { return clock }),
		router.OnTerminal(func(_ context.Context, rec session.Record) {
			f.terminal = append(f.terminal, rec)
		}),
	)

	return f
}

func (f *fixture) handle(t *testing.T, ev router.Event) *session.Record {
	t.Helper()

	rec, err := f.router.Handle(context.Background(), ev)
	require.NoError(t, err)

	return rec
}

func TestTwoSumScenario(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.handle(t, router.Event{
		Type:       "timer_start",
		Platform:   "LeetCode",
		ProblemID:  "two-sum",
		Difficulty: session.Label("Easy"),
		StartedAt:  1000,
	})
	require.NotNil(t, rec)
	assert.Equal(t, session.StatusActive, rec.Status)

	rec = f.handle(t, router.Event{
		Type:      "timer_pause",
		Platform:  "leetcode",
		ProblemID: "two-sum",
		PausedAt:  1400,
	})
	assert.Equal(t, session.StatusPaused, rec.Status)
	assert.Equal(t, int64(400), rec.ElapsedSeconds)

	rec = f.handle(t, router.Event{
		Type:      "timer_resume",
		Platform:  "leetcode",
		ProblemID: "two-sum",
		ResumedAt: 1500,
	})
	assert.Equal(t, session.StatusActive, rec.Status)

	submission := router.Event{
		Type:         "submission",
		Platform:     "leetcode",
		ProblemID:    "two-sum",
		Verdict:      "Accepted",
		Language:     "go",
		SubmissionID: "s1",
		SubmittedAt:  1600,
	}

	rec = f.handle(t, submission)
	assert.Equal(t, session.StatusCompleted, rec.Status)
	assert.Equal(t, session.ReasonAccepted, rec.StopReason)
	assert.Equal(t, int64(500), rec.ElapsedSeconds)
	assert.Equal(t, 1, rec.AttemptCount)

	rec = f.handle(t, submission)
	assert.Equal(t, 1, rec.AttemptCount)
	assert.Equal(t, session.StatusCompleted, rec.Status)

	require.Len(t, f.terminal, 1)
	assert.Equal(t, "two-sum", f.terminal[0].ProblemID)

	got, err := f.router.Session(context.Background(), "leetcode", "two-sum")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
}

func TestInvalidEvent(t *testing.T) {
	f := newFixture(t, nil)

	for _, ev := range []router.Event{
		{Type: "timer_start", ProblemID: "two-sum"},
		{Type: "timer_start", Platform: "leetcode", ProblemID: "  "},
	} {
		_, err := f.router.Handle(context.Background(), ev)
		assert.ErrorIs(t, err, router.ErrInvalidEvent)
	}

	_, err := f.router.Session(context.Background(), "", "x")
	assert.ErrorIs(t, err, router.ErrInvalidEvent)
}

func TestDisabledPlatformIsIgnored(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.handle(t, router.Event{
		Type:      "timer_start",
		Platform:  "spoj",
		ProblemID: "TEST",
	})
	assert.Nil(t, rec)

	all, err := f.router.Sessions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestEventTypeIsCaseInsensitive(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.handle(t, router.Event{
		Type:      " TIMER_START ",
		Platform:  "atcoder",
		ProblemID: "abc300_a",
	})
	require.NotNil(t, rec)
	assert.Equal(t, session.StatusActive, rec.Status)
}

func TestUnknownEventOnlyTouches(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.handle(t, router.Event{Type: "heartbeat", Platform: "leetcode", ProblemID: "x"})
	assert.Nil(t, rec)

	f.handle(t, router.Event{Type: "timer_start", Platform: "leetcode", ProblemID: "x", At: 100})

	rec = f.handle(t, router.Event{Type: "heartbeat", Platform: "leetcode", ProblemID: "x", At: 500})
	require.NotNil(t, rec)
	assert.Equal(t, int64(500), rec.LastSeen)
	assert.True(t, rec.Running())
}

func TestManualStopDisabled(t *testing.T) {
	f := newFixture(t, func(s *config.Settings) {
		s.Timer.AllowManualStop = false
	})

	f.handle(t, router.Event{Type: "timer_start", Platform: "leetcode", ProblemID: "x", At: 100})

	_, err := f.router.Handle(context.Background(), router.Event{
		Type:      "timer_stop",
		Platform:  "leetcode",
		ProblemID: "x",
	})
	assert.ErrorIs(t, err, router.ErrManualStopDisabled)

	rec := f.handle(t, router.Event{
		Type:      "timer_stop",
		Platform:  "leetcode",
		ProblemID: "x",
		Reason:    session.ReasonTimeout,
		StoppedAt: 200,
	})
	assert.Equal(t, session.StatusTimedOut, rec.Status)
	assert.Equal(t, int64(100), rec.ElapsedSeconds)
	assert.Len(t, f.terminal, 1)
}

func TestStopReasonIsCaseInsensitive(t *testing.T) {
	f := newFixture(t, func(s *config.Settings) {
		s.Timer.AllowManualStop = false
	})

	f.handle(t, router.Event{Type: "timer_start", Platform: "leetcode", ProblemID: "x", At: 100})

	for _, reason := range []session.StopReason{"MANUAL", " Manual "} {
		_, err := f.router.Handle(context.Background(), router.Event{
			Type:      "timer_stop",
			Platform:  "leetcode",
			ProblemID: "x",
			Reason:    reason,
		})
		assert.ErrorIs(t, err, router.ErrManualStopDisabled, reason)
	}

	rec := f.handle(t, router.Event{
		Type:      "timer_stop",
		Platform:  "leetcode",
		ProblemID: "x",
		Reason:    "Timeout",
		StoppedAt: 250,
	})
	assert.Equal(t, session.StatusTimedOut, rec.Status)
	assert.Equal(t, session.ReasonTimeout, rec.StopReason)
	assert.Equal(t, int64(150), rec.ElapsedSeconds)
}

func TestAutoStopOnProblemSwitch(t *testing.T) {
	f := newFixture(t, func(s *config.Settings) {
		s.Timer.AutoStopOnProblemSwitch = true
	})

	f.handle(t, router.Event{Type: "timer_start", Platform: "leetcode", ProblemID: "a", At: 100})

	rec := f.handle(t, router.Event{Type: "timer_start", Platform: "codeforces", ProblemID: "b", At: 250})
	assert.Equal(t, session.StatusActive, rec.Status)

	require.Len(t, f.terminal, 1)
	assert.Equal(t, "a", f.terminal[0].ProblemID)
	assert.Equal(t, session.StatusSwitched, f.terminal[0].Status)
	assert.Equal(t, int64(150), f.terminal[0].ElapsedSeconds)
}

func TestNoAutoStopOnAccepted(t *testing.T) {
	f := newFixture(t, func(s *config.Settings) {
		s.Timer.AutoStopOnAccepted = false
	})

	f.handle(t, router.Event{Type: "timer_start", Platform: "leetcode", ProblemID: "x", At: 100})

	rec := f.handle(t, router.Event{
		Type:      "submission",
		Platform:  "leetcode",
		ProblemID: "x",
		Verdict:   "Accepted",
		At:        200,
	})
	assert.Equal(t, session.StatusActive, rec.Status)
	assert.Empty(t, f.terminal)
}

func TestFailedSubmissionWithoutSessionIsDropped(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.handle(t, router.Event{
		Type:      "submission",
		Platform:  "leetcode",
		ProblemID: "x",
		Verdict:   "Wrong Answer",
	})
	assert.Nil(t, rec)
}

func TestPageViewStartMode(t *testing.T) {
	t.Run("manual mode does not start", func(t *testing.T) {
		f := newFixture(t, nil)

		rec := f.handle(t, router.Event{Type: "page_view", Platform: "leetcode", ProblemID: "x"})
		assert.Nil(t, rec)
	})

	t.Run("page view mode starts an unsolved problem", func(t *testing.T) {
		f := newFixture(t, func(s *config.Settings) {
			s.Timer.StartMode = config.StartModePageView
		})

		rec := f.handle(t, router.Event{Type: "page_view", Platform: "leetcode", ProblemID: "x", At: 100})
		require.NotNil(t, rec)
		assert.Equal(t, session.StatusActive, rec.Status)

		again := f.handle(t, router.Event{Type: "page_view", Platform: "leetcode", ProblemID: "x", At: 200})
		assert.Equal(t, rec.ID, again.ID)
		assert.Equal(t, int64(100), *again.StartTime)
	})

	t.Run("page view mode leaves solved problems alone", func(t *testing.T) {
		f := newFixture(t, func(s *config.Settings) {
			s.Timer.StartMode = config.StartModePageView
		})

		f.handle(t, router.Event{Type: "submission", Platform: "leetcode", ProblemID: "x", Verdict: "AC", At: 100})

		rec := f.handle(t, router.Event{Type: "page_view", Platform: "leetcode", ProblemID: "x", At: 200})
		assert.Nil(t, rec)
	})
}

func TestPruneAfterStop(t *testing.T) {
	f := newFixture(t, func(s *config.Settings) {
		s.Prune.MaxSessions = 1
	})

	for i, p := range []string{"a", "b"} {
		at := int64(100 * (i + 1))

		f.handle(t, router.Event{Type: "timer_start", Platform: "leetcode", ProblemID: p, At: at})
		f.handle(t, router.Event{Type: "timer_stop", Platform: "leetcode", ProblemID: p, At: at + 50})
	}

	all, err := f.router.Sessions(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "b", all[0].ProblemID)
}

func TestStartupPrunes(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.router.Startup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, prune.Result{}, res)
}

type readOnly struct{}

func (readOnly) Settings(context.Context) (config.Settings, error) {
	return config.Default(), nil
}

func TestUpdateSettings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	s, err := f.router.Settings(ctx)
	require.NoError(t, err)

	s.Timer.AllowManualStop = false
	require.NoError(t, f.router.UpdateSettings(ctx, s))

	got, err := f.router.Settings(ctx)
	require.NoError(t, err)
	assert.False(t, got.Timer.AllowManualStop)

	r := router.New(nil, nil, readOnly{})
	assert.ErrorIs(t, r.UpdateSettings(ctx, s), router.ErrReadOnlySettings)
}

func TestClearSessions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	f.handle(t, router.Event{Type: "timer_start", Platform: "leetcode", ProblemID: "x"})
	require.NoError(t, f.router.ClearSessions(ctx))

	all, err := f.router.Sessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
