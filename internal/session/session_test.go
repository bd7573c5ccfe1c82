package session_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayoisaiah/solvelog/internal/session"
)

const now int64 = 1_700_000_000

type rawTest struct {
	Raw  session.Raw
	Name string
}

var rawTestCases = []rawTest{
	{
		Name: "fresh record with nothing but identity",
		Raw:  session.Raw{"platform": "LeetCode", "problemId": "two-sum"},
	},
	{
		Name: "running timer",
		Raw: session.Raw{
			"platform":   "leetcode",
			"problem_id": "two-sum",
			"start_time": 1000,
			"difficulty": "medium",
		},
	},
	{
		Name: "paused with a stale start time",
		Raw: session.Raw{
			"platform":         "codeforces",
			"problemId":        "1920A",
			"startTime":        "1000",
			"pausedAt":         1400,
			"isPaused":         true,
			"elapsedSeconds":   "20",
			"difficulty":       "1500",
			"attempt_count":    2.0,
			"status":           "active",
			"last_updated":     1400,
			"lastSubmissionId": "x",
		},
	},
	{
		Name: "ended record with start time still set",
		Raw: session.Raw{
			"platform":   "atcoder",
			"problemId":  "abc300_a",
			"start_time": 1000,
			"end_time":   1600,
			"verdict":    " Accepted ",
		},
	},
	{
		Name: "explicit terminal status without an end time",
		Raw: session.Raw{
			"platform":    "leetcode",
			"problemId":   "3sum",
			"status":      "TIMED_OUT",
			"last_seen":   3000,
			"stop_reason": "accepted",
		},
	},
	{
		Name: "negative elapsed and bogus reason",
		Raw: session.Raw{
			"platform":        "leetcode",
			"problemId":       "lru-cache",
			"elapsed_seconds": -50,
			"stop_reason":     "manual",
		},
	},
	{
		Name: "reset record keeps its reason",
		Raw: session.Raw{
			"platform":    "leetcode",
			"problemId":   "lru-cache",
			"status":      "IDLE",
			"stop_reason": "reset",
			"first_seen":  10,
		},
	},
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, tc := range rawTestCases {
		t.Run(tc.Name, func(t *testing.T) {
			once, err := session.FromRaw(tc.Raw, now)
			require.NoError(t, err)

			twice, err := session.Normalize(once, now+500)
			require.NoError(t, err)

			if diff := cmp.Diff(once, twice); diff != "" {
				t.Errorf("normalize is not idempotent (-once +twice):\n%s", diff)
			}

			assertInvariants(t, once)
		})
	}
}

func assertInvariants(t *testing.T, r session.Record) {
	t.Helper()

	assert.Equal(t, session.BuildProblemKey(r.Platform, r.ProblemID), r.ProblemKey)
	assert.False(t, r.StartTime != nil && r.EndTime != nil, "start and end both set")

	if r.IsPaused {
		assert.Nil(t, r.StartTime, "paused record has a start time")
	}

	assert.GreaterOrEqual(t, r.ElapsedSeconds, int64(0))

	if r.Status.Terminal() {
		require.NotNil(t, r.EndTime)
		require.NotEmpty(t, r.StopReason)
		assert.Equal(t, r.Status, session.ReasonStatus(r.StopReason))
	}

	assert.Equal(t, session.SchemaVersion, r.SchemaVersion)
}

func TestFromRawCoercion(t *testing.T) {
	rec, err := session.FromRaw(rawTestCases[2].Raw, now)
	require.NoError(t, err)

	assert.Equal(t, "codeforces:1920A", rec.ProblemKey)
	assert.Equal(t, session.StatusPaused, rec.Status)
	assert.Nil(t, rec.StartTime)
	assert.Equal(t, int64(420), rec.ElapsedSeconds)
	assert.Equal(t, 2, rec.AttemptCount)
	assert.Equal(t, session.Rating(1500), rec.Difficulty)
	assert.Equal(t, "x", rec.LastSubmissionID)
	assert.Equal(t, int64(1000), rec.FirstSeen)
	assert.Equal(t, int64(1000), rec.LastSeen)
	assert.Equal(t, int64(1400), rec.LastUpdated)
}

func TestFromRawEndedRecord(t *testing.T) {
	rec, err := session.FromRaw(rawTestCases[3].Raw, now)
	require.NoError(t, err)

	assert.Equal(t, session.StatusCompleted, rec.Status)
	assert.Equal(t, session.ReasonAccepted, rec.StopReason)
	assert.Equal(t, int64(600), rec.ElapsedSeconds)
	assert.Nil(t, rec.StartTime)
	assert.Equal(t, "Accepted", rec.Verdict)
}

func TestExplicitTerminalWithoutEnd(t *testing.T) {
	rec, err := session.FromRaw(rawTestCases[4].Raw, now)
	require.NoError(t, err)

	assert.Equal(t, session.StatusTimedOut, rec.Status)
	assert.Equal(t, session.ReasonTimeout, rec.StopReason)
	require.NotNil(t, rec.EndTime)
	assert.Equal(t, int64(3000), *rec.EndTime)
}

func TestFromRawMissingIdentity(t *testing.T) {
	cases := []session.Raw{
		{"platform": "leetcode"},
		{"problemId": "two-sum"},
		{"platform": "  ", "problemId": "two-sum"},
		{},
	}

	for _, raw := range cases {
		_, err := session.FromRaw(raw, now)
		assert.True(t, errors.Is(err, session.ErrMissingIdentity))
	}
}

type inferTest struct {
	Name   string
	Record session.Record
	Want   session.Status
}

var inferTestCases = []inferTest{
	{
		Name: "nothing set",
		Want: session.StatusIdle,
	},
	{
		Name:   "ended with accepted verdict",
		Record: session.Record{EndTime: session.Int64(10), Verdict: "AC"},
		Want:   session.StatusCompleted,
	},
	{
		Name:   "ended with wrong answer",
		Record: session.Record{EndTime: session.Int64(10), Verdict: "Wrong Answer"},
		Want:   session.StatusAbandoned,
	},
	{
		Name:   "paused",
		Record: session.Record{IsPaused: true, ElapsedSeconds: 30},
		Want:   session.StatusPaused,
	},
	{
		Name:   "running",
		Record: session.Record{StartTime: session.Int64(10)},
		Want:   session.StatusActive,
	},
	{
		Name:   "time accumulated but not running",
		Record: session.Record{ElapsedSeconds: 5},
		Want:   session.StatusActive,
	},
	{
		Name:   "explicit status is trusted",
		Record: session.Record{Status: session.StatusSwitched},
		Want:   session.StatusSwitched,
	},
	{
		Name: "explicit active contradicted by end time",
		Record: session.Record{
			Status:  session.StatusActive,
			EndTime: session.Int64(10),
		},
		Want: session.StatusAbandoned,
	},
	{
		Name:   "unknown status falls back to inference",
		Record: session.Record{Status: "RUNNING", IsPaused: true},
		Want:   session.StatusPaused,
	},
}

func TestInferStatus(t *testing.T) {
	for _, tc := range inferTestCases {
		t.Run(tc.Name, func(t *testing.T) {
			assert.Equal(t, tc.Want, session.InferStatus(&tc.Record))
		})
	}
}

func TestReasonStatus(t *testing.T) {
	want := map[session.StopReason]session.Status{
		session.ReasonAccepted:      session.StatusCompleted,
		session.ReasonTimeout:       session.StatusTimedOut,
		session.ReasonProblemSwitch: session.StatusSwitched,
		session.ReasonManual:        session.StatusAbandoned,
		session.ReasonUnknown:       session.StatusAbandoned,
		session.ReasonReset:         session.StatusAbandoned,
		"":                          session.StatusAbandoned,
	}

	for reason, status := range want {
		assert.Equal(t, status, session.ReasonStatus(reason), "reason %q", reason)
	}
}

func TestBuildProblemKey(t *testing.T) {
	assert.Equal(t, "leetcode:two-sum", session.BuildProblemKey("LeetCode", "two-sum"))
	assert.Equal(t, "codeforces:1920A", session.BuildProblemKey(" CodeForces ", "1920A "))
}

func TestParseDifficulty(t *testing.T) {
	cases := []struct {
		In   any
		Want session.Difficulty
	}{
		{In: nil, Want: session.Difficulty{}},
		{In: 1500, Want: session.Rating(1500)},
		{In: 2.5, Want: session.Rating(2.5)},
		{In: "800", Want: session.Rating(800)},
		{In: "  hard ", Want: session.Label("Hard")},
		{In: "MEDIUM", Want: session.Label("Medium")},
		{In: "", Want: session.Difficulty{}},
		{In: true, Want: session.Difficulty{}},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.Want, session.ParseDifficulty(tc.In), "input %v", tc.In)
	}
}

func TestDifficultyJSON(t *testing.T) {
	cases := map[string]session.Difficulty{
		`1500`:   session.Rating(1500),
		`"Easy"`: session.Label("Easy"),
		`null`:   {},
	}

	for encoded, d := range cases {
		b, err := json.Marshal(d)
		require.NoError(t, err)
		assert.JSONEq(t, encoded, string(b))

		var decoded session.Difficulty
		require.NoError(t, json.Unmarshal([]byte(encoded), &decoded))
		assert.Equal(t, d, decoded)
	}
}

func TestIsAccepted(t *testing.T) {
	for _, v := range []string{"Accepted", "AC", " ok ", "PASSED", "Solved"} {
		assert.True(t, session.IsAccepted(v), v)
	}

	for _, v := range []string{"", "Wrong Answer", "Time Limit Exceeded", "Runtime Error"} {
		assert.False(t, session.IsAccepted(v), v)
	}
}
