package prune_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayoisaiah/solvelog/internal/config"
	"github.com/ayoisaiah/solvelog/internal/manager"
	"github.com/ayoisaiah/solvelog/internal/prune"
	"github.com/ayoisaiah/solvelog/internal/session"
	"github.com/ayoisaiah/solvelog/store"
)

const day = 86400

var now = time.Unix(100*day, 0)

func completed(id string, endDay int64) session.Record {
	return session.Record{
		ID:         id,
		Platform:   "leetcode",
		ProblemID:  id,
		Status:     session.StatusCompleted,
		StopReason: session.ReasonAccepted,
		EndTime:    session.Int64(endDay * day),
	}
}

func active(id string) session.Record {
	return session.Record{
		ID:        id,
		Platform:  "leetcode",
		ProblemID: id,
		Status:    session.StatusActive,
		StartTime: session.Int64(99 * day),
	}
}

func ids(recs []session.Record) []string {
	out := make([]string, 0, len(recs))

	for _, r := range recs {
		out = append(out, r.ID)
	}

	return out
}

type selectTest struct {
	Name        string
	Records     []session.Record
	Want        []string
	Days        int
	MaxSessions int
	WantActive  int
}

var selectTestCases = []selectTest{
	{
		Name: "old completed sessions are dropped",
		Records: []session.Record{
			completed("old", 5),
			completed("recent", 95),
		},
		Days:        90,
		MaxSessions: 10,
		Want:        []string{"recent"},
	},
	{
		Name: "newest completed sessions fill the budget",
		Records: []session.Record{
			completed("a", 91),
			completed("b", 99),
			completed("c", 95),
			active("live"),
		},
		Days:        90,
		MaxSessions: 3,
		Want:        []string{"live", "b", "c"},
		WantActive:  1,
	},
	{
		Name: "active sessions are kept beyond the budget",
		Records: []session.Record{
			active("x"),
			active("y"),
			completed("done", 99),
		},
		Days:        90,
		MaxSessions: 1,
		Want:        []string{"x", "y"},
		WantActive:  2,
	},
	{
		Name: "last updated stands in for a missing end time",
		Records: []session.Record{
			{
				ID:          "no-end",
				Status:      session.StatusAbandoned,
				LastUpdated: 2 * day,
			},
		},
		Days:        90,
		MaxSessions: 10,
		Want:        []string{},
	},
}

func TestSelect(t *testing.T) {
	for _, tc := range selectTestCases {
		t.Run(tc.Name, func(t *testing.T) {
			kept, activeCount := prune.Select(tc.Records, tc.Days, tc.MaxSessions, now)

			assert.Equal(t, tc.Want, ids(kept))
			assert.Equal(t, tc.WantActive, activeCount)
			assert.LessOrEqual(t, len(kept), max(tc.MaxSessions, activeCount))
		})
	}
}

func newStore(t *testing.T) store.DB {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "solvelog.db"), store.Options{
		Now: func() time.Time { return now },
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	db := newStore(t)

	_, err := db.SaveSessions([]session.Record{
		completed("old", 1),
		completed("a", 97),
		completed("b", 98),
		active("live"),
	})
	require.NoError(t, err)

	settings := config.Default()
	settings.Prune.MaxSessions = 2

	p := prune.New(manager.New(db), config.NewStatic(settings), nil)

	res, err := p.Run(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, prune.Result{Kept: 2, Removed: 2, Active: 1}, res)

	all, err := db.GetAllSessions()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"live", "b"}, ids(all))

	res, err = p.Run(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Removed)
}

// failingDB returns an error from every bulk write.
type failingDB struct {
	store.DB
}

var errWrite = errors.New("disk full")

func (f failingDB) ReplaceAllSessions([]session.Record) ([]session.Record, error) {
	return nil, errWrite
}

func TestRunWriteFailureKeepsData(t *testing.T) {
	ctx := context.Background()
	db := newStore(t)

	_, err := db.SaveSessions([]session.Record{completed("old", 1)})
	require.NoError(t, err)

	p := prune.New(manager.New(failingDB{db}), config.NewStatic(config.Default()), nil)

	_, err = p.Run(ctx, now)
	assert.ErrorIs(t, err, errWrite)

	all, err := db.GetAllSessions()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
