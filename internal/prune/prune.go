// Package prune enforces retention limits on stored sessions
package prune

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/ayoisaiah/solvelog/internal/config"
	"github.com/ayoisaiah/solvelog/internal/session"
	"github.com/ayoisaiah/solvelog/store"
)

// Queue runs fn with exclusive access to the store.
type Queue interface {
	Exclusive(ctx context.Context, fn func(db store.DB) error) error
}

// Result reports the outcome of a sweep.
type Result struct {
	Kept    int
	Removed int
	Active  int
}

// Pruner removes old completed sessions.
type Pruner struct {
	queue    Queue
	settings config.Source
	log      *slog.Logger
}

// New returns a Pruner. A nil logger means slog.Default().
func New(queue Queue, settings config.Source, log *slog.Logger) *Pruner {
	if log == nil {
		log = slog.Default()
	}

	return &Pruner{
		queue:    queue,
		settings: settings,
		log:      log,
	}
}

// Run loads every session, applies the retention limits and writes the
// surviving set back in a single replace. Nothing is written when no session
// is removed.
func (p *Pruner) Run(ctx context.Context, now time.Time) (Result, error) {
	s, err := p.settings.Settings(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("loading prune settings: %w", err)
	}

	days, maxSessions := s.PruneLimits()

	var res Result

	err = p.queue.Exclusive(ctx, func(db store.DB) error {
		recs, err := db.GetAllSessions()
		if err != nil {
			return fmt.Errorf("loading sessions: %w", err)
		}

		kept, active := Select(recs, days, maxSessions, now)

		res = Result{
			Kept:    len(kept),
			Removed: len(recs) - len(kept),
			Active:  active,
		}

		if res.Removed == 0 {
			return nil
		}

		if _, err := db.ReplaceAllSessions(kept); err != nil {
			return fmt.Errorf("writing pruned sessions: %w", err)
		}

		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if res.Removed > 0 {
		p.log.Info(
			"pruned sessions",
			"removed", res.Removed,
			"kept", res.Kept,
		)
	}

	return res, nil
}

// Select returns the sessions to keep and the number of active ones among
// them. Non-terminal sessions are always kept. Completed sessions older than
// days are dropped, and the newest of the rest fill whatever of maxSessions
// the active sessions leave.
func Select(
	recs []session.Record,
	days, maxSessions int,
	now time.Time,
) ([]session.Record, int) {
	cutoff := now.AddDate(0, 0, -days).Unix()

	var active, completed []session.Record

	for i := range recs {
		if !recs[i].Status.Terminal() {
			active = append(active, recs[i])

			continue
		}

		if endedAt(recs[i]) < cutoff {
			continue
		}

		completed = append(completed, recs[i])
	}

	slices.SortStableFunc(completed, func(a, b session.Record) int {
		return cmp.Or(
			cmp.Compare(endedAt(b), endedAt(a)),
			cmp.Compare(a.ID, b.ID),
		)
	})

	budget := max(0, maxSessions-len(active))
	if len(completed) > budget {
		completed = completed[:budget]
	}

	return append(active, completed...), len(active)
}

func endedAt(r session.Record) int64 {
	if r.EndTime != nil {
		return *r.EndTime
	}

	return r.LastUpdated
}
