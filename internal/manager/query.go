package manager

import (
	"context"
	"fmt"
	"time"

	"github.com/ayoisaiah/solvelog/internal/session"
	"github.com/ayoisaiah/solvelog/internal/timer"
)

// ImportResult reports the outcome of Import.
type ImportResult struct {
	Imported int
	Dropped  int
}

// GetByKey returns the active session of a problem, or the most recent
// session of any status when none is active. It returns nil for an unknown
// problem.
func (m *Manager) GetByKey(
	ctx context.Context,
	platform, problemID string,
) (*session.Record, error) {
	platform, problemID, err := identity(platform, problemID)
	if err != nil {
		return nil, err
	}

	var out *session.Record

	err = m.do(ctx, func() error {
		recs, err := m.db.GetSessionsByProblem(platform, problemID)
		if err != nil {
			return fmt.Errorf("loading sessions: %w", err)
		}

		idx, _ := pick(recs)
		if idx == -1 {
			idx = latest(recs)
		}

		if idx != -1 {
			out = &recs[idx]
		}

		return nil
	})

	return out, err
}

// History returns every session of a problem, oldest first.
func (m *Manager) History(
	ctx context.Context,
	platform, problemID string,
) ([]session.Record, error) {
	platform, problemID, err := identity(platform, problemID)
	if err != nil {
		return nil, err
	}

	var out []session.Record

	err = m.do(ctx, func() error {
		out, err = m.db.GetSessionsByProblem(platform, problemID)

		return err
	})

	return out, err
}

// GetAll returns every stored session.
func (m *Manager) GetAll(ctx context.Context) ([]session.Record, error) {
	var out []session.Record

	err := m.do(ctx, func() error {
		var err error

		out, err = m.db.GetAllSessions()

		return err
	})

	return out, err
}

// ClearAll removes every stored session.
func (m *Manager) ClearAll(ctx context.Context) error {
	return m.do(ctx, m.db.ClearAllSessions)
}

// StopOthers stops every active or paused session that belongs to a problem
// other than the given one, and returns the sessions it stopped.
func (m *Manager) StopOthers(
	ctx context.Context,
	platform, problemID string,
	at int64,
	reason session.StopReason,
) ([]session.Record, error) {
	platform, problemID, err := identity(platform, problemID)
	if err != nil {
		return nil, err
	}

	key := session.BuildProblemKey(platform, problemID)

	var out []session.Record

	err = m.do(ctx, func() error {
		recs, err := m.db.GetAllSessions()
		if err != nil {
			return fmt.Errorf("loading sessions: %w", err)
		}

		ts := m.at(at)

		var stopped []session.Record

		for _, r := range recs {
			if r.ProblemKey == key {
				continue
			}

			if r.Status != session.StatusActive && r.Status != session.StatusPaused {
				continue
			}

			timer.Stop(&r, ts)
			r.Status = session.ReasonStatus(reason)
			r.StopReason = reason
			touch(&r, ts)

			stopped = append(stopped, r)
		}

		if len(stopped) == 0 {
			return nil
		}

		out, err = m.db.SaveSessions(stopped)
		if err != nil {
			return fmt.Errorf("stopping other sessions: %w", err)
		}

		return nil
	})

	return out, err
}

// ExpireInactive stops every running session that has not been seen since
// now-threshold. The session ends at its last heartbeat with reason timeout.
func (m *Manager) ExpireInactive(
	ctx context.Context,
	now time.Time,
	threshold time.Duration,
) ([]session.Record, error) {
	if threshold <= 0 {
		return nil, nil
	}

	cutoff := now.Add(-threshold).Unix()

	var out []session.Record

	err := m.do(ctx, func() error {
		recs, err := m.db.GetAllSessions()
		if err != nil {
			return fmt.Errorf("loading sessions: %w", err)
		}

		var expired []session.Record

		for _, r := range recs {
			if r.Status != session.StatusActive || !r.Running() || r.LastSeen >= cutoff {
				continue
			}

			timer.Stop(&r, r.LastSeen)
			r.Status = session.StatusTimedOut
			r.StopReason = session.ReasonTimeout

			expired = append(expired, r)
		}

		if len(expired) == 0 {
			return nil
		}

		out, err = m.db.SaveSessions(expired)
		if err != nil {
			return fmt.Errorf("expiring sessions: %w", err)
		}

		m.log.Info("expired inactive sessions", "count", len(out))

		return nil
	})

	return out, err
}

// Import normalizes raw records and stores them. With replace set the store
// is emptied first. Records without an id get a deterministic one so that
// importing the same file twice does not duplicate sessions.
func (m *Manager) Import(
	ctx context.Context,
	raws []session.Raw,
	replace bool,
) (ImportResult, error) {
	var res ImportResult

	err := m.do(ctx, func() error {
		now := m.now().Unix()

		recs := make([]session.Record, 0, len(raws))

		for _, raw := range raws {
			rec, err := session.FromRaw(raw, now)
			if err != nil {
				res.Dropped++

				continue
			}

			if rec.ID == "" {
				rec.ID = session.LegacyID(rec.Platform, rec.ProblemID, rec.FirstSeen)
			}

			recs = append(recs, rec)
		}

		var err error

		if replace {
			_, err = m.db.ReplaceAllSessions(recs)
		} else {
			_, err = m.db.SaveSessions(recs)
		}

		if err != nil {
			return fmt.Errorf("importing sessions: %w", err)
		}

		res.Imported = len(recs)

		return nil
	})

	return res, err
}
