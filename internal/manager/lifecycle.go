package manager

import (
	"context"

	"github.com/ayoisaiah/solvelog/internal/session"
	"github.com/ayoisaiah/solvelog/internal/timer"
)

// StartOptions configures Start.
type StartOptions struct {
	Difficulty session.Difficulty
	// At is the start time in unix seconds. Zero means now.
	At int64
}

// StopOptions configures Stop.
type StopOptions struct {
	// Reason defaults to session.ReasonManual.
	Reason session.StopReason
	At     int64
}

// TouchOptions configures Touch.
type TouchOptions struct {
	Difficulty session.Difficulty
	At         int64
}

// Submission is a judge verdict for a problem.
type Submission struct {
	// Success overrides the verdict check when set.
	Success      *bool
	Platform     string
	ProblemID    string
	Verdict      string
	Language     string
	SubmissionID string
	At           int64
	// NoAutoStop keeps a running timer going after an accepted verdict.
	NoAutoStop bool
}

// Start starts or continues the timer of the active session, creating one
// when the problem has none.
func (m *Manager) Start(
	ctx context.Context,
	platform, problemID string,
	opts StartOptions,
) (*session.Record, error) {
	platform, problemID, err := identity(platform, problemID)
	if err != nil {
		return nil, err
	}

	var out *session.Record

	err = m.do(ctx, func() error {
		at := m.at(opts.At)

		rec, _, ok, err := m.resolve(platform, problemID)
		if err != nil {
			return err
		}

		if !ok {
			rec = m.fresh(platform, problemID, at)
		}

		if !opts.Difficulty.IsZero() {
			rec.Difficulty = opts.Difficulty
		}

		timer.Start(&rec, at)
		rec.Status = session.StatusActive
		rec.StopReason = ""
		touch(&rec, at)

		out, err = m.save(rec)

		return err
	})

	return out, err
}

// Stop ends the active session. It returns nil when the problem has no
// active session. An IDLE session is returned unchanged.
func (m *Manager) Stop(
	ctx context.Context,
	platform, problemID string,
	opts StopOptions,
) (*session.Record, error) {
	platform, problemID, err := identity(platform, problemID)
	if err != nil {
		return nil, err
	}

	reason := opts.Reason
	if reason == "" {
		reason = session.ReasonManual
	}

	if !reason.Valid() {
		reason = session.ReasonUnknown
	}

	var out *session.Record

	err = m.do(ctx, func() error {
		rec, _, ok, err := m.resolve(platform, problemID)
		if err != nil || !ok {
			return err
		}

		if rec.Status == session.StatusIdle {
			out = &rec

			return nil
		}

		at := m.at(opts.At)

		timer.Stop(&rec, at)
		rec.Status = session.ReasonStatus(reason)
		rec.StopReason = reason
		touch(&rec, at)

		out, err = m.save(rec)

		return err
	})

	return out, err
}

// Pause pauses the running timer of the active session. A session that is
// not running is returned unchanged.
func (m *Manager) Pause(
	ctx context.Context,
	platform, problemID string,
	at int64,
) (*session.Record, error) {
	platform, problemID, err := identity(platform, problemID)
	if err != nil {
		return nil, err
	}

	var out *session.Record

	err = m.do(ctx, func() error {
		rec, _, ok, err := m.resolve(platform, problemID)
		if err != nil || !ok {
			return err
		}

		ts := m.at(at)

		if !timer.Pause(&rec, ts) {
			out = &rec

			return nil
		}

		rec.Status = session.StatusPaused
		touch(&rec, ts)

		out, err = m.save(rec)

		return err
	})

	return out, err
}

// Resume restarts the timer of a paused session. Sessions that are running
// or have never been started are returned unchanged.
func (m *Manager) Resume(
	ctx context.Context,
	platform, problemID string,
	at int64,
) (*session.Record, error) {
	platform, problemID, err := identity(platform, problemID)
	if err != nil {
		return nil, err
	}

	var out *session.Record

	err = m.do(ctx, func() error {
		rec, _, ok, err := m.resolve(platform, problemID)
		if err != nil || !ok {
			return err
		}

		if rec.Status == session.StatusIdle || rec.Running() {
			out = &rec

			return nil
		}

		ts := m.at(at)

		timer.Resume(&rec, ts)
		rec.Status = session.StatusActive
		touch(&rec, ts)

		out, err = m.save(rec)

		return err
	})

	return out, err
}

// Reset zeroes the timer of the active session, or of the most recent
// session when none is active, and leaves it IDLE.
func (m *Manager) Reset(
	ctx context.Context,
	platform, problemID string,
	at int64,
) (*session.Record, error) {
	platform, problemID, err := identity(platform, problemID)
	if err != nil {
		return nil, err
	}

	var out *session.Record

	err = m.do(ctx, func() error {
		rec, recs, ok, err := m.resolve(platform, problemID)
		if err != nil {
			return err
		}

		if !ok {
			idx := latest(recs)
			if idx == -1 {
				return nil
			}

			rec = recs[idx]
		}

		timer.Reset(&rec)
		rec.Status = session.StatusIdle
		rec.StopReason = session.ReasonReset
		touch(&rec, m.at(at))

		out, err = m.save(rec)

		return err
	})

	return out, err
}

// RecordSubmission records a verdict on the active session. Repeating a
// submission id is a no-op. An accepted verdict completes the session unless
// NoAutoStop is set and the timer has been used. A failing submission for a
// problem with no active session is dropped and nil is returned.
func (m *Manager) RecordSubmission(
	ctx context.Context,
	sub Submission,
) (*session.Record, error) {
	platform, problemID, err := identity(sub.Platform, sub.ProblemID)
	if err != nil {
		return nil, err
	}

	success := session.IsAccepted(sub.Verdict)
	if sub.Success != nil {
		success = *sub.Success
	}

	var out *session.Record

	err = m.do(ctx, func() error {
		at := m.at(sub.At)

		rec, recs, ok, err := m.resolve(platform, problemID)
		if err != nil {
			return err
		}

		if !ok {
			if !success {
				m.log.Debug(
					"dropping failed submission without an active session",
					"platform", platform,
					"problem_id", problemID,
				)

				return nil
			}

			if idx := latest(recs); idx != -1 && duplicate(recs[idx], sub.SubmissionID) {
				out = &recs[idx]

				return nil
			}

			rec = m.fresh(platform, problemID, at)
		}

		if duplicate(rec, sub.SubmissionID) {
			out = &rec

			return nil
		}

		rec.AttemptCount++
		rec.Verdict = sub.Verdict

		if sub.Language != "" {
			rec.Language = sub.Language
		}

		if sub.SubmissionID != "" {
			rec.LastSubmissionID = sub.SubmissionID
		}

		if success && (!sub.NoAutoStop || neverTimed(rec)) {
			timer.Stop(&rec, at)
			rec.Status = session.StatusCompleted
			rec.StopReason = session.ReasonAccepted
		}

		touch(&rec, at)

		out, err = m.save(rec)

		return err
	})

	return out, err
}

func duplicate(r session.Record, submissionID string) bool {
	return submissionID != "" && r.LastSubmissionID == submissionID
}

func neverTimed(r session.Record) bool {
	return r.StartTime == nil && !r.IsPaused && r.ElapsedSeconds == 0
}

// Touch records a heartbeat on the active session without changing its
// timer. It never creates a session and returns nil when none is active.
func (m *Manager) Touch(
	ctx context.Context,
	platform, problemID string,
	opts TouchOptions,
) (*session.Record, error) {
	platform, problemID, err := identity(platform, problemID)
	if err != nil {
		return nil, err
	}

	var out *session.Record

	err = m.do(ctx, func() error {
		rec, _, ok, err := m.resolve(platform, problemID)
		if err != nil || !ok {
			return err
		}

		if !opts.Difficulty.IsZero() {
			rec.Difficulty = opts.Difficulty
		}

		touch(&rec, m.at(opts.At))

		out, err = m.save(rec)

		return err
	})

	return out, err
}
