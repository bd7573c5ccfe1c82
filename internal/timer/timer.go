// Package timer implements the session timer transitions. The functions are
// pure: they only touch the timer fields of the record they are given and
// never read the clock, so callers pass the timestamp in unix seconds.
//
// Each transition reports whether it changed the record.
package timer

import "github.com/ayoisaiah/solvelog/internal/session"

// Start clears a previous end and begins timing at now. It is a no-op when
// the timer is already running.
func Start(r *session.Record, now int64) bool {
	if r.Running() {
		return false
	}

	r.EndTime = nil

	if r.StartTime == nil {
		r.StartTime = session.Int64(now)
	}

	clearPause(r)

	return true
}

// Pause folds the running interval into the elapsed time.
func Pause(r *session.Record, now int64) bool {
	if r.StartTime == nil || r.EndTime != nil || r.IsPaused {
		return false
	}

	r.ElapsedSeconds += interval(*r.StartTime, now)
	r.StartTime = nil
	r.IsPaused = true
	r.PausedAt = session.Int64(now)

	return true
}

// Resume begins timing again after a pause or an end.
func Resume(r *session.Record, now int64) bool {
	if r.Running() {
		return false
	}

	r.EndTime = nil

	if r.StartTime == nil {
		r.StartTime = session.Int64(now)
	}

	clearPause(r)

	return true
}

// Stop ends the timer at now. Stopping an ended timer is a no-op.
func Stop(r *session.Record, now int64) bool {
	if r.EndTime != nil {
		return false
	}

	if r.StartTime != nil && !r.IsPaused {
		r.ElapsedSeconds += interval(*r.StartTime, now)
	}

	r.StartTime = nil
	r.EndTime = session.Int64(now)
	clearPause(r)

	return true
}

// Reset zeroes every timer field.
func Reset(r *session.Record) bool {
	changed := r.StartTime != nil || r.EndTime != nil || r.IsPaused ||
		r.PausedAt != nil || r.ElapsedSeconds != 0

	r.StartTime = nil
	r.EndTime = nil
	r.PausedAt = nil
	r.IsPaused = false
	r.ElapsedSeconds = 0

	return changed
}

// Elapsed returns the accumulated time including the interval in progress.
func Elapsed(r *session.Record, now int64) int64 {
	if r.Running() {
		return r.ElapsedSeconds + interval(*r.StartTime, now)
	}

	return r.ElapsedSeconds
}

// interval guards against clock skew producing negative durations.
func interval(start, end int64) int64 {
	return max(0, end-start)
}

func clearPause(r *session.Record) {
	r.IsPaused = false
	r.PausedAt = nil
}
