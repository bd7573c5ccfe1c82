package session

import (
	"fmt"
	"strings"
)

// InferStatus returns the status that the timer fields describe. An explicit
// status is trusted when it is valid and does not contradict the timer
// fields; the inference itself exists for legacy and imported data, new
// writes always set the status explicitly.
func InferStatus(r *Record) Status {
	if explicitStatusHolds(r) {
		return r.Status
	}

	switch {
	case r.EndTime != nil:
		if IsAccepted(r.Verdict) {
			return StatusCompleted
		}

		return StatusAbandoned
	case r.IsPaused:
		return StatusPaused
	case r.StartTime != nil || r.ElapsedSeconds > 0:
		return StatusActive
	default:
		return StatusIdle
	}
}

func explicitStatusHolds(r *Record) bool {
	switch r.Status {
	case StatusCompleted, StatusAbandoned, StatusTimedOut, StatusSwitched:
		return true
	case StatusActive:
		return r.EndTime == nil && !r.IsPaused
	case StatusPaused:
		return r.EndTime == nil && r.IsPaused
	case StatusIdle:
		return r.EndTime == nil && r.StartTime == nil && !r.IsPaused
	}

	return false
}

// Normalize returns the canonical form of r. Every record passes through it
// before it is persisted. Normalize(Normalize(r)) == Normalize(r).
func Normalize(r Record, now int64) (Record, error) {
	out := r.Clone()

	out.Platform = strings.ToLower(strings.TrimSpace(out.Platform))
	out.ProblemID = strings.TrimSpace(out.ProblemID)

	if out.Platform == "" || out.ProblemID == "" {
		return Record{}, fmt.Errorf("%w (session %q)", ErrMissingIdentity, out.ID)
	}

	out.ProblemKey = BuildProblemKey(out.Platform, out.ProblemID)
	out.Difficulty = out.Difficulty.Normalize()
	out.Verdict = strings.TrimSpace(out.Verdict)
	out.Language = strings.TrimSpace(out.Language)
	out.Status = Status(strings.ToUpper(strings.TrimSpace(string(out.Status))))
	out.StopReason = StopReason(strings.ToLower(strings.TrimSpace(string(out.StopReason))))

	out.ElapsedSeconds = max(out.ElapsedSeconds, 0)
	out.AttemptCount = max(out.AttemptCount, 0)

	out.StartTime = positive(out.StartTime)
	out.EndTime = positive(out.EndTime)
	out.PausedAt = positive(out.PausedAt)

	fillBookkeeping(&out, now)

	out.Status = InferStatus(&out)

	if out.Status.Terminal() && out.EndTime == nil {
		end := max(out.LastUpdated, out.LastSeen)
		out.EndTime = &end
	}

	foldStaleInterval(&out)

	switch {
	case out.Status.Terminal():
		if !out.StopReason.Valid() || ReasonStatus(out.StopReason) != out.Status {
			out.StopReason = reasonFor(out.Status)
		}
	case out.Status == StatusIdle && out.StopReason == ReasonReset:
	default:
		out.StopReason = ""
	}

	out.SchemaVersion = SchemaVersion

	return out, nil
}

// fillBookkeeping derives missing first/last seen timestamps. firstSeen
// comes from the earliest timer timestamp, falling back to now; the others
// cascade from it.
func fillBookkeeping(r *Record, now int64) {
	if r.FirstSeen <= 0 {
		r.FirstSeen = earliest(now, r.StartTime, r.PausedAt, r.EndTime, &r.LastSeen, &r.LastUpdated)
	}

	if r.LastSeen <= 0 {
		r.LastSeen = r.FirstSeen
	}

	if r.LastUpdated <= 0 {
		r.LastUpdated = r.LastSeen
	}
}

// foldStaleInterval resolves records where startTime coexists with a pause
// or an end, which the timer never produces itself.
func foldStaleInterval(r *Record) {
	if r.EndTime != nil {
		if r.StartTime != nil {
			r.ElapsedSeconds += max(0, *r.EndTime-*r.StartTime)
			r.StartTime = nil
		}

		r.IsPaused = false
	}

	if r.IsPaused && r.StartTime != nil {
		if r.PausedAt != nil {
			r.ElapsedSeconds += max(0, *r.PausedAt-*r.StartTime)
		}

		r.StartTime = nil
	}

	if !r.IsPaused {
		r.PausedAt = nil
	}
}

// LegacyID derives a stable id for records that were stored without one.
func LegacyID(platform, problemID string, firstSeen int64) string {
	return fmt.Sprintf("legacy-%s-%d", BuildProblemKey(platform, problemID), firstSeen)
}

func positive(p *int64) *int64 {
	if p == nil || *p <= 0 {
		return nil
	}

	return Int64(*p)
}

func earliest(fallback int64, candidates ...*int64) int64 {
	var found int64

	for _, c := range candidates {
		if c == nil || *c <= 0 {
			continue
		}

		if found == 0 || *c < found {
			found = *c
		}
	}

	if found == 0 {
		return fallback
	}

	return found
}
