package session

import (
	"github.com/spf13/cast"
)

// Raw is a session-shaped object whose provenance is not trusted: an entry
// of the legacy flat list, an import file or a third-party payload. Keys may
// be snake_case or camelCase, numbers may arrive as strings.
type Raw map[string]any

// FromRaw coerces a raw object into a Record and normalizes it. It is the
// only way raw data becomes a Record.
func FromRaw(raw Raw, now int64) (Record, error) {
	r := Record{
		ID:               raw.str("session_id", "sessionId", "id"),
		Platform:         raw.str("platform"),
		ProblemID:        raw.str("problem_id", "problemId"),
		Difficulty:       ParseDifficulty(raw.get("difficulty")),
		Verdict:          raw.str("verdict"),
		Language:         raw.str("language"),
		LastSubmissionID: raw.str("last_submission_id", "lastSubmissionId"),
		Status:           Status(raw.str("status")),
		StopReason:       StopReason(raw.str("stop_reason", "stopReason")),
		StartTime:        raw.timestamp("start_time", "startTime"),
		EndTime:          raw.timestamp("end_time", "endTime"),
		PausedAt:         raw.timestamp("paused_at", "pausedAt"),
		ElapsedSeconds:   raw.integer("elapsed_seconds", "elapsedSeconds", "elapsed"),
		FirstSeen:        raw.integer("first_seen", "firstSeen"),
		LastSeen:         raw.integer("last_seen", "lastSeen"),
		LastUpdated:      raw.integer("last_updated", "lastUpdated"),
		AttemptCount:     int(raw.integer("attempt_count", "attemptCount")),
		IsPaused:         raw.flag("is_paused", "isPaused"),
	}

	return Normalize(r, now)
}

func (raw Raw) get(keys ...string) any {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v
		}
	}

	return nil
}

func (raw Raw) str(keys ...string) string {
	v := raw.get(keys...)
	if v == nil {
		return ""
	}

	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}

	return s
}

func (raw Raw) integer(keys ...string) int64 {
	v := raw.get(keys...)
	if v == nil {
		return 0
	}

	n, err := cast.ToInt64E(v)
	if err != nil {
		f, ferr := cast.ToFloat64E(v)
		if ferr != nil {
			return 0
		}

		return int64(f)
	}

	return n
}

func (raw Raw) timestamp(keys ...string) *int64 {
	n := raw.integer(keys...)
	if n <= 0 {
		return nil
	}

	return Int64(n)
}

func (raw Raw) flag(keys ...string) bool {
	v := raw.get(keys...)
	if v == nil {
		return false
	}

	return cast.ToBool(v)
}
