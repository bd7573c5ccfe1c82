// Package session defines problem-solving session records and the rules that
// keep them in canonical form
package session

import (
	"errors"
	"strings"
)

// SchemaVersion is the version of the Record shape written by this build.
// Bump it whenever the shape changes incompatibly so that stored records are
// rewritten by the upgrade sweep.
const SchemaVersion = 3

// ErrMissingIdentity is returned when a record has no platform or problem id.
var ErrMissingIdentity = errors.New("session record requires a platform and a problem id")

// Status is the lifecycle state of a session.
type Status string

const (
	StatusIdle      Status = "IDLE"
	StatusActive    Status = "ACTIVE"
	StatusPaused    Status = "PAUSED"
	StatusCompleted Status = "COMPLETED"
	StatusAbandoned Status = "ABANDONED"
	StatusTimedOut  Status = "TIMED_OUT"
	StatusSwitched  Status = "SWITCHED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusIdle, StatusActive, StatusPaused, StatusCompleted,
		StatusAbandoned, StatusTimedOut, StatusSwitched:
		return true
	}

	return false
}

// Terminal reports whether s ends a session.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusAbandoned, StatusTimedOut, StatusSwitched:
		return true
	}

	return false
}

// StopReason records why a session became terminal.
type StopReason string

const (
	ReasonAccepted      StopReason = "accepted"
	ReasonManual        StopReason = "manual"
	ReasonTimeout       StopReason = "timeout"
	ReasonProblemSwitch StopReason = "problem_switch"
	ReasonReset         StopReason = "reset"
	ReasonUnknown       StopReason = "unknown"
)

// Valid reports whether r is a known stop reason.
func (r StopReason) Valid() bool {
	switch r {
	case ReasonAccepted, ReasonManual, ReasonTimeout, ReasonProblemSwitch,
		ReasonReset, ReasonUnknown:
		return true
	}

	return false
}

// ReasonStatus maps a stop reason to the terminal status it produces.
func ReasonStatus(r StopReason) Status {
	switch r {
	case ReasonAccepted:
		return StatusCompleted
	case ReasonTimeout:
		return StatusTimedOut
	case ReasonProblemSwitch:
		return StatusSwitched
	default:
		return StatusAbandoned
	}
}

// reasonFor is the stop reason assigned to a terminal status that has none.
func reasonFor(s Status) StopReason {
	switch s {
	case StatusCompleted:
		return ReasonAccepted
	case StatusTimedOut:
		return ReasonTimeout
	case StatusSwitched:
		return ReasonProblemSwitch
	default:
		return ReasonUnknown
	}
}

var acceptedVerdicts = map[string]bool{
	"accepted": true,
	"ac":       true,
	"ok":       true,
	"passed":   true,
	"correct":  true,
	"solved":   true,
}

// IsAccepted reports whether a judge verdict means the problem was solved.
func IsAccepted(verdict string) bool {
	return acceptedVerdicts[strings.ToLower(strings.TrimSpace(verdict))]
}

// Record is one attempt, possibly spanning several visits, at a single
// problem on a single platform. All timestamps are unix seconds.
type Record struct {
	// StartTime is set only while the timer is running.
	StartTime *int64 `json:"start_time"`
	EndTime   *int64 `json:"end_time"`
	PausedAt  *int64 `json:"paused_at"`

	ID               string     `json:"session_id"`
	Platform         string     `json:"platform"`
	ProblemID        string     `json:"problem_id"`
	ProblemKey       string     `json:"problem_key"`
	Difficulty       Difficulty `json:"difficulty"`
	Verdict          string     `json:"verdict"`
	Language         string     `json:"language"`
	LastSubmissionID string     `json:"last_submission_id"`
	Status           Status     `json:"status"`
	StopReason       StopReason `json:"stop_reason"`

	// ElapsedSeconds excludes the interval that is currently running.
	ElapsedSeconds int64 `json:"elapsed_seconds"`
	FirstSeen      int64 `json:"first_seen"`
	LastSeen       int64 `json:"last_seen"`
	LastUpdated    int64 `json:"last_updated"`
	AttemptCount   int   `json:"attempt_count"`
	SchemaVersion  int   `json:"schema_version"`
	IsPaused       bool  `json:"is_paused"`
}

// BuildProblemKey returns the identity under which at most one session may
// be active.
func BuildProblemKey(platform, problemID string) string {
	return strings.ToLower(strings.TrimSpace(platform)) + ":" + strings.TrimSpace(problemID)
}

// Running reports whether the timer is currently accumulating time.
func (r *Record) Running() bool {
	return r.StartTime != nil && !r.IsPaused && r.EndTime == nil
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := r
	out.StartTime = clonePtr(r.StartTime)
	out.EndTime = clonePtr(r.EndTime)
	out.PausedAt = clonePtr(r.PausedAt)
	out.Difficulty.Rating = clonePtr(r.Difficulty.Rating)

	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}

	v := *p

	return &v
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 {
	return &v
}
