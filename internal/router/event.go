package router

import (
	"github.com/ayoisaiah/solvelog/internal/session"
)

// Event types understood by the router. Matching is case-insensitive.
const (
	EventTimerStart  = "timer_start"
	EventTimerStop   = "timer_stop"
	EventTimerPause  = "timer_pause"
	EventTimerResume = "timer_resume"
	EventTimerReset  = "timer_reset"
	EventSubmission  = "submission"
	EventPageView    = "page_view"
)

// Event is an inbound notification from a page integration, the CLI or the
// HTTP endpoint. Timestamps are unix seconds; zero means now.
type Event struct {
	IsSuccess    *bool              `json:"isSuccess,omitempty"`
	Difficulty   session.Difficulty `json:"difficulty"`
	Type         string             `json:"type"`
	Platform     string             `json:"platform"`
	ProblemID    string             `json:"problemId"`
	Verdict      string             `json:"verdict,omitempty"`
	Language     string             `json:"language,omitempty"`
	SubmissionID string             `json:"submissionId,omitempty"`
	Reason       session.StopReason `json:"reason,omitempty"`
	StartedAt    int64              `json:"startedAt,omitempty"`
	StoppedAt    int64              `json:"stoppedAt,omitempty"`
	PausedAt     int64              `json:"pausedAt,omitempty"`
	ResumedAt    int64              `json:"resumedAt,omitempty"`
	SubmittedAt  int64              `json:"submittedAt,omitempty"`
	At           int64              `json:"at,omitempty"`
}

// Time returns the timestamp the event refers to, or zero for now.
func (ev Event) Time() int64 {
	return first(
		ev.At,
		ev.StartedAt,
		ev.StoppedAt,
		ev.PausedAt,
		ev.ResumedAt,
		ev.SubmittedAt,
	)
}

// first returns the first timestamp that is set.
func first(ts ...int64) int64 {
	for _, t := range ts {
		if t > 0 {
			return t
		}
	}

	return 0
}
