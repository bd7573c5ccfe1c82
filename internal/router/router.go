// Package router validates inbound session events and dispatches them to the
// session manager
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ayoisaiah/solvelog/internal/config"
	"github.com/ayoisaiah/solvelog/internal/manager"
	"github.com/ayoisaiah/solvelog/internal/prune"
	"github.com/ayoisaiah/solvelog/internal/session"
)

var (
	// ErrInvalidEvent is returned for events without a platform or problem id.
	ErrInvalidEvent = errors.New("invalid event")

	// ErrManualStopDisabled is returned for manual stops when the settings
	// forbid them.
	ErrManualStopDisabled = errors.New("manual stop is disabled")

	// ErrReadOnlySettings is returned by UpdateSettings when the settings
	// source cannot be written.
	ErrReadOnlySettings = errors.New("settings are read-only")
)

// Router dispatches events to the session manager.
type Router struct {
	sessions   *manager.Manager
	pruner     *prune.Pruner
	settings   config.Source
	log        *slog.Logger
	now        func() time.Time
	onTerminal func(ctx context.Context, rec session.Record)
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger. It defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) {
		r.log = l
	}
}

// WithClock sets the clock used for prune sweeps.
func WithClock(now func() time.Time) Option {
	return func(r *Router) {
		r.now = now
	}
}

// OnTerminal registers fn to be called for every session an event moves
// into a terminal status.
func OnTerminal(fn func(ctx context.Context, rec session.Record)) Option {
	return func(r *Router) {
		r.onTerminal = fn
	}
}

// New returns a Router.
func New(
	sessions *manager.Manager,
	pruner *prune.Pruner,
	settings config.Source,
	opts ...Option,
) *Router {
	r := &Router{
		sessions: sessions,
		pruner:   pruner,
		settings: settings,
		log:      slog.Default(),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Handle applies a single event and returns the resulting session. A nil
// session with a nil error means the event changed nothing.
func (r *Router) Handle(ctx context.Context, ev Event) (*session.Record, error) {
	ev.Platform = strings.ToLower(strings.TrimSpace(ev.Platform))
	ev.ProblemID = strings.TrimSpace(ev.ProblemID)
	ev.Type = strings.ToLower(strings.TrimSpace(ev.Type))
	ev.Reason = session.StopReason(strings.ToLower(strings.TrimSpace(string(ev.Reason))))

	if ev.Platform == "" || ev.ProblemID == "" {
		return nil, fmt.Errorf("%w: platform and problemId are required", ErrInvalidEvent)
	}

	s, err := r.settings.Settings(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	if !s.PlatformEnabled(ev.Platform) {
		r.log.Debug(
			"ignoring event from disabled platform",
			"platform", ev.Platform,
			"type", ev.Type,
		)

		return nil, nil
	}

	touched, err := r.sessions.Touch(ctx, ev.Platform, ev.ProblemID, manager.TouchOptions{
		At:         ev.Time(),
		Difficulty: ev.Difficulty,
	})
	if err != nil {
		return nil, err
	}

	r.log.Debug(
		"handling event",
		"type", ev.Type,
		"platform", ev.Platform,
		"problem_id", ev.ProblemID,
	)

	switch ev.Type {
	case EventTimerStart:
		return r.start(ctx, s, ev)
	case EventTimerStop:
		return r.stop(ctx, s, ev, touched)
	case EventTimerPause:
		return r.sessions.Pause(ctx, ev.Platform, ev.ProblemID, first(ev.PausedAt, ev.At))
	case EventTimerResume:
		return r.sessions.Resume(ctx, ev.Platform, ev.ProblemID, first(ev.ResumedAt, ev.At))
	case EventTimerReset:
		return r.sessions.Reset(ctx, ev.Platform, ev.ProblemID, ev.At)
	case EventSubmission:
		return r.submission(ctx, s, ev, touched)
	case EventPageView:
		return r.pageView(ctx, s, ev, touched)
	}

	return touched, nil
}

func (r *Router) start(
	ctx context.Context,
	s config.Settings,
	ev Event,
) (*session.Record, error) {
	at := first(ev.StartedAt, ev.At)

	if s.Timer.AutoStopOnProblemSwitch {
		stopped, err := r.sessions.StopOthers(
			ctx,
			ev.Platform,
			ev.ProblemID,
			at,
			session.ReasonProblemSwitch,
		)
		if err != nil {
			return nil, err
		}

		for i := range stopped {
			r.terminal(ctx, stopped[i])
		}
	}

	return r.sessions.Start(ctx, ev.Platform, ev.ProblemID, manager.StartOptions{
		At:         at,
		Difficulty: ev.Difficulty,
	})
}

func (r *Router) stop(
	ctx context.Context,
	s config.Settings,
	ev Event,
	before *session.Record,
) (*session.Record, error) {
	manual := ev.Reason == "" || ev.Reason == session.ReasonManual
	if manual && !s.Timer.AllowManualStop {
		return nil, ErrManualStopDisabled
	}

	rec, err := r.sessions.Stop(ctx, ev.Platform, ev.ProblemID, manager.StopOptions{
		At:     first(ev.StoppedAt, ev.At),
		Reason: ev.Reason,
	})
	if err != nil || rec == nil {
		return rec, err
	}

	if transitioned(before, rec) {
		r.terminal(ctx, *rec)
	}

	r.prune(ctx)

	return rec, nil
}

func (r *Router) submission(
	ctx context.Context,
	s config.Settings,
	ev Event,
	before *session.Record,
) (*session.Record, error) {
	if before == nil {
		var err error

		// the most recent session decides whether a repeated submission
		// completes anything
		before, err = r.sessions.GetByKey(ctx, ev.Platform, ev.ProblemID)
		if err != nil {
			return nil, err
		}
	}

	rec, err := r.sessions.RecordSubmission(ctx, manager.Submission{
		Platform:     ev.Platform,
		ProblemID:    ev.ProblemID,
		Verdict:      ev.Verdict,
		Language:     ev.Language,
		SubmissionID: ev.SubmissionID,
		Success:      ev.IsSuccess,
		At:           first(ev.SubmittedAt, ev.At),
		NoAutoStop:   !s.Timer.AutoStopOnAccepted,
	})
	if err != nil || rec == nil {
		return rec, err
	}

	if transitioned(before, rec) {
		r.terminal(ctx, *rec)

		if rec.Status == session.StatusCompleted {
			r.prune(ctx)
		}
	}

	return rec, nil
}

// pageView starts the timer in page view mode when the problem has no active
// session and has never been solved.
func (r *Router) pageView(
	ctx context.Context,
	s config.Settings,
	ev Event,
	touched *session.Record,
) (*session.Record, error) {
	if touched != nil || s.Timer.StartMode != config.StartModePageView {
		return touched, nil
	}

	history, err := r.sessions.History(ctx, ev.Platform, ev.ProblemID)
	if err != nil {
		return nil, err
	}

	for i := range history {
		if history[i].Status == session.StatusCompleted {
			return nil, nil
		}
	}

	return r.start(ctx, s, ev)
}

// transitioned reports whether after is a terminal session that was not
// terminal before the event.
func transitioned(before, after *session.Record) bool {
	if after == nil || !after.Status.Terminal() {
		return false
	}

	return before == nil || before.ID != after.ID || !before.Status.Terminal()
}

func (r *Router) terminal(ctx context.Context, rec session.Record) {
	if r.onTerminal != nil {
		r.onTerminal(ctx, rec)
	}
}

// prune runs a retention sweep. A failed sweep does not fail the event.
func (r *Router) prune(ctx context.Context) {
	if r.pruner == nil {
		return
	}

	if _, err := r.pruner.Run(ctx, r.now()); err != nil {
		r.log.Error("prune after event failed", "error", err)
	}
}

// Startup runs the retention sweep due when the process starts.
func (r *Router) Startup(ctx context.Context) (prune.Result, error) {
	if r.pruner == nil {
		return prune.Result{}, nil
	}

	return r.pruner.Run(ctx, r.now())
}

// Sessions returns every stored session.
func (r *Router) Sessions(ctx context.Context) ([]session.Record, error) {
	return r.sessions.GetAll(ctx)
}

// Session returns the active or most recent session of a problem.
func (r *Router) Session(
	ctx context.Context,
	platform, problemID string,
) (*session.Record, error) {
	if strings.TrimSpace(platform) == "" || strings.TrimSpace(problemID) == "" {
		return nil, fmt.Errorf("%w: platform and problemId are required", ErrInvalidEvent)
	}

	return r.sessions.GetByKey(ctx, platform, problemID)
}

// ClearSessions removes every stored session.
func (r *Router) ClearSessions(ctx context.Context) error {
	return r.sessions.ClearAll(ctx)
}

// Settings returns the current settings.
func (r *Router) Settings(ctx context.Context) (config.Settings, error) {
	return r.settings.Settings(ctx)
}

// UpdateSettings persists new settings when the source is writable.
func (r *Router) UpdateSettings(ctx context.Context, s config.Settings) error {
	sink, ok := r.settings.(config.Sink)
	if !ok {
		return ErrReadOnlySettings
	}

	return sink.Save(ctx, s)
}
