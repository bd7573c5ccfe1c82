// Package monitor times out sessions whose problem page has gone quiet
package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/ayoisaiah/solvelog/internal/config"
	"github.com/ayoisaiah/solvelog/internal/prune"
	"github.com/ayoisaiah/solvelog/internal/session"
)

// DefaultInterval is how often Run checks for inactive sessions.
const DefaultInterval = time.Minute

// Expirer stops sessions that have not been seen since now-threshold.
type Expirer interface {
	ExpireInactive(
		ctx context.Context,
		now time.Time,
		threshold time.Duration,
	) ([]session.Record, error)
}

// Pruner runs the retention sweep.
type Pruner interface {
	Run(ctx context.Context, now time.Time) (prune.Result, error)
}

// Monitor periodically expires inactive sessions.
type Monitor struct {
	sessions   Expirer
	pruner     Pruner
	settings   config.Source
	log        *slog.Logger
	now        func() time.Time
	onTerminal func(ctx context.Context, rec session.Record)
	interval   time.Duration
}

// Option configures a Monitor.
type Option func(*Monitor)

func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) {
		m.log = l
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		m.now = now
	}
}

// WithPruner sets the retention sweep run after a check times out any
// session.
func WithPruner(p Pruner) Option {
	return func(m *Monitor) {
		m.pruner = p
	}
}

// OnTerminal registers fn to be called for every session that times out.
func OnTerminal(fn func(ctx context.Context, rec session.Record)) Option {
	return func(m *Monitor) {
		m.onTerminal = fn
	}
}

// New returns a Monitor. A non-positive interval means DefaultInterval.
func New(
	sessions Expirer,
	settings config.Source,
	interval time.Duration,
	opts ...Option,
) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}

	m := &Monitor{
		sessions: sessions,
		settings: settings,
		interval: interval,
		log:      slog.Default(),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Run checks for inactive sessions every interval until ctx ends. Failed
// checks are logged and the loop carries on.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := m.Tick(ctx, m.now()); err != nil {
				m.log.Error("inactivity check failed", "error", err)
			}
		}
	}
}

// Tick runs a single check at now and returns the sessions it timed out.
func (m *Monitor) Tick(ctx context.Context, now time.Time) ([]session.Record, error) {
	s, err := m.settings.Settings(ctx)
	if err != nil {
		return nil, err
	}

	threshold := s.InactivityTimeout()
	if threshold == 0 {
		return nil, nil
	}

	expired, err := m.sessions.ExpireInactive(ctx, now, threshold)
	if err != nil {
		return nil, err
	}

	for i := range expired {
		m.log.Info(
			"session timed out",
			"session_id", expired[i].ID,
			"problem_key", expired[i].ProblemKey,
		)

		if m.onTerminal != nil {
			m.onTerminal(ctx, expired[i])
		}
	}

	if len(expired) > 0 && m.pruner != nil {
		// the sessions are already stopped, so a failed sweep is only logged
		if _, err := m.pruner.Run(ctx, now); err != nil {
			m.log.Error("prune after timeout failed", "error", err)
		}
	}

	return expired, nil
}
