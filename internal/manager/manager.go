// Package manager applies session lifecycle operations one at a time. Every
// call, reads included, is queued behind a single FIFO chain so concurrent
// callers never interleave their read-modify-write cycles.
package manager

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ayoisaiah/solvelog/internal/session"
	"github.com/ayoisaiah/solvelog/internal/timer"
	"github.com/ayoisaiah/solvelog/store"
)

// Manager serializes session operations over a store.
type Manager struct {
	db    store.DB
	log   *slog.Logger
	now   func() time.Time
	newID func() string
	tail  chan struct{}
	mu    sync.Mutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. It defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.log = l
	}
}

// WithClock sets the clock used when an operation carries no timestamp.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithIDGenerator sets the generator for new session ids. It defaults to
// ULIDs.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		m.newID = fn
	}
}

// New returns a Manager over db.
func New(db store.DB, opts ...Option) *Manager {
	m := &Manager{
		db:    db,
		log:   slog.Default(),
		now:   time.Now,
		newID: func() string { return ulid.Make().String() },
		tail:  make(chan struct{}),
	}

	close(m.tail)

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// do runs fn after every previously queued call has finished. A caller whose
// context ends while waiting leaves the queue with ctx.Err(); its ticket is
// released as soon as its predecessor is done so the chain stays intact. Once
// fn has started it runs to completion.
func (m *Manager) do(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan struct{})

	m.mu.Lock()
	prev := m.tail
	m.tail = done
	m.mu.Unlock()

	select {
	case <-prev:
	case <-ctx.Done():
		go func() {
			<-prev
			close(done)
		}()

		return ctx.Err()
	}

	defer close(done)

	return fn()
}

// Exclusive runs fn with direct access to the store while holding the queue.
// It is meant for sweeps that read and rewrite the whole store.
func (m *Manager) Exclusive(ctx context.Context, fn func(db store.DB) error) error {
	return m.do(ctx, func() error {
		return fn(m.db)
	})
}

// at returns ts, or the current time when ts is not set.
func (m *Manager) at(ts int64) int64 {
	if ts > 0 {
		return ts
	}

	return m.now().Unix()
}

func identity(platform, problemID string) (string, string, error) {
	platform = strings.ToLower(strings.TrimSpace(platform))
	problemID = strings.TrimSpace(problemID)

	if platform == "" || problemID == "" {
		return "", "", session.ErrMissingIdentity
	}

	return platform, problemID, nil
}

// pick returns the index of the active session in recs, the non-terminal one
// touched most recently, and the indices of any other non-terminal sessions.
// The index is -1 when every session is terminal.
func pick(recs []session.Record) (int, []int) {
	active := -1

	var others []int

	for i := range recs {
		if recs[i].Status.Terminal() {
			continue
		}

		if active == -1 || recs[i].LastUpdated >= recs[active].LastUpdated {
			if active != -1 {
				others = append(others, active)
			}

			active = i

			continue
		}

		others = append(others, i)
	}

	return active, others
}

// latest returns the index of the session touched most recently, or -1.
func latest(recs []session.Record) int {
	idx := -1

	for i := range recs {
		if idx == -1 || recs[i].LastUpdated >= recs[idx].LastUpdated {
			idx = i
		}
	}

	return idx
}

// resolve finds the active session of a problem. Extra non-terminal sessions,
// which only imported or legacy data can produce, are stopped so that at most
// one remains. The bool result reports whether an active session exists.
func (m *Manager) resolve(platform, problemID string) (session.Record, []session.Record, bool, error) {
	recs, err := m.db.GetSessionsByProblem(platform, problemID)
	if err != nil {
		return session.Record{}, nil, false, fmt.Errorf("loading sessions: %w", err)
	}

	active, others := pick(recs)

	if len(others) > 0 {
		settled := make([]session.Record, 0, len(others))

		for _, i := range others {
			r := recs[i]
			timer.Stop(&r, r.LastSeen)
			r.Status = session.StatusAbandoned
			r.StopReason = session.ReasonUnknown
			settled = append(settled, r)
		}

		saved, err := m.db.SaveSessions(settled)
		if err != nil {
			return session.Record{}, nil, false, fmt.Errorf("settling duplicate sessions: %w", err)
		}

		m.log.Warn(
			"stopped duplicate non-terminal sessions",
			"problem_key", session.BuildProblemKey(platform, problemID),
			"count", len(saved),
		)

		for j, i := range others {
			recs[i] = saved[j]
		}
	}

	if active == -1 {
		return session.Record{}, recs, false, nil
	}

	return recs[active], recs, true, nil
}

// fresh returns a new in-memory IDLE session. It is not persisted.
func (m *Manager) fresh(platform, problemID string, at int64) session.Record {
	return session.Record{
		ID:         m.newID(),
		Platform:   platform,
		ProblemID:  problemID,
		ProblemKey: session.BuildProblemKey(platform, problemID),
		Status:     session.StatusIdle,
		FirstSeen:  at,
		LastSeen:   at,
	}
}

func touch(r *session.Record, at int64) {
	r.LastSeen = max(r.LastSeen, at)
	r.LastUpdated = max(r.LastUpdated, at)
}

func (m *Manager) save(r session.Record) (*session.Record, error) {
	saved, err := m.db.SaveSession(r)
	if err != nil {
		return nil, fmt.Errorf("saving session %s: %w", r.ID, err)
	}

	return &saved, nil
}
