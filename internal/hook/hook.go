// Package hook runs the user's on_complete_cmd after a session ends
package hook

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/ayoisaiah/solvelog/internal/config"
	"github.com/ayoisaiah/solvelog/internal/session"
)

// DefaultTimeout bounds a single hook invocation.
const DefaultTimeout = 30 * time.Second

// Runner executes the completion command.
type Runner struct {
	settings config.Source
	log      *slog.Logger
	timeout  time.Duration
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger. It defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		r.log = l
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.timeout = d
	}
}

// New returns a Runner that reads the command from settings on every run.
func New(settings config.Source, opts ...Option) *Runner {
	r := &Runner{
		settings: settings,
		log:      slog.Default(),
		timeout:  DefaultTimeout,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run executes the configured command for rec and waits for it to exit. It
// does nothing when no command is configured.
func (r *Runner) Run(ctx context.Context, rec session.Record) error {
	s, err := r.settings.Settings(ctx)
	if err != nil {
		return err
	}

	line := strings.TrimSpace(s.Hooks.OnCompleteCmd)
	if line == "" {
		return nil
	}

	args, err := shellquote.Split(line)
	if err != nil {
		return fmt.Errorf("unable to parse on_complete_cmd option: %w", err)
	}

	if len(args) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Env = append(os.Environ(), Env(rec)...)

	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("on_complete_cmd failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	r.log.Debug(
		"completion hook ran",
		slog.String("session_id", rec.ID),
		slog.String("cmd", args[0]),
	)

	return nil
}

// Notify runs the hook and logs a failure instead of returning it. Its
// signature matches the router and monitor terminal callbacks.
func (r *Runner) Notify(ctx context.Context, rec session.Record) {
	if err := r.Run(ctx, rec); err != nil {
		r.log.Error(
			"completion hook failed",
			slog.String("session_id", rec.ID),
			slog.Any("error", err),
		)
	}
}

// Env returns the environment variables describing rec.
func Env(rec session.Record) []string {
	return []string{
		"SOLVELOG_SESSION_ID=" + rec.ID,
		"SOLVELOG_PLATFORM=" + rec.Platform,
		"SOLVELOG_PROBLEM_ID=" + rec.ProblemID,
		"SOLVELOG_STATUS=" + string(rec.Status),
		"SOLVELOG_REASON=" + string(rec.StopReason),
		"SOLVELOG_ELAPSED=" + strconv.FormatInt(rec.ElapsedSeconds, 10),
	}
}
