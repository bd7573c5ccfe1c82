// Package config holds the user settings that shape how sessions are timed,
// stopped and retained
package config

import (
	"context"
	"slices"
	"strings"
	"time"
)

type (
	// Settings holds all configuration settings
	Settings struct {
		Hooks     HookSettings     `mapstructure:"hooks"     json:"hooks"`
		Timer     TimerSettings    `mapstructure:"timer"     json:"timer"`
		Platforms PlatformSettings `mapstructure:"platforms" json:"platforms"`
		Prune     PruneSettings    `mapstructure:"prune"     json:"prune"`
		Display   DisplaySettings  `mapstructure:"display"   json:"display"`
	}

	// PruneSettings bounds how much history is retained
	PruneSettings struct {
		Days        int `mapstructure:"days"         json:"days"`
		MaxSessions int `mapstructure:"max_sessions" json:"max_sessions"`
	}

	// TimerSettings controls automatic starts and stops
	TimerSettings struct {
		StartMode                StartMode `mapstructure:"start_mode"                  json:"start_mode"`
		InactivityTimeoutMinutes int       `mapstructure:"inactivity_timeout_minutes"  json:"inactivity_timeout_minutes"`
		AutoStopOnAccepted       bool      `mapstructure:"auto_stop_on_accepted"       json:"auto_stop_on_accepted"`
		AutoStopOnProblemSwitch  bool      `mapstructure:"auto_stop_on_problem_switch" json:"auto_stop_on_problem_switch"`
		AllowManualStop          bool      `mapstructure:"allow_manual_stop"           json:"allow_manual_stop"`
	}

	// PlatformSettings lists the judges whose events are tracked
	PlatformSettings struct {
		Enabled []string `mapstructure:"enabled" json:"enabled"`
	}

	// HookSettings holds commands run on session transitions
	HookSettings struct {
		OnCompleteCmd string `mapstructure:"on_complete_cmd" json:"on_complete_cmd"`
	}

	// DisplaySettings holds display-related settings
	DisplaySettings struct {
		DarkTheme bool `mapstructure:"dark_theme" json:"dark_theme"`
	}

	// StartMode decides which events start a timer
	StartMode string
)

const (
	// StartModeManual starts timers only on explicit start events.
	StartModeManual StartMode = "manual"
	// StartModePageView also starts a timer when a problem page is viewed.
	StartModePageView StartMode = "page_view"
)

const (
	DefaultPruneDays   = 90
	DefaultMaxSessions = 1000
)

// Source provides the current settings.
type Source interface {
	Settings(ctx context.Context) (Settings, error)
}

// Sink persists settings.
type Sink interface {
	Save(ctx context.Context, s Settings) error
}

// Default returns the settings used when no config file exists.
func Default() Settings {
	return Settings{
		Prune: PruneSettings{
			Days:        DefaultPruneDays,
			MaxSessions: DefaultMaxSessions,
		},
		Timer: TimerSettings{
			StartMode:                StartModeManual,
			InactivityTimeoutMinutes: 30,
			AutoStopOnAccepted:       true,
			AutoStopOnProblemSwitch:  false,
			AllowManualStop:          true,
		},
		Platforms: PlatformSettings{
			Enabled: []string{
				"leetcode",
				"codeforces",
				"atcoder",
				"hackerrank",
				"codechef",
			},
		},
		Display: DisplaySettings{
			DarkTheme: true,
		},
	}
}

// PlatformEnabled reports whether events from platform are tracked. An empty
// list enables every platform.
func (s Settings) PlatformEnabled(platform string) bool {
	if len(s.Platforms.Enabled) == 0 {
		return true
	}

	platform = strings.ToLower(strings.TrimSpace(platform))

	return slices.ContainsFunc(s.Platforms.Enabled, func(p string) bool {
		return strings.ToLower(strings.TrimSpace(p)) == platform
	})
}

// InactivityTimeout returns the configured timeout. Zero disables it.
func (s Settings) InactivityTimeout() time.Duration {
	return time.Duration(max(0, s.Timer.InactivityTimeoutMinutes)) * time.Minute
}

// PruneLimits returns the retention window and budget, falling back to the
// defaults for values that are not positive.
func (s Settings) PruneLimits() (days, maxSessions int) {
	days, maxSessions = s.Prune.Days, s.Prune.MaxSessions

	if days <= 0 {
		days = DefaultPruneDays
	}

	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}

	return days, maxSessions
}
