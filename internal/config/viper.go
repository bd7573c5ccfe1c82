package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

// viper keys of every setting.
const (
	keyPruneDays               = "prune.days"
	keyPruneMaxSessions        = "prune.max_sessions"
	keyStartMode               = "timer.start_mode"
	keyInactivityTimeout       = "timer.inactivity_timeout_minutes"
	keyAutoStopOnAccepted      = "timer.auto_stop_on_accepted"
	keyAutoStopOnProblemSwitch = "timer.auto_stop_on_problem_switch"
	keyAllowManualStop         = "timer.allow_manual_stop"
	keyEnabledPlatforms        = "platforms.enabled"
	keyOnCompleteCmd           = "hooks.on_complete_cmd"
	keyDarkTheme               = "display.dark_theme"
)

// File is a YAML config file. It is re-read on every call to Settings so
// edits made while the process runs take effect on the next event.
type File struct {
	path string
	mu   sync.Mutex
}

// Open returns the config file at path, writing the defaults when it does
// not exist yet.
func Open(path string) (*File, error) {
	f := &File{path: path}

	if _, err := f.load(); err != nil {
		return nil, err
	}

	return f, nil
}

// Path returns the location of the config file.
func (f *File) Path() string {
	return f.path
}

// Settings reads the config file.
func (f *File) Settings(_ context.Context) (Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.load()
}

// Save validates s and overwrites the config file with it.
func (f *File) Save(_ context.Context, s Settings) error {
	if err := s.Validate(); err != nil {
		return ErrInvalidSettings.Wrap(err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	v := viper.New()
	v.SetConfigType("yaml")
	setValues(v, s)

	if err := v.WriteConfigAs(f.path); err != nil {
		return errWriteConfig.Wrap(err)
	}

	return nil
}

func (f *File) load() (Settings, error) {
	v := viper.New()

	v.SetConfigFile(f.path)
	v.SetConfigType("yaml")

	setDefaults(v)

	err := v.ReadInConfig()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Settings{}, errReadConfig.Wrap(err)
		}

		if err := os.MkdirAll(filepath.Dir(f.path), 0o750); err != nil {
			return Settings{}, errWriteConfig.Wrap(err)
		}

		if err := v.WriteConfig(); err != nil {
			return Settings{}, errWriteConfig.Wrap(err)
		}
	}

	var s Settings

	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, errReadConfig.Wrap(err)
	}

	if err := s.Validate(); err != nil {
		return Settings{}, ErrInvalidSettings.Wrap(err)
	}

	return s, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault(keyPruneDays, d.Prune.Days)
	v.SetDefault(keyPruneMaxSessions, d.Prune.MaxSessions)
	v.SetDefault(keyStartMode, string(d.Timer.StartMode))
	v.SetDefault(keyInactivityTimeout, d.Timer.InactivityTimeoutMinutes)
	v.SetDefault(keyAutoStopOnAccepted, d.Timer.AutoStopOnAccepted)
	v.SetDefault(keyAutoStopOnProblemSwitch, d.Timer.AutoStopOnProblemSwitch)
	v.SetDefault(keyAllowManualStop, d.Timer.AllowManualStop)
	v.SetDefault(keyEnabledPlatforms, d.Platforms.Enabled)
	v.SetDefault(keyOnCompleteCmd, d.Hooks.OnCompleteCmd)
	v.SetDefault(keyDarkTheme, d.Display.DarkTheme)
}

func setValues(v *viper.Viper, s Settings) {
	v.Set(keyPruneDays, s.Prune.Days)
	v.Set(keyPruneMaxSessions, s.Prune.MaxSessions)
	v.Set(keyStartMode, string(s.Timer.StartMode))
	v.Set(keyInactivityTimeout, s.Timer.InactivityTimeoutMinutes)
	v.Set(keyAutoStopOnAccepted, s.Timer.AutoStopOnAccepted)
	v.Set(keyAutoStopOnProblemSwitch, s.Timer.AutoStopOnProblemSwitch)
	v.Set(keyAllowManualStop, s.Timer.AllowManualStop)
	v.Set(keyEnabledPlatforms, s.Platforms.Enabled)
	v.Set(keyOnCompleteCmd, s.Hooks.OnCompleteCmd)
	v.Set(keyDarkTheme, s.Display.DarkTheme)
}

// Static is an in-memory settings store.
type Static struct {
	s  Settings
	mu sync.RWMutex
}

// NewStatic returns a Static holding s.
func NewStatic(s Settings) *Static {
	return &Static{s: s}
}

func (st *Static) Settings(_ context.Context) (Settings, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	s := st.s
	s.Platforms.Enabled = append([]string(nil), st.s.Platforms.Enabled...)

	return s, nil
}

func (st *Static) Save(_ context.Context, s Settings) error {
	if err := s.Validate(); err != nil {
		return ErrInvalidSettings.Wrap(err)
	}

	st.mu.Lock()
	st.s = s
	st.mu.Unlock()

	return nil
}
