package config

import (
	"strings"

	"github.com/kballard/go-shellquote"
)

// Validate performs validation checks on the settings. Platform names are
// canonicalized in place.
func (s *Settings) Validate() error {
	if err := s.validateTimer(); err != nil {
		return err
	}

	if err := s.validatePlatforms(); err != nil {
		return err
	}

	if cmd := strings.TrimSpace(s.Hooks.OnCompleteCmd); cmd != "" {
		if _, err := shellquote.Split(cmd); err != nil {
			return errInvalidHookCmd.Fmt(err)
		}
	}

	return nil
}

func (s *Settings) validateTimer() error {
	if s.Timer.StartMode == "" {
		s.Timer.StartMode = StartModeManual
	}

	s.Timer.StartMode = StartMode(strings.ToLower(string(s.Timer.StartMode)))

	if s.Timer.StartMode != StartModeManual &&
		s.Timer.StartMode != StartModePageView {
		return errInvalidStartMode.Fmt(
			StartModeManual,
			StartModePageView,
			s.Timer.StartMode,
		)
	}

	if s.Timer.InactivityTimeoutMinutes < 0 {
		return errNegativeTimeout.Fmt(s.Timer.InactivityTimeoutMinutes)
	}

	return nil
}

func (s *Settings) validatePlatforms() error {
	for i, p := range s.Platforms.Enabled {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			return errEmptyPlatform
		}

		s.Platforms.Enabled[i] = p
	}

	return nil
}
