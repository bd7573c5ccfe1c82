package config

import "github.com/ayoisaiah/solvelog/internal/apperr"

var (
	errReadConfig = &apperr.Error{
		Message: "reading config file failed",
	}

	errWriteConfig = &apperr.Error{
		Message: "writing config file failed",
	}

	// ErrInvalidSettings wraps every settings validation failure.
	ErrInvalidSettings = &apperr.Error{
		Message: "config validation error",
	}

	errInvalidStartMode = &apperr.Error{
		Message: "timer start mode must be %q or %q, got %q",
	}

	errNegativeTimeout = &apperr.Error{
		Message: "inactivity timeout cannot be negative, got %d minutes",
	}

	errEmptyPlatform = &apperr.Error{
		Message: "enabled platforms cannot contain an empty name",
	}

	errInvalidHookCmd = &apperr.Error{
		Message: "on_complete_cmd is not a valid shell command: %s",
	}
)
