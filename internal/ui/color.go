// Package ui renders sessions for the terminal
package ui

import (
	"github.com/pterm/pterm"

	"github.com/ayoisaiah/solvelog/internal/session"
)

// DarkTheme selects the light variants of each colour.
var DarkTheme bool

func Green(a any) string {
	if DarkTheme {
		return pterm.LightGreen(a)
	}

	return pterm.Green(a)
}

func Yellow(a any) string {
	if DarkTheme {
		return pterm.LightYellow(a)
	}

	return pterm.Yellow(a)
}

func Cyan(a any) string {
	if DarkTheme {
		return pterm.LightCyan(a)
	}

	return pterm.Cyan(a)
}

func Magenta(a any) string {
	if DarkTheme {
		return pterm.LightMagenta(a)
	}

	return pterm.Magenta(a)
}

func Red(a any) string {
	if DarkTheme {
		return pterm.LightRed(a)
	}

	return pterm.Red(a)
}

func Highlight(a any) string {
	if DarkTheme {
		return pterm.LightWhite(a)
	}

	return pterm.Black(a)
}

// Status colours a session status.
func Status(s session.Status) string {
	switch s {
	case session.StatusActive:
		return Cyan(s)
	case session.StatusPaused:
		return Yellow(s)
	case session.StatusCompleted:
		return Green(s)
	case session.StatusAbandoned, session.StatusTimedOut:
		return Red(s)
	case session.StatusSwitched:
		return Magenta(s)
	default:
		return string(s)
	}
}
