// Package timeutil converts between user input, unix seconds and display
// strings.
package timeutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	dps "github.com/markusmobius/go-dateparser"

	"github.com/ayoisaiah/solvelog/internal/apperr"
)

const (
	secondsInAMinute = 60
	secondsInAnHour  = 3600
)

// DisplayLayout is the layout used for timestamps in tables.
const DisplayLayout = "Jan 02, 2006 03:04 PM"

var errParseTime = &apperr.Error{
	Message: "unable to parse %q as a time (try a unix timestamp or '10 mins ago')",
}

var errFutureTime = &apperr.Error{
	Message: "time %q is in the future",
}

// ParseUnix converts s to unix seconds. It accepts an integer timestamp or a
// natural language expression such as "10 mins ago" or "yesterday 3pm",
// resolved relative to now. An empty string yields 0.
func ParseUnix(s string, now time.Time) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	if ts, err := strconv.ParseInt(s, 10, 64); err == nil {
		if ts < 0 {
			return 0, errParseTime.Fmt(s)
		}

		return ts, nil
	}

	cfg := &dps.Configuration{
		CurrentTime: now,
	}

	dt, err := dps.Parse(cfg, s)
	if err != nil || dt.Time.IsZero() {
		return 0, errParseTime.Fmt(s)
	}

	if dt.Time.After(now) {
		return 0, errFutureTime.Fmt(s)
	}

	return dt.Time.Unix(), nil
}

// FormatDuration expresses a number of seconds as "1h 05m", "4m 09s" or
// "12s".
func FormatDuration(secs int64) string {
	if secs < 0 {
		secs = 0
	}

	hrs := secs / secondsInAnHour
	mins := (secs % secondsInAnHour) / secondsInAMinute
	rest := secs % secondsInAMinute

	switch {
	case hrs > 0:
		return fmt.Sprintf("%dh %02dm", hrs, mins)
	case mins > 0:
		return fmt.Sprintf("%dm %02ds", mins, rest)
	default:
		return fmt.Sprintf("%ds", rest)
	}
}

// FormatUnix renders a unix timestamp in the local zone. Nil and zero render
// as the empty string.
func FormatUnix(ts *int64) string {
	if ts == nil || *ts <= 0 {
		return ""
	}

	return time.Unix(*ts, 0).Format(DisplayLayout)
}
