package ui

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/pterm/pterm"

	"github.com/ayoisaiah/solvelog/internal/session"
	"github.com/ayoisaiah/solvelog/internal/timer"
	"github.com/ayoisaiah/solvelog/internal/timeutil"
)

// PrintTable writes data as a boxed table whose first row is the header.
func PrintTable(data [][]string, writer io.Writer) error {
	table := pterm.DefaultTable
	table.Boxed = true

	str, err := table.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("rendering session table: %w", err)
	}

	fmt.Fprintln(writer, str)

	return nil
}

// SessionRows turns recs into table rows, header first. Elapsed time of a
// running session includes the interval up to now.
func SessionRows(recs []session.Record, now time.Time) [][]string {
	rows := make([][]string, 0, len(recs)+1)

	rows = append(rows, []string{
		"#", "PLATFORM", "PROBLEM", "DIFFICULTY", "STATUS", "ELAPSED",
		"ATTEMPTS", "FIRST SEEN",
	})

	for i := range recs {
		rec := &recs[i]
		first := rec.FirstSeen

		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			rec.Platform,
			rec.ProblemID,
			rec.Difficulty.String(),
			Status(rec.Status),
			timeutil.FormatDuration(timer.Elapsed(rec, now.Unix())),
			strconv.Itoa(rec.AttemptCount),
			timeutil.FormatUnix(&first),
		})
	}

	return rows
}

// PrintSession writes a key/value view of a single session.
func PrintSession(w io.Writer, rec session.Record, now time.Time) error {
	reason := string(rec.StopReason)
	if reason == "" {
		reason = "-"
	}

	data := [][]string{
		{"FIELD", "VALUE"},
		{"Session", rec.ID},
		{"Problem", rec.ProblemKey},
		{"Difficulty", rec.Difficulty.String()},
		{"Status", Status(rec.Status)},
		{"Stop reason", reason},
		{"Elapsed", timeutil.FormatDuration(timer.Elapsed(&rec, now.Unix()))},
		{"Attempts", strconv.Itoa(rec.AttemptCount)},
		{"Verdict", rec.Verdict},
		{"Language", rec.Language},
		{"Started", timeutil.FormatUnix(rec.StartTime)},
		{"Ended", timeutil.FormatUnix(rec.EndTime)},
		{"Last seen", timeutil.FormatUnix(&rec.LastSeen)},
	}

	return PrintTable(data, w)
}
