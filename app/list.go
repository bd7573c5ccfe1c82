package app

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/maruel/natural"
	"github.com/pterm/pterm"

	"github.com/ayoisaiah/solvelog/internal/session"
	"github.com/ayoisaiah/solvelog/internal/ui"
)

const noSessionsMsg = "No sessions found"

func filterPlatform(recs []session.Record, platform string) []session.Record {
	platform = strings.ToLower(strings.TrimSpace(platform))
	if platform == "" {
		return recs
	}

	return slices.DeleteFunc(recs, func(r session.Record) bool {
		return r.Platform != platform
	})
}

// sortSessions orders sessions by platform, then problem id in natural order
// (so "p2" precedes "p10"), then first seen.
func sortSessions(recs []session.Record) {
	slices.SortStableFunc(recs, func(a, b session.Record) int {
		if a.Platform != b.Platform {
			return strings.Compare(a.Platform, b.Platform)
		}

		switch {
		case natural.Less(a.ProblemID, b.ProblemID):
			return -1
		case natural.Less(b.ProblemID, a.ProblemID):
			return 1
		}

		switch {
		case a.FirstSeen < b.FirstSeen:
			return -1
		case a.FirstSeen > b.FirstSeen:
			return 1
		}

		return 0
	})
}

// listSessions prints out a table of sessions.
func listSessions(w io.Writer, recs []session.Record) error {
	if len(recs) == 0 {
		fmt.Fprintln(w, pterm.Info.Sprint(noSessionsMsg))
		return nil
	}

	return ui.PrintTable(ui.SessionRows(recs, time.Now()), w)
}
