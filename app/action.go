package app

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/solvelog/internal/apperr"
	"github.com/ayoisaiah/solvelog/internal/router"
	"github.com/ayoisaiah/solvelog/internal/session"
	"github.com/ayoisaiah/solvelog/internal/timer"
	"github.com/ayoisaiah/solvelog/internal/timeutil"
	"github.com/ayoisaiah/solvelog/internal/ui"
	"github.com/ayoisaiah/solvelog/store"
)

const (
	envNoColor         = "NO_COLOR"
	envSolvelogNoColor = "SOLVELOG_NO_COLOR"
)

var (
	errProblemArgs = &apperr.Error{
		Message: "%s requires a platform and a problem id, e.g. 'solvelog %s leetcode two-sum'",
	}

	errNoSession = &apperr.Error{
		Message: "no session found for %s",
	}

	errEventsFailed = &apperr.Error{
		Message: "%d of %d events failed",
	}

	errImportArg = &apperr.Error{
		Message: "import requires the path of a JSON session file",
	}
)

// problemArgs returns the platform and problem id positional arguments.
func problemArgs(ctx *cli.Context) (platform, problemID string, err error) {
	if ctx.NArg() < 2 {
		name := ctx.Command.Name

		return "", "", errProblemArgs.Fmt(name, name)
	}

	return ctx.Args().Get(0), ctx.Args().Get(1), nil
}

// eventFromArgs builds an event of the given type from the command line.
func eventFromArgs(ctx *cli.Context, eventType string) (router.Event, error) {
	platform, problemID, err := problemArgs(ctx)
	if err != nil {
		return router.Event{}, err
	}

	at, err := timeutil.ParseUnix(ctx.String(atFlag.Name), time.Now())
	if err != nil {
		return router.Event{}, err
	}

	ev := router.Event{
		Type:         eventType,
		Platform:     platform,
		ProblemID:    problemID,
		At:           at,
		Verdict:      ctx.String(verdictFlag.Name),
		Language:     ctx.String(languageFlag.Name),
		SubmissionID: ctx.String(submissionIDFlag.Name),
		Reason:       session.StopReason(ctx.String(reasonFlag.Name)),
	}

	if d := ctx.String(difficultyFlag.Name); d != "" {
		ev.Difficulty = session.ParseDifficulty(d)
	}

	if ctx.IsSet(successFlag.Name) {
		ok := ctx.Bool(successFlag.Name)
		ev.IsSuccess = &ok
	}

	return ev, nil
}

// timerAction handles the commands that map onto a single event: start,
// stop, pause, resume, reset, submit and view.
func timerAction(eventType string) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		ev, err := eventFromArgs(ctx, eventType)
		if err != nil {
			return err
		}

		svc, err := openServices(ctx, false)
		if err != nil {
			return err
		}

		defer svc.Close()

		rec, err := svc.router.Handle(ctx.Context, ev)
		if err != nil {
			return err
		}

		printOutcome(ctx, ev, rec)

		return nil
	}
}

func printOutcome(ctx *cli.Context, ev router.Event, rec *session.Record) {
	w := ctx.App.Writer

	if rec == nil {
		fmt.Fprintln(w, pterm.Info.Sprintf(
			"No session for %s",
			session.BuildProblemKey(ev.Platform, ev.ProblemID),
		))

		return
	}

	fmt.Fprintf(
		w,
		"%s  %s  %s\n",
		ui.Highlight(rec.ProblemKey),
		ui.Status(rec.Status),
		timeutil.FormatDuration(timer.Elapsed(rec, time.Now().Unix())),
	)
}

// eventStreamAction handles the event command. It reads one JSON event per
// line from stdin and prints one JSON result per line: the session, null, or
// an error object. A failing line does not stop the stream.
func eventStreamAction(ctx *cli.Context) error {
	svc, err := openServices(ctx, false)
	if err != nil {
		return err
	}

	defer svc.Close()

	enc := json.NewEncoder(ctx.App.Writer)
	scanner := bufio.NewScanner(ctx.App.Reader)

	var total, failed int

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		total++

		rec, err := handleLine(ctx, svc, line)
		if err != nil {
			failed++

			if err := enc.Encode(map[string]string{"error": err.Error()}); err != nil {
				return err
			}

			continue
		}

		if err := enc.Encode(rec); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return err
	}

	if failed > 0 {
		return errEventsFailed.Fmt(failed, total)
	}

	return nil
}

func handleLine(ctx *cli.Context, svc *services, line string) (*session.Record, error) {
	var ev router.Event
	if err := json.Unmarshal([]byte(line), &ev); err != nil {
		return nil, fmt.Errorf("decoding event: %w", err)
	}

	return svc.router.Handle(ctx.Context, ev)
}

// listAction handles the list command and prints a table of every stored
// session.
func listAction(ctx *cli.Context) error {
	svc, err := openServices(ctx, false)
	if err != nil {
		return err
	}

	defer svc.Close()

	recs, err := svc.router.Sessions(ctx.Context)
	if err != nil {
		return err
	}

	recs = filterPlatform(recs, ctx.String(platformFlag.Name))
	sortSessions(recs)

	if ctx.Bool(jsonFlag.Name) {
		return printJSON(ctx, recs)
	}

	return listSessions(ctx.App.Writer, recs)
}

// showAction prints the active or most recent session of a problem.
func showAction(ctx *cli.Context) error {
	platform, problemID, err := problemArgs(ctx)
	if err != nil {
		return err
	}

	svc, err := openServices(ctx, false)
	if err != nil {
		return err
	}

	defer svc.Close()

	rec, err := svc.router.Session(ctx.Context, platform, problemID)
	if err != nil {
		return err
	}

	if rec == nil {
		return errNoSession.Fmt(session.BuildProblemKey(platform, problemID))
	}

	if ctx.Bool(jsonFlag.Name) {
		return printJSON(ctx, rec)
	}

	return ui.PrintSession(ctx.App.Writer, *rec, time.Now())
}

// pruneAction runs the retention sweep and reports what it removed.
func pruneAction(ctx *cli.Context) error {
	svc, err := openServices(ctx, true)
	if err != nil {
		return err
	}

	defer svc.Close()

	res, err := svc.pruner.Run(ctx.Context, time.Now())
	if err != nil {
		return err
	}

	fmt.Fprintln(ctx.App.Writer, pterm.Success.Sprintf(
		"Kept %d sessions (%d active), removed %d",
		res.Kept,
		res.Active,
		res.Removed,
	))

	return nil
}

// exportAction writes every session as a JSON array to the named file, or
// to stdout without one.
func exportAction(ctx *cli.Context) error {
	svc, err := openServices(ctx, false)
	if err != nil {
		return err
	}

	defer svc.Close()

	recs, err := svc.router.Sessions(ctx.Context)
	if err != nil {
		return err
	}

	if recs == nil {
		recs = []session.Record{}
	}

	b, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return err
	}

	b = append(b, '\n')

	if ctx.NArg() == 0 {
		_, err = ctx.App.Writer.Write(b)
		return err
	}

	return os.WriteFile(ctx.Args().First(), b, 0o600)
}

// importAction reads a session file and stores its sessions.
func importAction(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return errImportArg
	}

	raws, err := store.ReadSessionsFile(ctx.Args().First())
	if err != nil {
		return err
	}

	svc, err := openServices(ctx, false)
	if err != nil {
		return err
	}

	defer svc.Close()

	res, err := svc.sessions.Import(ctx.Context, raws, ctx.Bool(replaceFlag.Name))
	if err != nil {
		return err
	}

	fmt.Fprintln(ctx.App.Writer, pterm.Success.Sprintf(
		"Imported %d sessions, dropped %d",
		res.Imported,
		res.Dropped,
	))

	return nil
}

func printJSON(ctx *cli.Context, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	fmt.Fprintln(ctx.App.Writer, string(b))

	return nil
}

func beforeAction(ctx *cli.Context) error {
	// Override the default help template
	cli.AppHelpTemplate = helpText()

	pterm.Error.MessageStyle = pterm.NewStyle(pterm.FgRed)
	pterm.Error.Prefix = pterm.Prefix{
		Text:  "ERROR",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}

	if _, exists := os.LookupEnv(envNoColor); exists {
		disableStyling()
	}

	if _, exists := os.LookupEnv(envSolvelogNoColor); exists {
		disableStyling()
	}

	if ctx.Bool(noColorFlag.Name) {
		disableStyling()
	}

	if err := initPaths(ctx); err != nil {
		return err
	}

	return setupLogger(ctx)
}

func afterAction(ctx *cli.Context) error {
	return closeLogger(ctx)
}
