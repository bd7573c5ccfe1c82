// Package app defines the solvelog command-line application
package app

import (
	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/solvelog/internal/router"
)

// Version is set at build time.
var Version = "dev"

// disableStyling disables all styling provided by pterm.
func disableStyling() {
	pterm.DisableColor()
	pterm.DisableStyling()
	pterm.Debug.Prefix.Text = ""
	pterm.Info.Prefix.Text = ""
	pterm.Success.Prefix.Text = ""
	pterm.Warning.Prefix.Text = ""
	pterm.Error.Prefix.Text = ""
	pterm.Fatal.Prefix.Text = ""
}

const problemUsage = "<platform> <problem-id>"

// Get retrieves the solvelog app instance.
func Get() *cli.App {
	return &cli.App{
		Name: "solvelog",
		Usage: `
		solvelog tracks how long you spend on coding problems across judge
		platforms and records how each attempt ended.`,
		UsageText:            "[COMMAND] [OPTIONS]",
		Version:              Version,
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			{
				Name:      "start",
				Usage:     "Start or resume the timer for a problem",
				ArgsUsage: problemUsage,
				Flags:     []cli.Flag{atFlag, difficultyFlag},
				Action:    timerAction(router.EventTimerStart),
			},
			{
				Name:      "stop",
				Usage:     "Stop the timer and end the session",
				ArgsUsage: problemUsage,
				Flags:     []cli.Flag{atFlag, reasonFlag},
				Action:    timerAction(router.EventTimerStop),
			},
			{
				Name:      "pause",
				Usage:     "Pause the running timer",
				ArgsUsage: problemUsage,
				Flags:     []cli.Flag{atFlag},
				Action:    timerAction(router.EventTimerPause),
			},
			{
				Name:      "resume",
				Usage:     "Resume a paused timer",
				ArgsUsage: problemUsage,
				Flags:     []cli.Flag{atFlag},
				Action:    timerAction(router.EventTimerResume),
			},
			{
				Name:      "reset",
				Usage:     "Discard the elapsed time of a session",
				ArgsUsage: problemUsage,
				Flags:     []cli.Flag{atFlag},
				Action:    timerAction(router.EventTimerReset),
			},
			{
				Name:      "submit",
				Usage:     "Record a judge submission. An accepted verdict completes the session",
				ArgsUsage: problemUsage,
				Flags: []cli.Flag{
					atFlag,
					verdictFlag,
					languageFlag,
					submissionIDFlag,
					successFlag,
				},
				Action: timerAction(router.EventSubmission),
			},
			{
				Name:      "view",
				Usage:     "Report that the problem page is open",
				ArgsUsage: problemUsage,
				Flags:     []cli.Flag{atFlag, difficultyFlag},
				Action:    timerAction(router.EventPageView),
			},
			{
				Name:   "event",
				Usage:  "Read newline-delimited JSON events from stdin",
				Action: eventStreamAction,
			},
			{
				Name:   "list",
				Usage:  "Print a table of all sessions",
				Flags:  []cli.Flag{jsonFlag, platformFlag},
				Action: listAction,
			},
			{
				Name:      "show",
				Usage:     "Print the active or latest session of a problem",
				ArgsUsage: problemUsage,
				Flags:     []cli.Flag{jsonFlag},
				Action:    showAction,
			},
			{
				Name:   "clear",
				Usage:  "Delete every session",
				Flags:  []cli.Flag{yesFlag},
				Action: clearAction,
			},
			{
				Name:   "prune",
				Usage:  "Apply the retention policy now",
				Action: pruneAction,
			},
			{
				Name:      "export",
				Usage:     "Write all sessions as JSON to a file or stdout",
				ArgsUsage: "[file]",
				Action:    exportAction,
			},
			{
				Name:      "import",
				Usage:     "Load sessions from a JSON file",
				ArgsUsage: "<file>",
				Flags:     []cli.Flag{replaceFlag},
				Action:    importAction,
			},
			{
				Name:   "watch",
				Usage:  "Time out inactive sessions until interrupted",
				Flags:  []cli.Flag{intervalFlag},
				Action: watchAction,
			},
			{
				Name:   "serve",
				Usage:  "Accept events over HTTP on 127.0.0.1",
				Flags:  []cli.Flag{portFlag, intervalFlag},
				Action: serveAction,
			},
			{
				Name:   "edit-config",
				Usage:  "Edit the configuration file",
				Action: editConfigAction,
			},
		},
		Flags:  globalFlags,
		Before: beforeAction,
		After:  afterAction,
	}
}
