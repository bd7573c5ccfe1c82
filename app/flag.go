package app

import (
	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/solvelog/internal/monitor"
)

const defaultPort = 7878

var (
	noColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable coloured output",
	}

	verboseFlag = &cli.BoolFlag{
		Name:  "verbose",
		Usage: "Write debug messages to the log file",
	}

	configFlag = &cli.StringFlag{
		Name:    "config",
		Usage:   "Path to the config file",
		EnvVars: []string{"SOLVELOG_CONFIG"},
	}

	dbFlag = &cli.StringFlag{
		Name:    "db",
		Usage:   "Path to the session database",
		EnvVars: []string{"SOLVELOG_DB"},
	}

	logFileFlag = &cli.StringFlag{
		Name:    "log-file",
		Usage:   "Path to the log file",
		EnvVars: []string{"SOLVELOG_LOG_FILE"},
	}

	atFlag = &cli.StringFlag{
		Name:  "at",
		Usage: "When the event happened: a unix timestamp or a phrase such as '10 mins ago'. Defaults to now",
	}

	difficultyFlag = &cli.StringFlag{
		Name:    "difficulty",
		Aliases: []string{"d"},
		Usage:   "Problem difficulty: a rating (e.g. 1400) or a label (e.g. medium)",
	}

	reasonFlag = &cli.StringFlag{
		Name:  "reason",
		Usage: "Why the session ended: manual, accepted, timeout, problem_switch or reset",
		Value: "manual",
	}

	verdictFlag = &cli.StringFlag{
		Name:     "verdict",
		Usage:    "Judge verdict, e.g. Accepted or 'Wrong Answer'",
		Required: true,
	}

	languageFlag = &cli.StringFlag{
		Name:    "language",
		Aliases: []string{"lang"},
		Usage:   "Submission language",
	}

	submissionIDFlag = &cli.StringFlag{
		Name:  "id",
		Usage: "Submission id used to ignore repeated reports of the same submission",
	}

	successFlag = &cli.BoolFlag{
		Name:  "success",
		Usage: "Treat the submission as accepted (or not, with --success=false) regardless of the verdict",
	}

	jsonFlag = &cli.BoolFlag{
		Name:  "json",
		Usage: "Print JSON instead of a table",
	}

	platformFlag = &cli.StringFlag{
		Name:    "platform",
		Aliases: []string{"p"},
		Usage:   "Only include sessions on this platform",
	}

	yesFlag = &cli.BoolFlag{
		Name:    "yes",
		Aliases: []string{"y"},
		Usage:   "Skip the confirmation prompt",
	}

	replaceFlag = &cli.BoolFlag{
		Name:  "replace",
		Usage: "Remove every existing session before importing",
	}

	intervalFlag = &cli.DurationFlag{
		Name:  "interval",
		Usage: "How often to check for inactive sessions",
		Value: monitor.DefaultInterval,
	}

	portFlag = &cli.UintFlag{
		Name:  "port",
		Usage: "Port for the local event endpoint",
		Value: defaultPort,
	}
)

var globalFlags = []cli.Flag{
	noColorFlag,
	verboseFlag,
	configFlag,
	dbFlag,
	logFileFlag,
}
