package app

import (
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/solvelog/internal/config"
	"github.com/ayoisaiah/solvelog/internal/hook"
	"github.com/ayoisaiah/solvelog/internal/manager"
	"github.com/ayoisaiah/solvelog/internal/monitor"
	"github.com/ayoisaiah/solvelog/internal/pathutil"
	"github.com/ayoisaiah/solvelog/internal/prune"
	"github.com/ayoisaiah/solvelog/internal/router"
	"github.com/ayoisaiah/solvelog/internal/ui"
	"github.com/ayoisaiah/solvelog/store"
)

const legacyFileName = "sessions.json"

// services is everything a command needs, wired the same way for the CLI,
// watch and serve.
type services struct {
	db       *store.Client
	sessions *manager.Manager
	pruner   *prune.Pruner
	router   *router.Router
	monitor  *monitor.Monitor
}

// initPaths resolves the xdg locations unless every path was given on the
// command line.
func initPaths(ctx *cli.Context) error {
	if ctx.String(configFlag.Name) != "" &&
		ctx.String(dbFlag.Name) != "" &&
		ctx.String(logFileFlag.Name) != "" {
		return nil
	}

	return pathutil.Initialize()
}

func configPath(ctx *cli.Context) string {
	if p := ctx.String(configFlag.Name); p != "" {
		return p
	}

	return pathutil.ConfigFilePath()
}

func dbPaths(ctx *cli.Context) (db, legacy string) {
	if p := ctx.String(dbFlag.Name); p != "" {
		return p, filepath.Join(filepath.Dir(p), legacyFileName)
	}

	return pathutil.DBFilePath(), pathutil.LegacyFilePath()
}

// openServices opens the config file and the store. The retention sweep runs
// unless skipPrune is set.
func openServices(ctx *cli.Context, skipPrune bool) (*services, error) {
	settings, err := config.Open(configPath(ctx))
	if err != nil {
		return nil, err
	}

	s, err := settings.Settings(ctx.Context)
	if err != nil {
		return nil, err
	}

	ui.DarkTheme = s.Display.DarkTheme

	log := slog.Default()
	dbPath, legacyPath := dbPaths(ctx)

	db, err := store.Open(dbPath, store.Options{
		Logger:     log,
		LegacyPath: legacyPath,
	})
	if err != nil {
		return nil, err
	}

	runner := hook.New(settings, hook.WithLogger(log))
	sessions := manager.New(db, manager.WithLogger(log))
	pruner := prune.New(sessions, settings, log)

	svc := &services{
		db:       db,
		sessions: sessions,
		pruner:   pruner,
		router: router.New(
			sessions,
			pruner,
			settings,
			router.WithLogger(log),
			router.OnTerminal(runner.Notify),
		),
		monitor: monitor.New(
			sessions,
			settings,
			ctx.Duration(intervalFlag.Name),
			monitor.WithLogger(log),
			monitor.WithPruner(pruner),
			monitor.OnTerminal(runner.Notify),
		),
	}

	if !skipPrune {
		if _, err := svc.router.Startup(ctx.Context); err != nil {
			return nil, errors.Join(err, db.Close())
		}
	}

	return svc, nil
}

func (s *services) Close() error {
	return s.db.Close()
}
