package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/ayoisaiah/solvelog/internal/server"
)

func notifyContext(ctx *cli.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
}

// watchAction runs the inactivity monitor until interrupted.
func watchAction(ctx *cli.Context) error {
	svc, err := openServices(ctx, false)
	if err != nil {
		return err
	}

	defer svc.Close()

	runCtx, stop := notifyContext(ctx)
	defer stop()

	fmt.Fprintln(ctx.App.Writer, pterm.Info.Sprintf(
		"Checking for inactive sessions every %s. Press Ctrl+C to exit",
		ctx.Duration(intervalFlag.Name),
	))

	return svc.monitor.Run(runCtx)
}

// serveAction runs the local event endpoint and the inactivity monitor
// until interrupted.
func serveAction(ctx *cli.Context) error {
	svc, err := openServices(ctx, false)
	if err != nil {
		return err
	}

	defer svc.Close()

	runCtx, stop := notifyContext(ctx)
	defer stop()

	port := ctx.Uint(portFlag.Name)

	slog.InfoContext(runCtx, "serving events", slog.Uint64("port", uint64(port)))
	fmt.Fprintln(ctx.App.Writer, pterm.Info.Sprintf(
		"Listening on http://127.0.0.1:%d. Press Ctrl+C to exit",
		port,
	))

	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		return server.New(svc.router).ListenAndServe(gctx, port)
	})

	g.Go(func() error {
		return svc.monitor.Run(gctx)
	})

	return g.Wait()
}
