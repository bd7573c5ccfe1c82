package app

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ayoisaiah/solvelog/internal/osutil"
	"github.com/ayoisaiah/solvelog/internal/pathutil"
)

const (
	logMaxSizeMB  = 5
	logMaxBackups = 3
	logMetaKey    = "log"
)

// setupLogger makes a JSON logger writing to a rotating file the default,
// keeping terminal output free of log lines.
func setupLogger(ctx *cli.Context) error {
	path := ctx.String(logFileFlag.Name)
	if path == "" {
		path = pathutil.LogFilePath()
	}

	if err := os.MkdirAll(filepath.Dir(path), osutil.DirPermission); err != nil {
		return err
	}

	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    logMaxSizeMB,
		MaxBackups: logMaxBackups,
	}

	level := slog.LevelInfo
	if ctx.Bool(verboseFlag.Name) {
		level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})))

	if ctx.App.Metadata == nil {
		ctx.App.Metadata = map[string]any{}
	}

	ctx.App.Metadata[logMetaKey] = w

	return nil
}

func closeLogger(ctx *cli.Context) error {
	if c, ok := ctx.App.Metadata[logMetaKey].(io.Closer); ok {
		return c.Close()
	}

	return nil
}
