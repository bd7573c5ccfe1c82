package app

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/kballard/go-shellquote"
	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/solvelog/internal/config"
	"github.com/ayoisaiah/solvelog/internal/osutil"
)

var errNoEditor = errors.New("no editor configured: set $VISUAL or $EDITOR")

// editConfigAction handles the edit-config command which opens the config
// file in the user's default text editor. The file is validated once the
// editor exits.
func editConfigAction(ctx *cli.Context) error {
	f, err := config.Open(configPath(ctx))
	if err != nil {
		return err
	}

	// editors such as "code --wait" carry their own arguments
	editor, err := shellquote.Split(osutil.Editor())
	if err != nil {
		return fmt.Errorf("unable to parse editor command: %w", err)
	}

	if len(editor) == 0 {
		return errNoEditor
	}

	args := append(editor[1:], f.Path())

	cmd := exec.CommandContext(ctx.Context, editor[0], args...)
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout

	if err := cmd.Run(); err != nil {
		return err
	}

	_, err = f.Settings(ctx.Context)

	return err
}
