package app

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"
)

// clearAction deletes every stored session. It requests confirmation
// before proceeding unless --yes is set.
func clearAction(ctx *cli.Context) error {
	svc, err := openServices(ctx, true)
	if err != nil {
		return err
	}

	defer svc.Close()

	recs, err := svc.router.Sessions(ctx.Context)
	if err != nil {
		return err
	}

	if len(recs) == 0 {
		fmt.Fprintln(ctx.App.Writer, pterm.Info.Sprint(noSessionsMsg))
		return nil
	}

	if !ctx.Bool(yesFlag.Name) {
		confirmed := false

		err := huh.NewConfirm().
			Title(fmt.Sprintf("Delete all %d sessions permanently?", len(recs))).
			Affirmative("Delete").
			Negative("Cancel").
			Value(&confirmed).
			Run()
		if err != nil {
			return err
		}

		if !confirmed {
			return nil
		}
	}

	if err := svc.router.ClearSessions(ctx.Context); err != nil {
		return err
	}

	fmt.Fprintln(ctx.App.Writer, pterm.Success.Sprintf("Deleted %d sessions", len(recs)))

	return nil
}
