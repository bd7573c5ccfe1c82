package main

import (
	"os"

	"github.com/pterm/pterm"

	"github.com/ayoisaiah/solvelog/app"
)

func run(args []string) error {
	return app.Run(app.Get(), args)
}

func main() {
	err := run(os.Args)
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}
