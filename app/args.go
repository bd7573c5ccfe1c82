package app

import (
	"strings"

	"github.com/urfave/cli/v2"
)

// Run runs a with args. Command flags may come before or after the
// positional arguments, e.g. 'solvelog start leetcode two-sum --at 1000'.
func Run(a *cli.App, args []string) error {
	return a.Run(flagsFirst(a, args))
}

type valueFlag interface {
	TakesValue() bool
}

// flagsFirst moves the flags given after a command's positional arguments in
// front of them. Parsing stops at the first positional argument otherwise.
// Everything after "--" is left where it is.
func flagsFirst(a *cli.App, args []string) []string {
	if len(args) < 2 {
		return args
	}

	out := make([]string, 0, len(args))
	out = append(out, args[0])

	i := 1

	for i < len(args) && isFlag(args[i]) {
		if args[i] == "--" {
			return append(out, args[i:]...)
		}

		out = append(out, args[i])

		if takesValue(a.Flags, args[i]) && i+1 < len(args) {
			out = append(out, args[i+1])
			i++
		}

		i++
	}

	if i == len(args) {
		return out
	}

	cmd := a.Command(args[i])
	if cmd == nil {
		return append(out, args[i:]...)
	}

	out = append(out, args[i])
	i++

	var flags, positional []string

	for i < len(args) {
		arg := args[i]

		if arg == "--" {
			positional = append(positional, args[i:]...)
			break
		}

		if !isFlag(arg) {
			positional = append(positional, arg)
			i++

			continue
		}

		flags = append(flags, arg)

		if takesValue(cmd.Flags, arg) && i+1 < len(args) {
			flags = append(flags, args[i+1])
			i++
		}

		i++
	}

	out = append(out, flags...)

	return append(out, positional...)
}

func isFlag(arg string) bool {
	return len(arg) > 1 && arg[0] == '-'
}

// takesValue reports whether arg names a flag whose value is the next
// argument.
func takesValue(flags []cli.Flag, arg string) bool {
	name := strings.TrimLeft(arg, "-")
	if strings.Contains(name, "=") {
		return false
	}

	for _, f := range flags {
		for _, n := range f.Names() {
			if n != name {
				continue
			}

			if v, ok := f.(valueFlag); ok {
				return v.TakesValue()
			}

			return true
		}
	}

	return false
}
