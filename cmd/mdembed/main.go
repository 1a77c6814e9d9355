package main

import (
	"context"
	"fmt"
	"os"
	"slices"

	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

// commands lists the subcommand names. Anything else is an embed argument.
var commands = []string{"embed", "refs", "version", "help", "completion"}

func main() {
	os.Exit(runMain(os.Args, DefaultEnv()))
}

// runMain dispatches to a command and returns the process exit code.
func runMain(args []string, env *Environment) int {
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...any) {}))

	ctx, stop := notifyContext(context.Background())
	defer stop()

	cmd, rest := "embed", args[1:]
	if len(rest) > 0 && isCommand(rest[0]) {
		cmd, rest = rest[0], rest[1:]
	}

	var err error
	switch cmd {
	case "embed":
		err = runEmbed(ctx, rest, env)
	case "refs":
		err = runRefs(rest, env)
	case "version":
		fmt.Fprintf(env.Stdout, "mdembed %s\n", Version)
	case "help":
		runHelp(rest, env)
	case "completion":
		err = runCompletion(rest, env)
	}

	if err != nil {
		fmt.Fprintln(env.Stderr, "error:", err)
	}
	return exitCodeFor(err)
}

func isCommand(arg string) bool {
	return slices.Contains(commands, arg)
}
