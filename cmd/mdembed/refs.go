package main

import (
	"errors"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	mdembed "github.com/alnah/go-mdembed"
	"github.com/alnah/go-mdembed/internal/fileutil"
	"github.com/alnah/go-mdembed/internal/hints"
)

// runRefs moves inline data images of one document into reference
// definitions. Without an output argument the result goes to stdout,
// unless --overwrite rewrites the input.
func runRefs(args []string, env *Environment) error {
	flags, positional, err := parseRefsFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if len(positional) < 1 || len(positional) > 2 {
		printRefsUsage(env.Stderr)
		return fmt.Errorf("%w: refs takes <input> [output]", ErrUsage)
	}

	in := positional[0]
	content, err := os.ReadFile(in) // #nosec G304 -- user-provided path
	if err != nil {
		return fmt.Errorf("%w: %v%s", mdembed.ErrInputUnavailable, err, hints.ForInputNotFound())
	}

	out, moved := mdembed.MoveDataImages(string(content))

	var target string
	switch {
	case len(positional) == 2:
		target = positional[1]
		if fileutil.FileExists(target) && !flags.overwrite {
			return fmt.Errorf("%w: %s (use --overwrite to replace it)", ErrOutputExists, target)
		}
	case flags.overwrite:
		target = in
	default:
		if _, err := fmt.Fprint(env.Stdout, out); err != nil {
			return fmt.Errorf("%w: stdout: %v", mdembed.ErrOutputUnwritable, err)
		}
		return nil
	}

	if moved == 0 && target == in {
		fmt.Fprintf(env.Stderr, "no inline images to move in %s\n", in)
		return nil
	}
	if err := writeFile(target, []byte(out), flags.backup); err != nil {
		return err
	}
	fmt.Fprintf(env.Stderr, "moved %d %s to reference definitions in %s\n", moved, plural(moved, "image", "images"), target)
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
