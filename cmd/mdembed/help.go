package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdembed [embed] [flags] [file...]")
	fmt.Fprintln(w, "       mdembed <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  embed      Embed images as data URLs (default)")
	fmt.Fprintln(w, "  refs       Move inline data images into reference definitions")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w, "  completion Generate shell completion script")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'mdembed help <command>' for details on a specific command.")
}

// printEmbedUsage prints usage for the embed command.
func printEmbedUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdembed [embed] [flags] [file|dir|glob...]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Replace image references with inline base64 data URLs. Reads stdin and")
	fmt.Fprintln(w, "writes stdout when no file is given. Images that cannot be embedded are")
	fmt.Fprintln(w, "left as they are and listed at the end.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -i, --input <file>        Input Markdown file")
	fmt.Fprintln(w, "  -o, --output <path>       Output file, or directory for several inputs")
	fmt.Fprintln(w, "      --in-place            Rewrite input files")
	fmt.Fprintln(w, "      --backup              Keep a .bak copy of rewritten files")
	fmt.Fprintln(w, "  -j, --jobs <n>            Files processed in parallel (0 = auto)")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Images:")
	fmt.Fprintln(w, "  -q, --quality <1-9>       1 = best quality, 9 = smallest output (default 5)")
	fmt.Fprintln(w, "  -y, --yarle               Accept Yarle size annotations ![alt|300x200](img)")
	fmt.Fprintln(w, "  -m, --max-size <mb>       Largest image to embed (default 10)")
	fmt.Fprintln(w, "  -p, --path <dir>          Directory for relative paths (default: input file directory)")
	fmt.Fprintln(w, "      --link-remote         Link embedded remote images to their original URL")
	fmt.Fprintln(w, "      --timeout <d>         Download timeout per image (default 30s)")
	fmt.Fprintln(w, "  -w, --workers <n>         Images processed in parallel per document")
	fmt.Fprintln(w, "      --keep-type <mime>    Embed this type without re-encoding (repeatable)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Preview and Reports:")
	fmt.Fprintln(w, "      --html <path>         Write an HTML preview")
	fmt.Fprintln(w, "      --style <s>           Preview style: default, plain, file path, or CSS")
	fmt.Fprintln(w, "      --report <file>       Write a YAML report of every image")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "      --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Log every embedded image")
	fmt.Fprintln(w, "  -d, --debug               Log everything")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  MDEMBED_CONFIG, MDEMBED_QUALITY, MDEMBED_MAX_SIZE, MDEMBED_PATH,")
	fmt.Fprintln(w, "  MDEMBED_TIMEOUT, MDEMBED_WORKERS, MDEMBED_YARLE")
	fmt.Fprintln(w, "  Flags override environment variables, which override the config file.")
}

// printRefsUsage prints usage for the refs command.
func printRefsUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdembed refs [flags] <input> [output]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Move inline data images into reference definitions at the end of the")
	fmt.Fprintln(w, "document. Writes stdout when no output is given.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "      --overwrite           Rewrite the input, or replace an existing output")
	fmt.Fprintln(w, "      --backup              Keep a .bak copy of the replaced file")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "embed":
		printEmbedUsage(env.Stdout)
	case "refs":
		printRefsUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: mdembed version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: mdembed help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	case "completion":
		printCompletionUsage(env.Stdout)
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
