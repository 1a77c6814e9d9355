package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"
)

// Shell represents a supported shell for completion generation.
type Shell string

// Supported shells for completion.
const (
	ShellBash       Shell = "bash"
	ShellZsh        Shell = "zsh"
	ShellFish       Shell = "fish"
	ShellPowerShell Shell = "powershell"
)

// ErrUnsupportedShell is returned when an unknown shell is requested.
var ErrUnsupportedShell = errors.New("unsupported shell")

// flagType represents the completion type for a flag.
type flagType int

const (
	flagString flagType = iota // default
	flagBool
	flagInt
	flagFloat
	flagEnum // has predefined values
	flagFile // file with glob pattern
	flagDir  // directory
)

// flagDef describes a flag for completion purposes.
type flagDef struct {
	Long     string   // --output
	Short    string   // -o (empty if none)
	Type     flagType // completion type
	Desc     string   // help text
	Values   []string // for enum flags
	FileGlob string   // for file flags
}

// commandDef describes a command for completion.
type commandDef struct {
	Name        string
	Desc        string
	Flags       []flagDef
	TakesFiles  bool   // accepts file arguments
	FilePattern string // glob for file arguments (e.g., "*.md")
}

// completionMeta holds completion-specific metadata for flags.
// Flag names, types, and descriptions come from the FlagSet.
type completionMeta struct {
	Values   []string // enum values
	FileGlob string   // file glob pattern
	IsDir    bool     // directory completion
}

// flagCompletionMeta maps flag names to their completion metadata.
var flagCompletionMeta = map[string]completionMeta{
	// Enum flags
	"quality":   {Values: []string{"1", "2", "3", "4", "5", "6", "7", "8", "9"}},
	"keep-type": {Values: []string{"image/gif", "image/png", "image/svg+xml", "image/webp"}},

	// File flags with glob patterns
	"config": {FileGlob: "*.yaml,*.yml"},
	"input":  {FileGlob: "*.md,*.markdown"},
	"style":  {FileGlob: "*.css"},
	"report": {FileGlob: "*.yaml,*.yml"},
	"html":   {FileGlob: "*.html"},

	// Directory flags
	"output": {IsDir: true},
	"path":   {IsDir: true},
}

// markdownPattern is the file argument glob of embed and refs.
const markdownPattern = "*.md,*.markdown"

// extractFlagsFromFlagSet extracts flag definitions from a pflag.FlagSet.
// Enriches with completion metadata from flagCompletionMeta.
func extractFlagsFromFlagSet(fs *flag.FlagSet) []flagDef {
	var flags []flagDef

	fs.VisitAll(func(f *flag.Flag) {
		fd := flagDef{
			Long:  f.Name,
			Short: f.Shorthand,
			Desc:  f.Usage,
		}

		switch f.Value.Type() {
		case "bool":
			fd.Type = flagBool
		case "int", "int8", "int16", "int32", "int64", "uint", "uint8", "uint16", "uint32", "uint64":
			fd.Type = flagInt
		case "float32", "float64":
			fd.Type = flagFloat
		default:
			fd.Type = flagString
		}

		if meta, ok := flagCompletionMeta[f.Name]; ok {
			switch {
			case len(meta.Values) > 0:
				fd.Type = flagEnum
				fd.Values = meta.Values
			case meta.FileGlob != "":
				fd.Type = flagFile
				fd.FileGlob = meta.FileGlob
			case meta.IsDir:
				fd.Type = flagDir
			}
		}

		flags = append(flags, fd)
	})

	return flags
}

// getCommands returns the command registry for completion.
// Flags are extracted from the flag sets the commands parse with.
func getCommands() []commandDef {
	return []commandDef{
		{
			Name:        "embed",
			Desc:        "Embed images as data URLs (default)",
			Flags:       extractFlagsFromFlagSet(newEmbedFlagSet(&embedFlags{})),
			TakesFiles:  true,
			FilePattern: markdownPattern,
		},
		{
			Name:        "refs",
			Desc:        "Move inline data images into reference definitions",
			Flags:       extractFlagsFromFlagSet(newRefsFlagSet(&refsFlags{})),
			TakesFiles:  true,
			FilePattern: markdownPattern,
		},
		{Name: "version", Desc: "Show version information"},
		{Name: "help", Desc: "Show help for a command"},
		{Name: "completion", Desc: "Generate shell completion script"},
	}
}

// GenerateCompletion writes shell completion script to w.
// Returns error if shell is unsupported or write fails.
func GenerateCompletion(w io.Writer, shell Shell) error {
	var script string
	switch shell {
	case ShellBash:
		script = bashScript(getCommands())
	case ShellZsh:
		script = zshScript(getCommands())
	case ShellFish:
		script = fishScript(getCommands())
	case ShellPowerShell:
		script = powerShellScript(getCommands())
	default:
		return fmt.Errorf("%w: %q (supported: bash, zsh, fish, powershell)", ErrUnsupportedShell, shell)
	}
	_, err := io.WriteString(w, script)
	return err
}

// runCompletion handles the completion command.
func runCompletion(args []string, env *Environment) error {
	if len(args) == 0 {
		printCompletionUsage(env.Stdout)
		return nil
	}
	if err := GenerateCompletion(env.Stdout, Shell(args[0])); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}

// printCompletionUsage prints help for the completion command.
func printCompletionUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdembed completion <shell>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Generate shell completion script for the specified shell.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Supported shells:")
	fmt.Fprintln(w, "  bash        Bash completion script")
	fmt.Fprintln(w, "  zsh         Zsh completion script")
	fmt.Fprintln(w, "  fish        Fish completion script")
	fmt.Fprintln(w, "  powershell  PowerShell completion script")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Installation:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Bash:")
	fmt.Fprintln(w, "    # Add to ~/.bashrc:")
	fmt.Fprintln(w, "    eval \"$(mdembed completion bash)\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Zsh:")
	fmt.Fprintln(w, "    # Add to ~/.zshrc (before compinit):")
	fmt.Fprintln(w, "    eval \"$(mdembed completion zsh)\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Fish:")
	fmt.Fprintln(w, "    mdembed completion fish > ~/.config/fish/completions/mdembed.fish")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  PowerShell:")
	fmt.Fprintln(w, "    # Add to $PROFILE:")
	fmt.Fprintln(w, "    mdembed completion powershell | Out-String | Invoke-Expression")
}

// ---------------------------------------------------------------------------
// Script generators
// ---------------------------------------------------------------------------

func commandNames(cmds []commandDef) []string {
	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.Name
	}
	return names
}

func globs(pattern string) []string {
	return strings.Split(pattern, ",")
}

// flagWords lists the spellings of every flag: --long and -s.
func flagWords(flags []flagDef) []string {
	var words []string
	for _, f := range flags {
		words = append(words, "--"+f.Long)
		if f.Short != "" {
			words = append(words, "-"+f.Short)
		}
	}
	return words
}

func bashFiles(pattern string) string {
	var parts []string
	for _, g := range globs(pattern) {
		parts = append(parts, fmt.Sprintf(`$(compgen -f -X '!%s' -- "$cur")`, g))
	}
	parts = append(parts, `$(compgen -d -- "$cur")`)
	return "COMPREPLY=(" + strings.Join(parts, " ") + ")"
}

func bashScript(cmds []commandDef) string {
	var b strings.Builder
	names := strings.Join(commandNames(cmds), " ")

	b.WriteString("# bash completion for mdembed\n\n")
	b.WriteString("_mdembed_completions() {\n")
	b.WriteString("    local cur prev cmd=embed i\n")
	b.WriteString("    cur=\"${COMP_WORDS[COMP_CWORD]}\"\n")
	b.WriteString("    prev=\"${COMP_WORDS[COMP_CWORD-1]}\"\n\n")
	fmt.Fprintf(&b, "    for ((i = 1; i < COMP_CWORD; i++)); do\n")
	fmt.Fprintf(&b, "        case \"${COMP_WORDS[i]}\" in\n")
	fmt.Fprintf(&b, "            %s) cmd=\"${COMP_WORDS[i]}\"; break ;;\n", strings.ReplaceAll(names, " ", "|"))
	b.WriteString("        esac\n    done\n\n")

	for _, c := range cmds {
		var cases []string
		for _, f := range c.Flags {
			spell := "--" + f.Long
			if f.Short != "" {
				spell += "|-" + f.Short
			}
			switch f.Type {
			case flagEnum:
				cases = append(cases, fmt.Sprintf("            %s) COMPREPLY=($(compgen -W %q -- \"$cur\")); return ;;", spell, strings.Join(f.Values, " ")))
			case flagFile:
				cases = append(cases, fmt.Sprintf("            %s) %s; return ;;", spell, bashFiles(f.FileGlob)))
			case flagDir:
				cases = append(cases, fmt.Sprintf("            %s) COMPREPLY=($(compgen -d -- \"$cur\")); return ;;", spell))
			case flagString, flagInt, flagFloat:
				cases = append(cases, fmt.Sprintf("            %s) return ;;", spell))
			}
		}
		if len(cases) == 0 {
			continue
		}
		fmt.Fprintf(&b, "    if [[ $cmd == %s ]]; then\n        case \"$prev\" in\n", c.Name)
		b.WriteString(strings.Join(cases, "\n"))
		b.WriteString("\n        esac\n    fi\n")
	}

	b.WriteString("\n    case \"$cmd\" in\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        %s)\n", c.Name)
		if words := flagWords(c.Flags); len(words) > 0 {
			fmt.Fprintf(&b, "            if [[ $cur == -* ]]; then\n")
			fmt.Fprintf(&b, "                COMPREPLY=($(compgen -W %q -- \"$cur\"))\n", strings.Join(words, " "))
			fmt.Fprintf(&b, "                return\n            fi\n")
		}
		if c.Name == "embed" {
			fmt.Fprintf(&b, "            if ((COMP_CWORD == 1)); then\n")
			fmt.Fprintf(&b, "                COMPREPLY=($(compgen -W %q -- \"$cur\"))\n", names)
			fmt.Fprintf(&b, "            fi\n")
		}
		switch {
		case c.TakesFiles:
			fmt.Fprintf(&b, "            COMPREPLY+=(%s)\n", strings.TrimSuffix(strings.TrimPrefix(bashFiles(c.FilePattern), "COMPREPLY=("), ")"))
		case c.Name == "help":
			fmt.Fprintf(&b, "            COMPREPLY=($(compgen -W %q -- \"$cur\"))\n", names)
		case c.Name == "completion":
			fmt.Fprintf(&b, "            COMPREPLY=($(compgen -W \"bash zsh fish powershell\" -- \"$cur\"))\n")
		}
		b.WriteString("            ;;\n")
	}
	b.WriteString("    esac\n}\n\n")
	b.WriteString("complete -F _mdembed_completions mdembed\n")
	return b.String()
}

// zshEscape escapes text used inside a single-quoted _arguments spec.
func zshEscape(s string) string {
	r := strings.NewReplacer(`'`, `'\''`, "[", `\[`, "]", `\]`, ":", `\:`)
	return r.Replace(s)
}

func zshFlagSpec(f flagDef) string {
	action := ""
	switch f.Type {
	case flagEnum:
		action = fmt.Sprintf(":%s:(%s)", f.Long, strings.Join(f.Values, " "))
	case flagFile:
		action = fmt.Sprintf(":file:_files -g \"%s\"", strings.Join(globs(f.FileGlob), " "))
	case flagDir:
		action = ":directory:_files -/"
	case flagString, flagInt, flagFloat:
		action = fmt.Sprintf(":%s:", f.Long)
	}
	desc := zshEscape(f.Desc)
	if f.Short == "" {
		return fmt.Sprintf("'--%s[%s]%s'", f.Long, desc, action)
	}
	return fmt.Sprintf("'(-%s --%s)'{-%s,--%s}'[%s]%s'", f.Short, f.Long, f.Short, f.Long, desc, action)
}

func zshScript(cmds []commandDef) string {
	var b strings.Builder

	b.WriteString("#compdef mdembed\n\n")
	b.WriteString("_mdembed() {\n")
	b.WriteString("    local -a commands\n    commands=(\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        '%s:%s'\n", c.Name, zshEscape(c.Desc))
	}
	b.WriteString("    )\n\n")
	b.WriteString("    local cmd=embed\n")
	b.WriteString("    if (( CURRENT > 2 )) && (( ${commands[(I)$words[2]:*]} )); then\n")
	b.WriteString("        cmd=$words[2]\n        shift words\n        (( CURRENT-- ))\n")
	b.WriteString("    elif (( CURRENT == 2 )) && [[ $words[2] != -* ]]; then\n")
	b.WriteString("        _describe 'command' commands\n")
	b.WriteString("    fi\n\n")
	b.WriteString("    case $cmd in\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        %s)\n", c.Name)
		var specs []string
		for _, f := range c.Flags {
			specs = append(specs, zshFlagSpec(f))
		}
		switch {
		case c.TakesFiles:
			specs = append(specs, fmt.Sprintf("'*:file:_files -g \"%s\"'", strings.Join(globs(c.FilePattern), " ")))
		case c.Name == "help":
			specs = append(specs, fmt.Sprintf("'1:command:(%s)'", strings.Join(commandNames(cmds), " ")))
		case c.Name == "completion":
			specs = append(specs, "'1:shell:(bash zsh fish powershell)'")
		}
		if len(specs) > 0 {
			b.WriteString("            _arguments \\\n                ")
			b.WriteString(strings.Join(specs, " \\\n                "))
			b.WriteString("\n")
		}
		b.WriteString("            ;;\n")
	}
	b.WriteString("    esac\n}\n\n")
	b.WriteString("_mdembed \"$@\"\n")
	return b.String()
}

func fishEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

func fishScript(cmds []commandDef) string {
	var b strings.Builder
	names := strings.Join(commandNames(cmds), " ")

	b.WriteString("# fish completion for mdembed\n\n")
	b.WriteString("function __fish_mdembed_needs_command\n")
	b.WriteString("    set -l cmd (commandline -opc)\n")
	b.WriteString("    test (count $cmd) -eq 1\nend\n\n")
	b.WriteString("function __fish_mdembed_using_command\n")
	b.WriteString("    set -l cmd (commandline -opc)\n")
	fmt.Fprintf(&b, "    if test (count $cmd) -lt 2; or not contains -- $cmd[2] %s\n", names)
	b.WriteString("        test $argv[1] = embed\n        return\n    end\n")
	b.WriteString("    test $cmd[2] = $argv[1]\nend\n\n")

	b.WriteString("complete -c mdembed -f\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "complete -c mdembed -n __fish_mdembed_needs_command -a %s -d '%s'\n", c.Name, fishEscape(c.Desc))
	}

	for _, c := range cmds {
		cond := fmt.Sprintf("'__fish_mdembed_using_command %s'", c.Name)
		b.WriteString("\n")
		for _, f := range c.Flags {
			line := fmt.Sprintf("complete -c mdembed -n %s", cond)
			if f.Short != "" {
				line += " -s " + f.Short
			}
			line += " -l " + f.Long
			switch f.Type {
			case flagEnum:
				line += fmt.Sprintf(" -x -a '%s'", strings.Join(f.Values, " "))
			case flagFile:
				line += " -r -F"
			case flagDir:
				line += " -x -a '(__fish_complete_directories)'"
			case flagString, flagInt, flagFloat:
				line += " -x"
			}
			line += fmt.Sprintf(" -d '%s'", fishEscape(f.Desc))
			b.WriteString(line + "\n")
		}
		switch {
		case c.TakesFiles:
			fmt.Fprintf(&b, "complete -c mdembed -n %s -F\n", cond)
		case c.Name == "help":
			fmt.Fprintf(&b, "complete -c mdembed -n %s -a '%s'\n", cond, names)
		case c.Name == "completion":
			fmt.Fprintf(&b, "complete -c mdembed -n %s -a 'bash zsh fish powershell'\n", cond)
		}
	}
	return b.String()
}

func psEscape(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func psResult(text, kind, desc string) string {
	return fmt.Sprintf("[System.Management.Automation.CompletionResult]::new('%s', '%s', '%s', '%s')",
		psEscape(text), psEscape(text), kind, psEscape(desc))
}

func powerShellScript(cmds []commandDef) string {
	var b strings.Builder
	quoted := make([]string, 0, len(cmds))
	for _, n := range commandNames(cmds) {
		quoted = append(quoted, "'"+n+"'")
	}

	b.WriteString("# PowerShell completion for mdembed\n\n")
	b.WriteString("Register-ArgumentCompleter -Native -CommandName mdembed -ScriptBlock {\n")
	b.WriteString("    param($wordToComplete, $commandAst, $cursorPosition)\n\n")
	b.WriteString("    $elements = @($commandAst.CommandElements | ForEach-Object { $_.ToString() })\n")
	fmt.Fprintf(&b, "    $commands = @(%s)\n", strings.Join(quoted, ", "))
	b.WriteString("    $command = 'embed'\n")
	b.WriteString("    if ($elements.Count -gt 1 -and $commands -contains $elements[1]) { $command = $elements[1] }\n")
	b.WriteString("    $prev = if ($wordToComplete) { $elements[-2] } else { $elements[-1] }\n\n")
	b.WriteString("    $completions = @()\n")
	b.WriteString("    if ($elements.Count -le 2 -and -not $wordToComplete.StartsWith('-')) {\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        $completions += %s\n", psResult(c.Name, "ParameterValue", c.Desc))
	}
	b.WriteString("    }\n\n")

	b.WriteString("    switch ($command) {\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        '%s' {\n", c.Name)
		for _, f := range c.Flags {
			if f.Type != flagEnum {
				continue
			}
			cond := fmt.Sprintf("$prev -eq '--%s'", f.Long)
			if f.Short != "" {
				cond += fmt.Sprintf(" -or $prev -eq '-%s'", f.Short)
			}
			fmt.Fprintf(&b, "            if (%s) {\n", cond)
			for _, v := range f.Values {
				fmt.Fprintf(&b, "                $completions += %s\n", psResult(v, "ParameterValue", v))
			}
			b.WriteString("            }\n")
		}
		for _, f := range c.Flags {
			fmt.Fprintf(&b, "            $completions += %s\n", psResult("--"+f.Long, "ParameterName", f.Desc))
		}
		switch c.Name {
		case "help":
			for _, n := range commandNames(cmds) {
				fmt.Fprintf(&b, "            $completions += %s\n", psResult(n, "ParameterValue", n))
			}
		case "completion":
			for _, sh := range []string{"bash", "zsh", "fish", "powershell"} {
				fmt.Fprintf(&b, "            $completions += %s\n", psResult(sh, "ParameterValue", sh))
			}
		}
		b.WriteString("        }\n")
	}
	b.WriteString("    }\n\n")
	b.WriteString("    $completions | Where-Object { $_.CompletionText -like \"$wordToComplete*\" }\n")
	b.WriteString("}\n")
	return b.String()
}
