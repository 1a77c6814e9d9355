package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// logFlags holds the verbosity flags shared across commands.
type logFlags struct {
	quiet   bool
	verbose bool
	debug   bool
}

// imageFlags holds the per-image embedding flags.
type imageFlags struct {
	quality    int
	yarle      bool
	maxSizeMB  float64
	basePath   string
	linkRemote bool
	timeout    string
	workers    int
	keepTypes  []string

	// Set when the flag appears on the command line, so that an explicit
	// zero is rejected instead of meaning "default".
	qualitySet bool
	maxSizeSet bool
}

// ioFlags holds input/output flags.
type ioFlags struct {
	input   string
	output  string
	inPlace bool
	backup  bool
	html    string
	style   string
	report  string
}

// embedFlags holds all flags for the embed command.
type embedFlags struct {
	config string
	log    logFlags
	image  imageFlags
	io     ioFlags
	jobs   int
}

// refsFlags holds flags for the refs command.
type refsFlags struct {
	overwrite bool
	backup    bool
}

// addLogFlags adds verbosity flags to a FlagSet.
func addLogFlags(fs *flag.FlagSet, f *logFlags) {
	fs.BoolVar(&f.quiet, "quiet", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log every embedded image")
	fs.BoolVarP(&f.debug, "debug", "d", false, "log everything, including skipped data URLs")
}

// addImageFlags adds embedding flags to a FlagSet. Zero values defer to
// the environment, the config file, then the library defaults.
func addImageFlags(fs *flag.FlagSet, f *imageFlags) {
	fs.IntVarP(&f.quality, "quality", "q", 0, "compression 1 (best quality) to 9 (smallest), default 5")
	fs.BoolVarP(&f.yarle, "yarle", "y", false, "accept Yarle size annotations ![alt|300x200](img)")
	fs.Float64VarP(&f.maxSizeMB, "max-size", "m", 0, "largest image to embed in MB, default 10")
	fs.StringVarP(&f.basePath, "path", "p", "", "directory for relative image paths (default: input file directory)")
	fs.BoolVar(&f.linkRemote, "link-remote", false, "link embedded remote images to their original URL")
	fs.StringVar(&f.timeout, "timeout", "", "download timeout per image (e.g., 30s, 2m)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "images processed in parallel per document")
	fs.StringArrayVar(&f.keepTypes, "keep-type", nil, "media type embedded without re-encoding (repeatable)")
}

// addIOFlags adds input/output flags to a FlagSet.
func addIOFlags(fs *flag.FlagSet, f *ioFlags) {
	fs.StringVarP(&f.input, "input", "i", "", "input Markdown file (default: arguments or stdin)")
	fs.StringVarP(&f.output, "output", "o", "", "output file, or directory for several inputs")
	fs.BoolVar(&f.inPlace, "in-place", false, "rewrite input files")
	fs.BoolVar(&f.backup, "backup", false, "keep a .bak copy of rewritten files")
	fs.StringVar(&f.html, "html", "", "write an HTML preview (file, or directory for several inputs)")
	fs.StringVar(&f.style, "style", "", "preview CSS: style name, file path, or CSS")
	fs.StringVar(&f.report, "report", "", "write a YAML report of every image to this file")
}

// newEmbedFlagSet registers the embed command flags into f.
func newEmbedFlagSet(f *embedFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("embed", flag.ContinueOnError)
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.IntVarP(&f.jobs, "jobs", "j", 0, "files processed in parallel (0 = auto)")
	addLogFlags(fs, &f.log)
	addImageFlags(fs, &f.image)
	addIOFlags(fs, &f.io)
	return fs
}

// newRefsFlagSet registers the refs command flags into f.
func newRefsFlagSet(f *refsFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("refs", flag.ContinueOnError)
	fs.BoolVar(&f.overwrite, "overwrite", false, "rewrite the input, or replace an existing output")
	fs.BoolVar(&f.backup, "backup", false, "keep a .bak copy of the replaced file")
	return fs
}

// parseEmbedFlags parses embed command flags and returns positional args.
func parseEmbedFlags(args []string, stderr io.Writer) (*embedFlags, []string, error) {
	f := &embedFlags{}
	fs := newEmbedFlagSet(f)
	fs.SetOutput(stderr)
	fs.Usage = func() { printEmbedUsage(stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	f.image.qualitySet = fs.Changed("quality")
	f.image.maxSizeSet = fs.Changed("max-size")
	return f, fs.Args(), nil
}

// parseRefsFlags parses refs command flags and returns positional args.
func parseRefsFlags(args []string, stderr io.Writer) (*refsFlags, []string, error) {
	f := &refsFlags{}
	fs := newRefsFlagSet(f)
	fs.SetOutput(stderr)
	fs.Usage = func() { printRefsUsage(stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}
