package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	mdembed "github.com/alnah/go-mdembed"
	"github.com/alnah/go-mdembed/internal/assets"
	"github.com/alnah/go-mdembed/internal/config"
	"github.com/alnah/go-mdembed/internal/fileutil"
	"github.com/alnah/go-mdembed/internal/hints"
)

// Sentinel errors for CLI operations.
var (
	ErrUsage        = errors.New("invalid usage")
	ErrOutputExists = errors.New("output file exists")
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// Embedder is the part of *mdembed.Embedder the CLI uses.
type Embedder interface {
	Embed(ctx context.Context, input mdembed.Input) (*mdembed.Result, error)
	Preview(ctx context.Context, input mdembed.PreviewInput) ([]byte, error)
}

// Compile-time interface implementation check.
var _ Embedder = (*mdembed.Embedder)(nil)

// runParams groups settings shared by every file of a run.
type runParams struct {
	basePath string // empty = directory of each input file
	backup   bool
	yarle    bool
	stdout   io.Writer
}

// runEmbed orchestrates the embed command.
func runEmbed(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseEmbedFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	warnUnknownEnvVars(env.Stderr)
	cfg, err := resolveConfig(flags)
	if err != nil {
		return err
	}

	logger := newLogger(env.Stderr, flags.log)
	opts, err := buildOptions(cfg, logger)
	if err != nil {
		return err
	}
	emb, err := mdembed.NewEmbedder(opts...)
	if err != nil {
		return withHint(err)
	}

	params := &runParams{
		basePath: cfg.Embed.BasePath,
		backup:   flags.io.backup,
		yarle:    cfg.Embed.Yarle,
		stdout:   env.Stdout,
	}

	inputs := positional
	if flags.io.input != "" {
		inputs = append([]string{flags.io.input}, inputs...)
	}

	var jobs []fileJob
	if len(inputs) == 0 {
		if flags.io.inPlace {
			return fmt.Errorf("%w: --in-place needs input files", ErrUsage)
		}
		jobs = []fileJob{{OutputPath: flags.io.output, HTMLPath: flags.io.html}}
	} else {
		files, err := discoverFiles(inputs)
		if err != nil {
			return fmt.Errorf("%w: %v%s", mdembed.ErrInputUnavailable, err, hints.ForInputNotFound())
		}
		if jobs, err = planJobs(files, flags.io); err != nil {
			return err
		}
	}

	logger.Debug("run planned", "files", len(jobs), "pool", mdembed.ResolvePoolSize(flags.jobs))
	results := embedBatch(ctx, emb, jobs, mdembed.ResolvePoolSize(flags.jobs), params, env.Stdin)

	if flags.io.report != "" {
		if err := writeReport(flags.io.report, results, env.Now()); err != nil {
			return err
		}
	}
	return printResults(results, flags.log, params.yarle, env)
}

// resolveConfig loads the config file and applies the environment and
// flags on top. Priority: flags > env vars > config file > defaults.
func resolveConfig(flags *embedFlags) (*config.Config, error) {
	envCfg, err := loadEnvConfig()
	if err != nil {
		return nil, err
	}

	name := flags.config
	if name == "" {
		name = envCfg.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		cfg, err = config.LoadConfig(name)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", withHint(err))
		}
	}

	applyEnvConfig(envCfg, cfg)
	if err := mergeFlags(flags, cfg); err != nil {
		return nil, withHint(err)
	}
	return cfg, nil
}

// mergeFlags merges CLI flags into config. CLI values override config values.
// Config zero values mean "default", so an explicit -q 0 or -m 0 is an error.
func mergeFlags(flags *embedFlags, cfg *config.Config) error {
	f := flags.image
	if f.qualitySet && f.quality == 0 {
		return fmt.Errorf("%w: 0 (must be between %d and %d)",
			mdembed.ErrInvalidQualityScale, mdembed.MinQualityScale, mdembed.MaxQualityScale)
	}
	if f.maxSizeSet && f.maxSizeMB == 0 {
		return fmt.Errorf("%w: 0 (must be positive)", mdembed.ErrInvalidMaxSize)
	}

	if f.quality != 0 {
		cfg.Embed.Quality = f.quality
	}
	if f.yarle {
		cfg.Embed.Yarle = true
	}
	if f.maxSizeMB != 0 {
		cfg.Embed.MaxSizeMB = f.maxSizeMB
	}
	if f.basePath != "" {
		cfg.Embed.BasePath = f.basePath
	}
	if f.linkRemote {
		cfg.Embed.LinkRemote = true
	}
	if f.timeout != "" {
		cfg.Embed.Timeout = f.timeout
	}
	if f.workers != 0 {
		cfg.Embed.Workers = f.workers
	}
	if len(f.keepTypes) > 0 {
		cfg.Embed.KeepTypes = append(slices.Clone(cfg.Embed.KeepTypes), f.keepTypes...)
	}
	if flags.io.style != "" {
		cfg.Preview.Style = flags.io.style
	}
	return nil
}

// buildOptions turns a merged config into library options. Range checks
// are left to NewEmbedder so that flags, env and file values share them.
func buildOptions(cfg *config.Config, logger *slog.Logger) ([]mdembed.Option, error) {
	e := cfg.Embed
	opts := []mdembed.Option{
		mdembed.WithLogger(logger),
		mdembed.WithYarleMode(e.Yarle),
		mdembed.WithLinkRemote(e.LinkRemote),
	}

	if e.Quality != 0 {
		opts = append(opts, mdembed.WithQualityScale(e.Quality))
	}
	if e.MaxSizeMB != 0 {
		opts = append(opts, mdembed.WithMaxSize(cfg.MaxSizeBytes()))
	}
	if e.Workers != 0 {
		opts = append(opts, mdembed.WithWorkers(e.Workers))
	}

	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if timeout > 0 {
		opts = append(opts, mdembed.WithTimeout(timeout))
	}

	if e.Background != "" {
		bg, err := config.ParseColor(e.Background)
		if err != nil {
			return nil, fmt.Errorf("%w: background: %v", ErrUsage, err)
		}
		opts = append(opts, mdembed.WithBackground(bg))
	}
	if len(e.KeepTypes) > 0 {
		opts = append(opts, mdembed.WithPassthroughTypes(e.KeepTypes...))
	}
	if e.UserAgent != "" {
		opts = append(opts, mdembed.WithUserAgent(e.UserAgent))
	}
	if len(cfg.Quality.Tiers) > 0 {
		opts = append(opts, mdembed.WithQualityTable(cfg.Quality.Tiers))
	}
	if cfg.Preview.Style != "" {
		opts = append(opts, mdembed.WithStyle(cfg.Preview.Style))
	}
	if cfg.Preview.AssetPath != "" {
		opts = append(opts, mdembed.WithAssetPath(cfg.Preview.AssetPath))
	}
	return opts, nil
}

// withHint appends an actionable hint for known setup errors.
func withHint(err error) error {
	switch {
	case errors.Is(err, mdembed.ErrInvalidQualityScale):
		return fmt.Errorf("%w%s", err, hints.ForQualityScale())
	case errors.Is(err, mdembed.ErrStyleNotFound):
		return fmt.Errorf("%w%s", err, hints.ForStyleNotFound(assets.StyleNames()))
	case errors.Is(err, config.ErrConfigNotFound):
		return fmt.Errorf("%w%s", err, hints.ForConfigNotFound(triedPaths(err)))
	default:
		return err
	}
}

// triedPaths extracts the searched paths from a config-not-found error.
func triedPaths(err error) []string {
	_, list, ok := strings.Cut(err.Error(), "tried ")
	if !ok {
		return nil
	}
	return strings.Split(list, ", ")
}

// writeReport writes the YAML report of a run.
func writeReport(path string, results []fileResult, now time.Time) error {
	report := mdembed.Report{Generated: now.UTC().Format(time.RFC3339)}
	for _, r := range results {
		name := r.InputPath
		if name == "" {
			name = "-"
		}
		report.Add(name, r.OutputPath, r.Result, r.Err)
	}

	var buf bytes.Buffer
	if err := report.WriteYAML(&buf); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, buf.Bytes(), filePermissions); err != nil {
		return fmt.Errorf("%w: report: %v", mdembed.ErrOutputUnwritable, err)
	}
	return nil
}
