package mdembed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/alnah/go-mdembed/internal/assets"
	"github.com/alnah/go-mdembed/internal/pipeline"
	"github.com/alnah/go-mdembed/internal/recompress"
	"github.com/alnah/go-mdembed/internal/resolve"
	"github.com/alnah/go-mdembed/internal/rewrite"
	"github.com/alnah/go-mdembed/internal/scan"
)

// Compile-time interface implementation checks.
var (
	_ pipeline.HTMLConverter = (*pipeline.GoldmarkConverter)(nil)
	_ pipeline.CSSInjector   = (*pipeline.CSSInjection)(nil)
	_ assets.AssetLoader     = (*assets.AssetResolver)(nil)
)

// Embedder rewrites Markdown documents so that their images become inline
// data URLs. Create with NewEmbedder and call Embed once per document.
// An Embedder holds no per-document state and is safe for concurrent use.
type Embedder struct {
	cfg          embedderConfig
	logger       *slog.Logger
	scanner      *scan.Scanner
	resolver     resolve.Resolver
	recompressor *recompress.Recompressor

	// HTML preview stages.
	assetLoader     assets.AssetLoader
	htmlConverter   pipeline.HTMLConverter
	cssInjector     pipeline.CSSInjector
	summaryInjector *pipeline.SummaryInjection
}

// NewEmbedder creates an Embedder. Returns an error wrapping one of the
// ErrInvalid* sentinels when an option value is out of range.
func NewEmbedder(opts ...Option) (*Embedder, error) {
	e := &Embedder{
		cfg: embedderConfig{
			qualityScale: DefaultQualityScale,
			maxSize:      DefaultMaxSize,
			timeout:      DefaultTimeout,
			workers:      1,
		},
		logger:        slog.New(slog.DiscardHandler),
		htmlConverter: pipeline.NewGoldmarkConverter(),
		cssInjector:   &pipeline.CSSInjection{},
	}

	for _, opt := range opts {
		opt(e)
	}

	if err := e.cfg.validate(); err != nil {
		return nil, err
	}

	e.scanner = &scan.Scanner{Yarle: e.cfg.yarle}
	e.resolver = resolve.Resolver{
		BasePath:  e.cfg.basePath,
		MaxSize:   e.cfg.maxSize,
		Timeout:   e.cfg.timeout,
		Client:    e.cfg.client,
		UserAgent: e.cfg.userAgent,
	}
	e.recompressor = &recompress.Recompressor{
		Table:       e.cfg.table,
		Scale:       e.cfg.qualityScale,
		Background:  e.cfg.background,
		Passthrough: e.cfg.passthrough,
	}

	if err := e.initPreview(); err != nil {
		return nil, err
	}
	return e, nil
}

func (c *embedderConfig) validate() error {
	if c.qualityScale < MinQualityScale || c.qualityScale > MaxQualityScale {
		return fmt.Errorf("%w: %d (must be between %d and %d)", ErrInvalidQualityScale, c.qualityScale, MinQualityScale, MaxQualityScale)
	}
	if c.maxSize <= 0 {
		return fmt.Errorf("%w: %d (must be positive)", ErrInvalidMaxSize, c.maxSize)
	}
	if c.workers < 1 {
		return fmt.Errorf("%w: %d (must be at least 1)", ErrInvalidWorkers, c.workers)
	}
	if c.table != nil {
		if err := c.table.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Embed rewrites input.Markdown, embedding every image it can. Images that
// cannot be embedded are left unchanged and recorded in Result.Log; they
// never cause an error. Errors are limited to context cancellation and
// internal faults.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (e *Embedder) Embed(ctx context.Context, input Input) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	segs := e.scanner.Scan(input.Markdown)
	refs := rewrite.References(segs)

	d := e.newDocument(input)
	outcomes := rewrite.Process(ctx, refs, e.cfg.workers, d.handle)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{Log: make([]LogEntry, len(outcomes))}
	texts := make([]string, len(outcomes))
	lines := lineNumbers(input.Markdown, refs)
	for i, o := range outcomes {
		o.entry.Line = lines[i]
		texts[i] = o.text
		res.Log[i] = o.entry
		res.Stats.count(o.entry)
		e.logEntry(ctx, o.entry)
	}

	res.Markdown = rewrite.Assemble(segs, texts)
	res.Stats.Images = len(refs)
	res.Stats.InputBytes = int64(len(input.Markdown))
	res.Stats.OutputBytes = int64(len(res.Markdown))
	return res, nil
}

func (s *Stats) count(entry LogEntry) {
	switch entry.Status {
	case StatusEmbedded:
		s.Embedded++
		s.OriginalBytes += max(entry.OriginalSize, 0)
		s.EmbeddedBytes += entry.EmbeddedSize
	case StatusAlreadyEmbedded:
		s.AlreadyEmbedded++
	default:
		s.Skipped++
	}
}

// lineNumbers returns the 1-based line of each reference start.
func lineNumbers(text string, refs []scan.Reference) []int {
	lines := make([]int, len(refs))
	line, pos := 1, 0
	for i, ref := range refs {
		line += strings.Count(text[pos:ref.Start], "\n")
		pos = ref.Start
		lines[i] = line
	}
	return lines
}

func (e *Embedder) logEntry(ctx context.Context, entry LogEntry) {
	attrs := []any{"target", truncate(entry.Target, 120), "line", entry.Line}
	switch entry.Status {
	case StatusEmbedded:
		e.logger.InfoContext(ctx, "image embedded", append(attrs,
			"media_type", entry.MediaType,
			"quality", entry.Quality,
			"original", sizeString(entry.OriginalSize),
			"embedded", sizeString(entry.EmbeddedSize),
		)...)
	case StatusAlreadyEmbedded:
		e.logger.DebugContext(ctx, "image already embedded", attrs...)
	default:
		e.logger.WarnContext(ctx, "image not embedded", append(attrs,
			"status", string(entry.Status),
			"reason", entry.Reason,
		)...)
	}
}

// sizeString renders a byte count for humans, "unknown" when negative.
func sizeString(n int64) string {
	if n < 0 {
		return "unknown"
	}
	return humanize.IBytes(uint64(n))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
