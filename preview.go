package mdembed

import (
	"context"
	"fmt"
	"os"

	"github.com/alnah/go-mdembed/internal/assets"
	"github.com/alnah/go-mdembed/internal/fileutil"
	"github.com/alnah/go-mdembed/internal/pipeline"
)

// PreviewInput is one document to render as a standalone HTML page.
type PreviewInput struct {
	Markdown string // usually Result.Markdown
	Title    string // page title, "Document" when empty

	// SourceDir anchors images that were not embedded, so the preview
	// still shows them when opened from elsewhere.
	SourceDir string

	CSS    string  // appended after the configured style
	Result *Result // when set, a summary of the run ends the page
}

// initPreview loads the assets used by Preview.
func (e *Embedder) initPreview() error {
	loader, err := assets.NewAssetResolver(e.cfg.assetPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
	}
	e.assetLoader = loader

	if err := e.resolveStyle(); err != nil {
		return err
	}

	tmpl, err := e.assetLoader.LoadTemplate(assets.SummaryTemplateName)
	if err != nil {
		return fmt.Errorf("loading summary template: %w", err)
	}
	if e.summaryInjector, err = pipeline.NewSummaryInjection(tmpl); err != nil {
		return fmt.Errorf("initializing summary injector: %w", err)
	}
	return nil
}

// resolveStyle turns the style input (name, path, or CSS content) into CSS.
func (e *Embedder) resolveStyle() error {
	input := e.cfg.styleInput
	if input == "" {
		input = assets.DefaultStyleName
	}

	if fileutil.IsFilePath(input) {
		content, err := os.ReadFile(input) // #nosec G304 -- user-provided path
		if err != nil {
			return fmt.Errorf("loading style file %q: %w", input, err)
		}
		e.cfg.resolvedStyle = string(content)
		return nil
	}

	if fileutil.IsCSS(input) {
		e.cfg.resolvedStyle = input
		return nil
	}

	css, err := e.assetLoader.LoadStyle(input)
	if err != nil {
		return fmt.Errorf("loading style %q: %w", input, err)
	}
	e.cfg.resolvedStyle = css
	return nil
}

// Preview renders Markdown as a standalone HTML page with the configured
// style. Inline data URLs display as is; images left as references are
// tagged so the style can outline them.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (e *Embedder) Preview(ctx context.Context, input PreviewInput) (page []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	html, err := e.htmlConverter.ToHTML(ctx, input.Markdown, input.Title)
	if err != nil {
		return nil, err
	}

	html, sources, err := pipeline.ClassifyImages(html, input.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("%w: classifying images: %v", ErrHTMLConversion, err)
	}

	css := e.cfg.resolvedStyle
	if input.CSS != "" {
		css += "\n" + input.CSS
	}
	html = e.cssInjector.InjectCSS(ctx, html, css)

	if input.Result != nil {
		html, err = e.summaryInjector.InjectSummary(ctx, html, summaryData(input.Result, sources))
		if err != nil {
			return nil, err
		}
	}

	e.logger.DebugContext(ctx, "preview rendered",
		"bytes", len(html),
		"embedded", sources.Embedded,
		"remote", sources.Remote,
		"local", sources.Local,
	)
	return []byte(html), nil
}

func summaryData(res *Result, sources pipeline.ImageSources) *pipeline.SummaryData {
	data := &pipeline.SummaryData{
		Images:       res.Stats.Images,
		Embedded:     res.Stats.Embedded,
		Skipped:      res.Stats.Skipped,
		OriginalSize: sizeString(res.Stats.OriginalBytes),
		EmbeddedSize: sizeString(res.Stats.EmbeddedBytes),
		Sources:      sources,
	}
	for _, entry := range res.Skipped() {
		data.NotEmbedded = append(data.NotEmbedded, pipeline.SummaryItem{
			Target: truncate(entry.Target, 120),
			Line:   entry.Line,
			Status: string(entry.Status),
			Reason: entry.Reason,
		})
	}
	return data
}
