package mdembed

import (
	"image/color"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/alnah/go-mdembed/internal/recompress"
)

// QualityTable maps (original size, quality scale) to a JPEG quality.
type QualityTable = recompress.Table

// QualityTier is one size tier of a QualityTable.
type QualityTier = recompress.Tier

// DefaultQualityTable returns a copy of the built-in quality table.
func DefaultQualityTable() QualityTable {
	return slices.Clone(recompress.DefaultTable)
}

// Option configures an Embedder.
type Option func(*Embedder)

// embedderConfig holds per-Embedder settings. Validated in NewEmbedder.
type embedderConfig struct {
	qualityScale int
	yarle        bool
	maxSize      int64
	basePath     string
	timeout      time.Duration
	workers      int
	linkRemote   bool
	client       *http.Client
	userAgent    string
	table        QualityTable
	passthrough  []string
	background   color.Color
	styleInput   string
	assetPath    string

	resolvedStyle string // CSS content, resolved in NewEmbedder
}

// WithQualityScale sets the compression knob, 1 (best quality) to 9
// (smallest output). Default 5.
func WithQualityScale(scale int) Option {
	return func(e *Embedder) {
		e.cfg.qualityScale = scale
	}
}

// WithYarleMode enables the size annotations written by Evernote exporters
// on standard images, e.g. ![alt|300x200](img.png).
func WithYarleMode(enabled bool) Option {
	return func(e *Embedder) {
		e.cfg.yarle = enabled
	}
}

// WithMaxSize sets the largest image, in bytes, that will be embedded. It
// bounds both the source bytes and the resulting data URL. Default 10 MiB.
func WithMaxSize(bytes int64) Option {
	return func(e *Embedder) {
		e.cfg.maxSize = bytes
	}
}

// WithBasePath sets the directory relative image paths are resolved
// against. Input.BasePath overrides it per document.
func WithBasePath(dir string) Option {
	return func(e *Embedder) {
		e.cfg.basePath = dir
	}
}

// WithTimeout sets the per-download timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("mdembed: WithTimeout duration must be positive")
	}
	return func(e *Embedder) {
		e.cfg.timeout = d
	}
}

// WithWorkers sets how many images of one document are fetched and encoded
// concurrently. 1 (the default) processes them in document order.
func WithWorkers(n int) Option {
	return func(e *Embedder) {
		e.cfg.workers = n
	}
}

// WithLinkRemote wraps images embedded from remote URLs in a link to the
// original URL, so the full-size image stays one click away. An alt text
// holding a URL is linked the same way.
func WithLinkRemote(enabled bool) Option {
	return func(e *Embedder) {
		e.cfg.linkRemote = enabled
	}
}

// WithHTTPClient sets the client used for remote images.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Embedder) {
		e.cfg.client = c
	}
}

// WithUserAgent sets the User-Agent header of remote requests.
func WithUserAgent(ua string) Option {
	return func(e *Embedder) {
		e.cfg.userAgent = ua
	}
}

// WithLogger sets the logger receiving one record per image reference.
// Default discards.
func WithLogger(l *slog.Logger) Option {
	return func(e *Embedder) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithQualityTable replaces the built-in quality table.
func WithQualityTable(t QualityTable) Option {
	return func(e *Embedder) {
		e.cfg.table = slices.Clone(t)
	}
}

// WithPassthroughTypes lists media types embedded without re-encoding,
// e.g. "image/png" to keep screenshots lossless.
func WithPassthroughTypes(mediaTypes ...string) Option {
	return func(e *Embedder) {
		e.cfg.passthrough = append(e.cfg.passthrough, mediaTypes...)
	}
}

// WithBackground sets the color transparent pixels are flattened onto.
// Default white.
func WithBackground(c color.Color) Option {
	return func(e *Embedder) {
		e.cfg.background = c
	}
}

// WithStyle sets the CSS of HTML previews: a built-in style name, a path
// to a CSS file, or CSS content.
func WithStyle(style string) Option {
	return func(e *Embedder) {
		e.cfg.styleInput = style
	}
}

// WithAssetPath sets a directory of custom styles and templates for HTML
// previews. Missing assets fall back to the built-in ones.
func WithAssetPath(path string) Option {
	return func(e *Embedder) {
		e.cfg.assetPath = path
	}
}
