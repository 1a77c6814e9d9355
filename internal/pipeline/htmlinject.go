package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
)

// ErrSummaryRender indicates the summary template failed to render.
var ErrSummaryRender = errors.New("summary template rendering failed")

// CSSInjector defines the contract for CSS injection into HTML.
type CSSInjector interface {
	InjectCSS(ctx context.Context, htmlContent, cssContent string) string
}

// CSSInjection injects CSS as a <style> block into HTML content.
type CSSInjection struct{}

// InjectCSS inserts a <style> block into HTML content.
// Tries </head> first, then <body>, then prepends to the HTML.
// CSS content is sanitized to prevent injection attacks.
func (s *CSSInjection) InjectCSS(ctx context.Context, htmlContent, cssContent string) string {
	if cssContent == "" || ctx.Err() != nil {
		return htmlContent
	}

	styleBlock := "<style>" + sanitizeCSS(cssContent) + "</style>"
	lowerHTML := strings.ToLower(htmlContent)

	if idx := strings.Index(lowerHTML, "</head>"); idx != -1 {
		return htmlContent[:idx] + styleBlock + htmlContent[idx:]
	}

	if idx := strings.Index(lowerHTML, "<body"); idx != -1 {
		if closeIdx := strings.Index(htmlContent[idx:], ">"); closeIdx != -1 {
			insertPos := idx + closeIdx + 1
			return htmlContent[:insertPos] + styleBlock + htmlContent[insertPos:]
		}
	}

	return styleBlock + htmlContent
}

// sanitizeCSS escapes sequences that could break out of a <style> block.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}

// SummaryData describes the embedding run shown at the end of a preview.
type SummaryData struct {
	Images       int
	Embedded     int
	Skipped      int
	OriginalSize string // human readable
	EmbeddedSize string // human readable
	Sources      ImageSources
	NotEmbedded  []SummaryItem
}

// SummaryItem is one image left unchanged.
type SummaryItem struct {
	Target string
	Line   int
	Status string
	Reason string
}

// SummaryInjection renders and injects a run summary into HTML content.
type SummaryInjection struct {
	tmpl *template.Template
}

// NewSummaryInjection creates a SummaryInjection from template content.
// Returns error if the template cannot be parsed.
func NewSummaryInjection(tmplContent string) (*SummaryInjection, error) {
	tmpl, err := template.New("summary").Parse(tmplContent)
	if err != nil {
		return nil, fmt.Errorf("parsing summary template: %w", err)
	}
	return &SummaryInjection{tmpl: tmpl}, nil
}

// InjectSummary renders the summary template and injects it before </body>.
// If data is nil, returns htmlContent unchanged.
func (s *SummaryInjection) InjectSummary(ctx context.Context, htmlContent string, data *SummaryData) (string, error) {
	if data == nil {
		return htmlContent, nil
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSummaryRender, err)
	}

	summaryHTML := buf.String()
	if idx := strings.LastIndex(strings.ToLower(htmlContent), "</body>"); idx != -1 {
		return htmlContent[:idx] + summaryHTML + htmlContent[idx:], nil
	}
	return htmlContent + summaryHTML, nil
}
