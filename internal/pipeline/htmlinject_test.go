package pipeline

// Notes:
// - Summary tests use a small inline template for exact assertions and the
//   built-in template for a smoke check of the fields it reads

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alnah/go-mdembed/internal/assets"
)

func TestSanitizeCSS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "no escape needed",
			input:    "body { color: red; }",
			expected: "body { color: red; }",
		},
		{
			name:     "escapes style close",
			input:    "</style>",
			expected: `<\/style>`,
		},
		{
			name:     "escapes script close",
			input:    "</script>",
			expected: `<\/script>`,
		},
		{
			name:     "multiple occurrences",
			input:    "</a></b>",
			expected: `<\/a><\/b>`,
		},
		{
			name:     "nested sequences",
			input:    "</</style>",
			expected: `<\/<\/style>`,
		},
		{
			name:     "case variation STYLE",
			input:    "</STYLE>",
			expected: `<\/STYLE>`,
		},
		{
			name:     "case variation Script",
			input:    "</Script>",
			expected: `<\/Script>`,
		},
		{
			name:     "mixed case sTyLe",
			input:    "</sTyLe>",
			expected: `<\/sTyLe>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := sanitizeCSS(tt.input)
			if got != tt.expected {
				t.Errorf("sanitizeCSS(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestInjectCSS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		html     string
		css      string
		expected string
	}{
		{
			name:     "empty CSS returns HTML unchanged",
			html:     "<html><head></head><body>Hello</body></html>",
			css:      "",
			expected: "<html><head></head><body>Hello</body></html>",
		},
		{
			name:     "injects before </head>",
			html:     "<html><head></head><body>Hello</body></html>",
			css:      "body { color: red; }",
			expected: "<html><head><style>body { color: red; }</style></head><body>Hello</body></html>",
		},
		{
			name:     "injects before </HEAD> mixed case",
			html:     "<html><HEAD></HEAD><body>Hello</body></html>",
			css:      "body { color: red; }",
			expected: "<html><HEAD><style>body { color: red; }</style></HEAD><body>Hello</body></html>",
		},
		{
			name:     "injects after <body> when no </head>",
			html:     "<html><body>Hello</body></html>",
			css:      "body { color: red; }",
			expected: "<html><body><style>body { color: red; }</style>Hello</body></html>",
		},
		{
			name:     "injects after <body> with attributes",
			html:     `<html><body class="main" id="app">Hello</body></html>`,
			css:      "body { color: red; }",
			expected: `<html><body class="main" id="app"><style>body { color: red; }</style>Hello</body></html>`,
		},
		{
			name:     "injects after <BODY> mixed case",
			html:     "<html><BODY>Hello</BODY></html>",
			css:      "body { color: red; }",
			expected: "<html><BODY><style>body { color: red; }</style>Hello</BODY></html>",
		},
		{
			name:     "prepends to bare fragment",
			html:     "<p>Hello</p>",
			css:      "p { color: blue; }",
			expected: "<style>p { color: blue; }</style><p>Hello</p>",
		},
		{
			name:     "sanitizes CSS with closing tags",
			html:     "<html><head></head><body>Hello</body></html>",
			css:      "</style><script>alert('xss')</script>",
			expected: `<html><head><style><\/style><script>alert('xss')<\/script></style></head><body>Hello</body></html>`,
		},
		{
			name:     "unicode in CSS content property",
			html:     "<html><head></head><body>Hello</body></html>",
			css:      `.icon::before { content: ""; }`,
			expected: `<html><head><style>.icon::before { content: ""; }</style></head><body>Hello</body></html>`,
		},
		{
			name:     "unicode in HTML preserved",
			html:     "<html><head></head><body>Bonjour le monde</body></html>",
			css:      "body { color: red; }",
			expected: "<html><head><style>body { color: red; }</style></head><body>Bonjour le monde</body></html>",
		},
	}

	injector := &CSSInjection{}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			got := injector.InjectCSS(ctx, tt.html, tt.css)
			if got != tt.expected {
				t.Errorf("InjectCSS() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestInjectCSS_ContextCancellation(t *testing.T) {
	t.Parallel()

	injector := &CSSInjection{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	html := "<html><head></head><body>Hello</body></html>"
	css := "body { color: red; }"

	// When context is cancelled, returns HTML unchanged
	got := injector.InjectCSS(ctx, html, css)
	if got != html {
		t.Errorf("InjectCSS() with cancelled context should return HTML unchanged, got %q", got)
	}
}

// ---------------------------------------------------------------------------
// TestInjectSummary
// ---------------------------------------------------------------------------

const testSummaryTemplate = `<aside>{{.Embedded}}/{{.Images}}{{range .NotEmbedded}}<li>{{.Target}}:{{.Line}}:{{.Status}}</li>{{end}}</aside>`

func TestNewSummaryInjection_ParseError(t *testing.T) {
	t.Parallel()

	_, err := NewSummaryInjection("{{.Broken")
	if err == nil {
		t.Fatal("NewSummaryInjection() expected error for malformed template")
	}
}

func TestInjectSummary(t *testing.T) {
	t.Parallel()

	injector, err := NewSummaryInjection(testSummaryTemplate)
	if err != nil {
		t.Fatalf("NewSummaryInjection() error = %v", err)
	}

	data := &SummaryData{
		Images:   3,
		Embedded: 2,
		Skipped:  1,
		NotEmbedded: []SummaryItem{
			{Target: "<missing>.png", Line: 4, Status: "notFound"},
		},
	}

	tests := []struct {
		name     string
		html     string
		data     *SummaryData
		expected string
	}{
		{
			name:     "nil data returns HTML unchanged",
			html:     "<html><body>Hello</body></html>",
			data:     nil,
			expected: "<html><body>Hello</body></html>",
		},
		{
			name:     "injects before </body>",
			html:     "<html><body>Hello</body></html>",
			data:     data,
			expected: "<html><body>Hello<aside>2/3<li>&lt;missing&gt;.png:4:notFound</li></aside></body></html>",
		},
		{
			name:     "uses last </BODY> mixed case",
			html:     "<body>code: </body> text</BODY>",
			data:     data,
			expected: "<body>code: </body> text<aside>2/3<li>&lt;missing&gt;.png:4:notFound</li></aside></BODY>",
		},
		{
			name:     "appends without </body>",
			html:     "<p>Hello</p>",
			data:     &SummaryData{Images: 1, Embedded: 1},
			expected: "<p>Hello</p><aside>1/1</aside>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := injector.InjectSummary(context.Background(), tt.html, tt.data)
			if err != nil {
				t.Fatalf("InjectSummary() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("InjectSummary() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestInjectSummary_ContextCancellation(t *testing.T) {
	t.Parallel()

	injector, err := NewSummaryInjection(testSummaryTemplate)
	if err != nil {
		t.Fatalf("NewSummaryInjection() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = injector.InjectSummary(ctx, "<body></body>", &SummaryData{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("InjectSummary() error = %v, want context.Canceled", err)
	}
}

func TestInjectSummary_TemplateError(t *testing.T) {
	t.Parallel()

	injector, err := NewSummaryInjection("{{.Missing.Field}}")
	if err != nil {
		t.Fatalf("NewSummaryInjection() error = %v", err)
	}

	_, err = injector.InjectSummary(context.Background(), "<body></body>", &SummaryData{})
	if !errors.Is(err, ErrSummaryRender) {
		t.Errorf("InjectSummary() error = %v, want ErrSummaryRender", err)
	}
}

func TestInjectSummary_BuiltinTemplate(t *testing.T) {
	t.Parallel()

	tmpl, err := assets.NewEmbeddedLoader().LoadTemplate(assets.SummaryTemplateName)
	if err != nil {
		t.Fatalf("LoadTemplate() error = %v", err)
	}
	injector, err := NewSummaryInjection(tmpl)
	if err != nil {
		t.Fatalf("NewSummaryInjection() error = %v", err)
	}

	data := &SummaryData{
		Images:       2,
		Embedded:     1,
		Skipped:      1,
		OriginalSize: "2.0 MiB",
		EmbeddedSize: "180 KiB",
		Sources:      ImageSources{Embedded: 1, Local: 1},
		NotEmbedded:  []SummaryItem{{Target: "gone.png", Line: 7, Status: "notFound", Reason: "no such file"}},
	}
	got, err := injector.InjectSummary(context.Background(), "<html><body></body></html>", data)
	if err != nil {
		t.Fatalf("InjectSummary() error = %v", err)
	}
	for _, want := range []string{"gone.png", "notFound", "no such file", "2.0 MiB", "180 KiB"} {
		if !strings.Contains(got, want) {
			t.Errorf("InjectSummary() = %q, want to contain %q", got, want)
		}
	}
}
