package scan

// Notes:
// - Tests go through Scan/References; helpers such as closingBracket and
//   parseTail are covered by the syntax cases below rather than directly.
// - Coverage property: concatenating every segment must reproduce the input.

import (
	"strings"
	"testing"
)

// joinSegments rebuilds the source text from segments.
func joinSegments(segs []Segment) string {
	var b strings.Builder
	for _, s := range segs {
		if s.Ref != nil {
			b.WriteString(s.Ref.Raw)
			continue
		}
		b.WriteString(s.Literal)
	}
	return b.String()
}

// ---------------------------------------------------------------------------
// TestScan_Syntaxes - Recognized forms
// ---------------------------------------------------------------------------

func TestScan_Syntaxes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		input      string
		yarle      bool
		wantSyntax Syntax
		wantAlt    string
		wantTarget string
		wantTitle  string
		wantSize   string
		wantLink   string
		wantW      int
		wantH      int
	}{
		{
			name:       "standard image",
			input:      "![cat](http://example.com/cat.jpg)",
			wantSyntax: SyntaxStandard,
			wantAlt:    "cat",
			wantTarget: "http://example.com/cat.jpg",
		},
		{
			name:       "standard image with title",
			input:      `![cat](cat.jpg "A cat")`,
			wantSyntax: SyntaxStandard,
			wantAlt:    "cat",
			wantTarget: "cat.jpg",
			wantTitle:  `"A cat"`,
		},
		{
			name:       "angle bracket destination with spaces",
			input:      "![x](<my photo.png>)",
			wantSyntax: SyntaxStandard,
			wantAlt:    "x",
			wantTarget: "my photo.png",
		},
		{
			name:       "bare destination with spaces",
			input:      "![x](./_resources/my photo.png)",
			wantSyntax: SyntaxStandard,
			wantAlt:    "x",
			wantTarget: "./_resources/my photo.png",
		},
		{
			name:       "balanced parentheses in destination",
			input:      "![x](img_(1).png)",
			wantSyntax: SyntaxStandard,
			wantAlt:    "x",
			wantTarget: "img_(1).png",
		},
		{
			name:       "escaped bracket in alt",
			input:      `![a \] b](img.png)`,
			wantSyntax: SyntaxStandard,
			wantAlt:    `a \] b`,
			wantTarget: "img.png",
		},
		{
			name:       "nested brackets in alt",
			input:      "![see [1]](img.png)",
			wantSyntax: SyntaxStandard,
			wantAlt:    "see [1]",
			wantTarget: "img.png",
		},
		{
			name:       "link wrapped image",
			input:      "[![alt](img.jpg)](http://site.example/)",
			wantSyntax: SyntaxLinked,
			wantAlt:    "alt",
			wantTarget: "img.jpg",
			wantLink:   "http://site.example/",
		},
		{
			name:       "bracket embed",
			input:      "![[photo.png]]",
			wantSyntax: SyntaxEmbed,
			wantTarget: "photo.png",
		},
		{
			name:       "bracket embed with size",
			input:      "![[photo.png|825x464]]",
			wantSyntax: SyntaxEmbed,
			wantTarget: "photo.png",
			wantSize:   "825x464",
			wantW:      825,
			wantH:      464,
		},
		{
			name:       "bracket embed with escaped pipe size",
			input:      `![[./_resources/a.jpeg\|300]]`,
			wantSyntax: SyntaxEmbed,
			wantTarget: "./_resources/a.jpeg",
			wantSize:   "300",
			wantW:      300,
		},
		{
			name:       "bracket embed with alias",
			input:      "![[photo.png|my caption]]",
			wantSyntax: SyntaxEmbed,
			wantAlt:    "my caption",
			wantTarget: "photo.png",
		},
		{
			name:       "yarle alt size",
			input:      "![logo|120x40](logo.png)",
			yarle:      true,
			wantSyntax: SyntaxStandard,
			wantAlt:    "logo",
			wantTarget: "logo.png",
			wantSize:   "120x40",
			wantW:      120,
			wantH:      40,
		},
		{
			name:       "yarle target size",
			input:      `![](./_resources/n.resources/img.jpeg\|640x480)`,
			yarle:      true,
			wantSyntax: SyntaxStandard,
			wantTarget: "./_resources/n.resources/img.jpeg",
			wantSize:   "640x480",
			wantW:      640,
			wantH:      480,
		},
		{
			name:       "size suffix ignored outside yarle mode",
			input:      "![logo|120x40](logo.png)",
			wantSyntax: SyntaxStandard,
			wantAlt:    "logo|120x40",
			wantTarget: "logo.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := &Scanner{Yarle: tt.yarle}
			refs := s.References(tt.input)
			if len(refs) != 1 {
				t.Fatalf("References(%q) found %d references, want 1", tt.input, len(refs))
			}
			ref := refs[0]

			if ref.Syntax != tt.wantSyntax {
				t.Errorf("Syntax = %v, want %v", ref.Syntax, tt.wantSyntax)
			}
			if ref.Alt != tt.wantAlt {
				t.Errorf("Alt = %q, want %q", ref.Alt, tt.wantAlt)
			}
			if ref.Target != tt.wantTarget {
				t.Errorf("Target = %q, want %q", ref.Target, tt.wantTarget)
			}
			if ref.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", ref.Title, tt.wantTitle)
			}
			if ref.Size != tt.wantSize {
				t.Errorf("Size = %q, want %q", ref.Size, tt.wantSize)
			}
			if ref.LinkURL != tt.wantLink {
				t.Errorf("LinkURL = %q, want %q", ref.LinkURL, tt.wantLink)
			}
			if ref.Width != tt.wantW || ref.Height != tt.wantH {
				t.Errorf("Width x Height = %dx%d, want %dx%d", ref.Width, ref.Height, tt.wantW, tt.wantH)
			}
			if ref.Raw != tt.input {
				t.Errorf("Raw = %q, want whole input %q", ref.Raw, tt.input)
			}
			if ref.Start != 0 || ref.End != len(tt.input) {
				t.Errorf("span = [%d,%d), want [0,%d)", ref.Start, ref.End, len(tt.input))
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestScan_LiteralText - Things that are not image references
// ---------------------------------------------------------------------------

func TestScan_LiteralText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{name: "plain text", input: "# Title\n\nJust words.\n"},
		{name: "regular link", input: "[docs](https://example.com)"},
		{name: "unclosed alt", input: "![alt(img.png)"},
		{name: "unclosed destination", input: "![alt](img.png"},
		{name: "missing destination", input: "![alt] (img.png)"},
		{name: "empty destination", input: "![alt]()"},
		{name: "unclosed embed", input: "![[photo.png"},
		{name: "escaped bang", input: `\![alt](img.png)`},
		{name: "blank line inside alt", input: "![one\n\ntwo](img.png)"},
		{name: "reference style image", input: "![alt][ref]\n\n[ref]: img.png\n"},
		{name: "inline code span", input: "Use `![alt](img.png)` to add images."},
		{name: "fenced code block", input: "```md\n![alt](img.png)\n```\n"},
		{name: "tilde fence", input: "~~~\n![[photo.png]]\n~~~\n"},
		{name: "unclosed fence", input: "```\n![alt](img.png)\n"},
		{name: "indented code at start", input: "    ![indented](code.png)\n"},
		{name: "indented code after paragraph", input: "Example:\n\n    ![indented](code.png)\n\n    ![[more.png]]\n"},
		{name: "tab indented code", input: "Text\n\n\t![alt](img.png)\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := &Scanner{Yarle: true}
			segs := s.Scan(tt.input)
			for _, seg := range segs {
				if seg.Ref != nil {
					t.Fatalf("Scan(%q) found reference %q, want none", tt.input, seg.Ref.Raw)
				}
			}
			if got := joinSegments(segs); got != tt.input {
				t.Errorf("segments rebuild %q, want %q", got, tt.input)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestScan_IndentedImages - Indentation that is not a code block
// ---------------------------------------------------------------------------

func TestScan_IndentedImages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "lazy paragraph continuation", input: "Text\n    ![a](a.png)\n", want: "a.png"},
		{name: "list item content", input: "- item\n\n    ![a](a.png)\n", want: "a.png"},
		{name: "ordered list content", input: "1. step\n\n    ![[b.png]]\n", want: "b.png"},
		{name: "after code block ends", input: "    code\n\n![c](c.png)\n", want: "c.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			refs := (&Scanner{}).References(tt.input)
			if len(refs) != 1 || refs[0].Target != tt.want {
				t.Fatalf("References(%q) = %v, want one reference to %q", tt.input, refs, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestScan_Coverage - Segments cover input exactly once, in order
// ---------------------------------------------------------------------------

func TestScan_Coverage(t *testing.T) {
	t.Parallel()

	input := "Intro ![a](a.png) middle\n" +
		"[![b](b.jpg)](https://b.example) and ![[c.png|10x10]]\n" +
		"```\n![skip](skip.png)\n```\n" +
		"![d](data:image/png;base64,AAAA) tail ![e](e.gif \"t\")"

	s := &Scanner{}
	segs := s.Scan(input)

	if got := joinSegments(segs); got != input {
		t.Fatalf("segments rebuild %q, want %q", got, input)
	}

	var refs []*Reference
	for _, seg := range segs {
		if seg.Ref != nil {
			refs = append(refs, seg.Ref)
		}
	}
	wantTargets := []string{"a.png", "b.jpg", "c.png", "data:image/png;base64,AAAA", "e.gif"}
	if len(refs) != len(wantTargets) {
		t.Fatalf("found %d references, want %d", len(refs), len(wantTargets))
	}

	prevEnd := 0
	for i, ref := range refs {
		if ref.Target != wantTargets[i] {
			t.Errorf("ref[%d].Target = %q, want %q", i, ref.Target, wantTargets[i])
		}
		if ref.Start < prevEnd {
			t.Errorf("ref[%d] starts at %d, overlapping previous end %d", i, ref.Start, prevEnd)
		}
		if input[ref.Start:ref.End] != ref.Raw {
			t.Errorf("ref[%d] span does not match Raw", i)
		}
		prevEnd = ref.End
	}

	if !refs[3].Embedded {
		t.Error("data URL reference should be marked Embedded")
	}
	if refs[0].Embedded {
		t.Error("file reference should not be marked Embedded")
	}
}

// ---------------------------------------------------------------------------
// TestScan_Precedence - Ambiguous nesting
// ---------------------------------------------------------------------------

func TestScan_Precedence(t *testing.T) {
	t.Parallel()

	t.Run("bracket embed inside link stays an embed", func(t *testing.T) {
		t.Parallel()

		input := "[![[photo.png]]](https://example.com)"
		refs := (&Scanner{}).References(input)
		if len(refs) != 1 {
			t.Fatalf("found %d references, want 1", len(refs))
		}
		if refs[0].Syntax != SyntaxEmbed {
			t.Errorf("Syntax = %v, want %v", refs[0].Syntax, SyntaxEmbed)
		}
		if refs[0].Raw != "![[photo.png]]" {
			t.Errorf("Raw = %q, want %q", refs[0].Raw, "![[photo.png]]")
		}
	})

	t.Run("link wrapper without destination falls back to image", func(t *testing.T) {
		t.Parallel()

		input := "[![a](a.png)] trailing"
		refs := (&Scanner{}).References(input)
		if len(refs) != 1 || refs[0].Syntax != SyntaxStandard {
			t.Fatalf("References(%q) = %+v, want one standard image", input, refs)
		}
	})

	t.Run("linked image keeps raw link with title", func(t *testing.T) {
		t.Parallel()

		input := `[![a](a.png)](https://example.com "Home")`
		refs := (&Scanner{}).References(input)
		if len(refs) != 1 {
			t.Fatalf("found %d references, want 1", len(refs))
		}
		if refs[0].Link != `https://example.com "Home"` {
			t.Errorf("Link = %q", refs[0].Link)
		}
		if refs[0].LinkURL != "https://example.com" {
			t.Errorf("LinkURL = %q", refs[0].LinkURL)
		}
	})
}

// ---------------------------------------------------------------------------
// TestSegments_Restartable - Lazy sequence can be iterated again and stopped
// ---------------------------------------------------------------------------

func TestSegments_Restartable(t *testing.T) {
	t.Parallel()

	input := "a ![x](x.png) b ![y](y.png) c"
	s := &Scanner{}
	seq := s.Segments(input)

	count := func() int {
		n := 0
		for range seq {
			n++
		}
		return n
	}
	first, second := count(), count()
	if first != 5 || second != 5 {
		t.Errorf("iterations yielded %d and %d segments, want 5 and 5", first, second)
	}

	// Early break must not panic.
	for seg := range seq {
		if seg.Ref != nil {
			break
		}
	}
}

// ---------------------------------------------------------------------------
// TestSyntax_String
// ---------------------------------------------------------------------------

func TestSyntax_String(t *testing.T) {
	t.Parallel()

	tests := map[Syntax]string{
		SyntaxStandard: "standard",
		SyntaxLinked:   "linked",
		SyntaxEmbed:    "embed",
		Syntax(42):     "unknown",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("Syntax(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}
