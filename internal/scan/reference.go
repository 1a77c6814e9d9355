package scan

import (
	"strconv"
	"strings"
)

// Syntax identifies which Markdown construct produced a Reference.
type Syntax int

const (
	// SyntaxStandard is ![alt](target).
	SyntaxStandard Syntax = iota
	// SyntaxLinked is [![alt](target)](link).
	SyntaxLinked
	// SyntaxEmbed is ![[target]], used by Obsidian and Yarle exports.
	SyntaxEmbed
)

// String returns the syntax name used in logs and reports.
func (s Syntax) String() string {
	switch s {
	case SyntaxStandard:
		return "standard"
	case SyntaxLinked:
		return "linked"
	case SyntaxEmbed:
		return "embed"
	default:
		return "unknown"
	}
}

// Reference is one image mention found in the source text.
type Reference struct {
	Syntax Syntax

	// Alt is the raw alt text, escapes preserved.
	Alt string

	// Target is the raw destination with any size annotation removed.
	Target string

	// Title is the raw link title including its delimiters, e.g. `"Cat"`.
	Title string

	// Size is the raw size annotation ("825x464" or "300"), empty if absent.
	Size   string
	Width  int
	Height int

	// Link is the raw content between the parentheses of the outer link
	// of a SyntaxLinked reference. LinkURL is its destination alone.
	Link    string
	LinkURL string

	// Start and End are byte offsets of the whole fragment in the source.
	Start int
	End   int

	// Raw is the original fragment, source[Start:End].
	Raw string

	// Embedded reports whether Target is already a data URL.
	Embedded bool
}

// IsRemote reports whether the target is an http(s) URL.
func (r *Reference) IsRemote() bool {
	return IsRemoteURL(r.Target)
}

// IsRemoteURL reports whether s starts with an http or https scheme.
func IsRemoteURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// isDataURL reports whether s is an inline data URL.
func isDataURL(s string) bool {
	return len(s) >= 5 && strings.EqualFold(s[:5], "data:")
}

// splitSize splits a trailing "|WxH" or "\|WxH" annotation from s.
// Returns s unchanged and an empty size when there is no annotation.
func splitSize(s string) (rest, size string, w, h int) {
	p := strings.LastIndexByte(s, '|')
	if p < 0 {
		return s, "", 0, 0
	}
	w, h, ok := parseSize(s[p+1:])
	if !ok {
		return s, "", 0, 0
	}
	rest = strings.TrimSuffix(s[:p], `\`)
	return rest, s[p+1:], w, h
}

// parseSize parses "300" or "825x464".
func parseSize(s string) (w, h int, ok bool) {
	if s == "" {
		return 0, 0, false
	}
	ws, hs, hasH := strings.Cut(s, "x")
	w, err := strconv.Atoi(ws)
	if err != nil || w <= 0 || !allDigits(ws) {
		return 0, 0, false
	}
	if !hasH {
		return w, 0, true
	}
	h, err = strconv.Atoi(hs)
	if err != nil || h <= 0 || !allDigits(hs) {
		return 0, 0, false
	}
	return w, h, true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
