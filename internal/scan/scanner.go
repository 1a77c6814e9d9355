// Package scan finds image references in raw Markdown text.
//
// The scanner is deliberately not a Markdown parser: it recognizes only the
// image syntaxes the embedder rewrites and treats everything else, including
// malformed image syntax, as literal text. Fenced code blocks, indented code
// blocks and inline code spans are skipped so that documentation about image
// syntax is left alone. Indented lines under a list item are list content,
// not code; the list check looks only at the nearest marker line above.
//
// Recognized forms, in priority order at each position:
//
//	![[photo.png]]              bracket embed, optional |WxH suffix
//	[![alt](img.png)](https://…) image wrapped in a link
//	![alt](img.png "title")     standard image
//
// In Yarle mode, standard images may also carry a size annotation in the alt
// text (![alt|300x200](img.png)) or after the target (![](img.png\|300x200)).
package scan

import (
	"iter"
	"strings"
)

// Segment is either a literal span of source text or an image reference.
// Exactly one of Literal and Ref is meaningful: Ref is nil for literals.
type Segment struct {
	Literal string
	Ref     *Reference
}

// Scanner splits Markdown text into segments.
type Scanner struct {
	// Yarle enables size annotations on standard images.
	Yarle bool
}

// Segments returns a lazy sequence covering text exactly once, in order.
// The sequence can be iterated any number of times.
func (s *Scanner) Segments(text string) iter.Seq[Segment] {
	return func(yield func(Segment) bool) {
		lit := 0
		i := 0
		for i < len(text) {
			if skip := skipCode(text, i); skip > i {
				i = skip
				continue
			}

			ref, ok := s.match(text, i)
			if !ok {
				if text[i] == '\\' && i+1 < len(text) {
					i += 2
					continue
				}
				i++
				continue
			}

			if ref.Start > lit {
				if !yield(Segment{Literal: text[lit:ref.Start]}) {
					return
				}
			}
			if !yield(Segment{Ref: &ref}) {
				return
			}
			i = ref.End
			lit = i
		}
		if lit < len(text) {
			yield(Segment{Literal: text[lit:]})
		}
	}
}

// Scan collects Segments into a slice.
func (s *Scanner) Scan(text string) []Segment {
	var segs []Segment
	for seg := range s.Segments(text) {
		segs = append(segs, seg)
	}
	return segs
}

// References returns only the image references found in text.
func (s *Scanner) References(text string) []Reference {
	var refs []Reference
	for seg := range s.Segments(text) {
		if seg.Ref != nil {
			refs = append(refs, *seg.Ref)
		}
	}
	return refs
}

// match tries each syntax at position i in priority order.
func (s *Scanner) match(text string, i int) (Reference, bool) {
	rest := text[i:]
	switch {
	case strings.HasPrefix(rest, "![["):
		if ref, ok := parseEmbed(text, i); ok {
			return ref, true
		}
		// Not a bracket embed: the same text may still be a standard image
		// whose alt text starts with "[".
		return s.parseImage(text, i)
	case strings.HasPrefix(rest, "[!["):
		return s.parseLinked(text, i)
	case strings.HasPrefix(rest, "!["):
		return s.parseImage(text, i)
	}
	return Reference{}, false
}

// parseEmbed parses ![[target]] and ![[target|WxH]] at i.
func parseEmbed(text string, i int) (Reference, bool) {
	start := i + 3
	idx := strings.Index(text[start:], "]]")
	if idx <= 0 {
		return Reference{}, false
	}
	inner := text[start : start+idx]
	if strings.ContainsAny(inner, "\n[") {
		return Reference{}, false
	}
	end := start + idx + 2

	ref := Reference{Syntax: SyntaxEmbed, Start: i, End: end, Raw: text[i:end]}
	name, size, w, h := splitSize(inner)
	if size == "" {
		// Obsidian alias: ![[photo.png|caption]]
		if p := strings.LastIndexByte(inner, '|'); p >= 0 {
			name = strings.TrimSuffix(inner[:p], `\`)
			ref.Alt = inner[p+1:]
		}
	}
	ref.Target = strings.TrimSpace(name)
	ref.Size, ref.Width, ref.Height = size, w, h
	if ref.Target == "" {
		return Reference{}, false
	}
	ref.Embedded = isDataURL(ref.Target)
	return ref, true
}

// parseLinked parses [![alt](target)](link) at i.
func (s *Scanner) parseLinked(text string, i int) (Reference, bool) {
	inner, ok := s.parseImage(text, i+1)
	if !ok {
		return Reference{}, false
	}
	pos := inner.End
	if !strings.HasPrefix(text[pos:], "](") {
		return Reference{}, false
	}
	dest, _, end, ok := parseDestination(text, pos+2)
	if !ok {
		return Reference{}, false
	}

	ref := inner
	ref.Syntax = SyntaxLinked
	ref.Start = i
	ref.End = end
	ref.Raw = text[i:end]
	ref.Link = text[pos+2 : end-1]
	ref.LinkURL = dest
	return ref, true
}

// parseImage parses ![alt](target "title") at i.
func (s *Scanner) parseImage(text string, i int) (Reference, bool) {
	altStart := i + 2
	altEnd, ok := closingBracket(text, altStart)
	if !ok || altEnd+1 >= len(text) || text[altEnd+1] != '(' {
		return Reference{}, false
	}
	dest, title, end, ok := parseDestination(text, altEnd+2)
	if !ok || dest == "" {
		return Reference{}, false
	}

	ref := Reference{
		Syntax: SyntaxStandard,
		Alt:    text[altStart:altEnd],
		Target: dest,
		Title:  title,
		Start:  i,
		End:    end,
		Raw:    text[i:end],
	}
	ref.Embedded = isDataURL(dest)

	if s.Yarle && !ref.Embedded {
		if alt, size, w, h := splitSize(ref.Alt); size != "" {
			ref.Alt, ref.Size, ref.Width, ref.Height = alt, size, w, h
		}
		if target, size, w, h := splitSize(ref.Target); size != "" {
			ref.Target = target
			if ref.Size == "" {
				ref.Size, ref.Width, ref.Height = size, w, h
			}
		}
	}
	return ref, true
}

// closingBracket returns the index of the "]" closing the bracket opened
// just before start. Nested brackets must balance and backslash escapes are
// skipped. A blank line ends the search.
func closingBracket(text string, start int) (int, bool) {
	depth := 0
	for k := start; k < len(text); k++ {
		switch text[k] {
		case '\\':
			k++
		case '[':
			depth++
		case ']':
			if depth == 0 {
				return k, true
			}
			depth--
		case '\n':
			if isBlankLineAt(text, k+1) {
				return 0, false
			}
		}
	}
	return 0, false
}

// parseDestination parses a link destination and optional title starting
// right after "(". It returns the destination, the raw title, and the index
// just past the closing ")".
//
// Unlike CommonMark, unbracketed destinations may contain spaces when no
// valid title follows them, because note exporters emit such paths.
func parseDestination(text string, pos int) (dest, title string, end int, ok bool) {
	k := skipSpaces(text, pos)
	if k < len(text) && text[k] == '<' {
		closeIdx := -1
		for j := k + 1; j < len(text); j++ {
			if text[j] == '\\' {
				j++
				continue
			}
			if text[j] == '\n' || text[j] == '<' {
				return "", "", 0, false
			}
			if text[j] == '>' {
				closeIdx = j
				break
			}
		}
		if closeIdx < 0 {
			return "", "", 0, false
		}
		dest = text[k+1 : closeIdx]
		title, end, ok = parseTail(text, closeIdx+1)
		return dest, title, end, ok
	}

	depth := 0
	for j := k; j < len(text); j++ {
		switch text[j] {
		case '\\':
			j++
		case '(':
			depth++
		case ')':
			if depth == 0 {
				return text[k:j], "", j + 1, true
			}
			depth--
		case '\n':
			return "", "", 0, false
		case ' ', '\t':
			if depth != 0 {
				continue
			}
			if t, e, tailOK := parseTail(text, j); tailOK {
				return text[k:j], t, e, true
			}
		}
	}
	return "", "", 0, false
}

// parseTail parses optional whitespace, an optional title, optional
// whitespace and the closing ")".
func parseTail(text string, pos int) (title string, end int, ok bool) {
	k := skipSpaces(text, pos)
	if k >= len(text) {
		return "", 0, false
	}
	if text[k] == ')' {
		return "", k + 1, true
	}
	if k == pos {
		// A title must be separated from the destination.
		return "", 0, false
	}

	var closer byte
	switch text[k] {
	case '"':
		closer = '"'
	case '\'':
		closer = '\''
	case '(':
		closer = ')'
	default:
		return "", 0, false
	}
	for j := k + 1; j < len(text); j++ {
		if text[j] == '\\' {
			j++
			continue
		}
		if text[j] == '\n' && isBlankLineAt(text, j+1) {
			return "", 0, false
		}
		if text[j] == closer {
			after := skipSpaces(text, j+1)
			if after < len(text) && text[after] == ')' {
				return text[k : j+1], after + 1, true
			}
			return "", 0, false
		}
	}
	return "", 0, false
}

func skipSpaces(text string, pos int) int {
	for pos < len(text) && (text[pos] == ' ' || text[pos] == '\t') {
		pos++
	}
	return pos
}

// isBlankLineAt reports whether the line starting at pos holds only spaces.
func isBlankLineAt(text string, pos int) bool {
	for ; pos < len(text); pos++ {
		switch text[pos] {
		case ' ', '\t', '\r':
		case '\n':
			return true
		default:
			return false
		}
	}
	return true
}

// skipCode returns the index just past a fenced code block, an indented code
// block or an inline code span starting at i, or i when none starts there.
func skipCode(text string, i int) int {
	if i == 0 || text[i-1] == '\n' {
		if end, ok := fencedBlockEnd(text, i); ok {
			return end
		}
		if end, ok := indentedBlockEnd(text, i); ok {
			return end
		}
	}
	if text[i] == '`' {
		return codeSpanEnd(text, i)
	}
	return i
}

// fencedBlockEnd recognizes a ``` or ~~~ fence opening at line start i and
// returns the index past its closing fence line. An unclosed fence runs to
// the end of the text.
func fencedBlockEnd(text string, i int) (int, bool) {
	k := i
	for k < len(text) && k-i < 3 && text[k] == ' ' {
		k++
	}
	if k >= len(text) || (text[k] != '`' && text[k] != '~') {
		return 0, false
	}
	fence := text[k]
	n := runLength(text, k, fence)
	if n < 3 {
		return 0, false
	}

	lineEnd := strings.IndexByte(text[k:], '\n')
	if lineEnd < 0 {
		return len(text), true
	}
	pos := k + lineEnd + 1
	for pos < len(text) {
		next := strings.IndexByte(text[pos:], '\n')
		line := text[pos:]
		if next >= 0 {
			line = text[pos : pos+next]
		}
		trimmed := strings.TrimLeft(line, " ")
		if len(line)-len(trimmed) <= 3 && runLength(trimmed, 0, fence) >= n &&
			strings.TrimSpace(strings.TrimLeft(trimmed, string(fence))) == "" {
			if next < 0 {
				return len(text), true
			}
			return pos + next + 1, true
		}
		if next < 0 {
			break
		}
		pos += next + 1
	}
	return len(text), true
}

// indentedBlockEnd recognizes an indented code block opening at line start
// i: a line indented by four columns or more that follows a blank line or
// starts the text, and does not belong to a list item. It returns the start
// of the first following non-blank line indented by less than four columns.
func indentedBlockEnd(text string, i int) (int, bool) {
	if indentWidth(text[i:]) < 4 || isBlankLineAt(text, i) {
		return 0, false
	}
	if i > 0 && !isBlankLineAt(text, lineStart(text, i-1)) {
		return 0, false
	}
	if inListItem(text, i) {
		return 0, false
	}

	pos := i
	for pos < len(text) {
		if !isBlankLineAt(text, pos) && indentWidth(text[pos:]) < 4 {
			return pos, true
		}
		next := strings.IndexByte(text[pos:], '\n')
		if next < 0 {
			return len(text), true
		}
		pos += next + 1
	}
	return len(text), true
}

// inListItem reports whether the indented line at i continues a list item:
// walking back, a list marker line is met before an unindented line.
func inListItem(text string, i int) bool {
	for end := i; end > 0; {
		start := lineStart(text, end-1)
		line := text[start : end-1]
		end = start

		switch w := indentWidth(line); {
		case strings.TrimSpace(line) == "", w >= 4:
			continue
		case isListMarker(strings.TrimLeft(line, " \t")):
			return true
		case w == 0:
			return false
		}
	}
	return false
}

// isListMarker reports whether s starts with "-", "*", "+", "1." or "1)"
// followed by a space, a tab or the end of the line.
func isListMarker(s string) bool {
	k := 0
	if s != "" && (s[0] == '-' || s[0] == '*' || s[0] == '+') {
		k = 1
	} else {
		for k < len(s) && k < 9 && s[k] >= '0' && s[k] <= '9' {
			k++
		}
		if k == 0 || k >= len(s) || (s[k] != '.' && s[k] != ')') {
			return false
		}
		k++
	}
	return k == len(s) || s[k] == ' ' || s[k] == '\t' || s[k] == '\r'
}

// indentWidth returns the leading whitespace width of s in columns, with tab
// stops every four columns.
func indentWidth(s string) int {
	w := 0
	for _, c := range []byte(s) {
		switch c {
		case ' ':
			w++
		case '\t':
			w += 4 - w%4
		default:
			return w
		}
	}
	return w
}

// lineStart returns the start index of the line containing pos.
func lineStart(text string, pos int) int {
	return strings.LastIndexByte(text[:pos], '\n') + 1
}

// codeSpanEnd returns the index past the inline code span opening at i. When
// the backtick run has no matching closer, only the run itself is skipped.
func codeSpanEnd(text string, i int) int {
	n := runLength(text, i, '`')
	for k := i + n; k < len(text); {
		switch {
		case text[k] == '`':
			m := runLength(text, k, '`')
			if m == n {
				return k + m
			}
			k += m
		case text[k] == '\n' && isBlankLineAt(text, k+1):
			return i + n
		default:
			k++
		}
	}
	return i + n
}

func runLength(text string, pos int, c byte) int {
	n := 0
	for pos+n < len(text) && text[pos+n] == c {
		n++
	}
	return n
}
