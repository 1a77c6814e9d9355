package pipeline

import (
	"strings"

	"github.com/alnah/go-mdembed/internal/scan"
)

// DataRefsMarker introduces the reference definitions block written by
// MoveDataImages.
const DataRefsMarker = "<!-- Image references (auto-generated from inline data URIs) -->"

// MoveDataImages turns inline images with data:image URLs into
// reference-style images and collects the data URLs as definitions at the
// end of the document, so the prose stays readable in an editor:
//
//	![Chart](data:image/jpeg;base64,...)  ->  ![Chart][dataimg-chart]
//
// Identical data URLs share one definition. Definitions from an earlier
// run are kept. Returns the new content and the number of images moved;
// content is returned unchanged when there is nothing to move.
func MoveDataImages(content string) (string, int) {
	body, block := content, ""
	if idx := strings.Index(content, DataRefsMarker); idx >= 0 {
		body, block = content[:idx], content[idx+len(DataRefsMarker):]
	}

	ids := existingRefIDs(body + block)
	byURL := make(map[string]string)
	var defs []string

	segs := (&scan.Scanner{}).Scan(body)
	texts := make([]string, 0, len(segs))
	moved := 0
	for _, seg := range segs {
		if seg.Ref == nil {
			continue
		}
		ref := seg.Ref
		if !movable(ref) {
			texts = append(texts, ref.Raw)
			continue
		}

		id, ok := byURL[ref.Target]
		if !ok {
			id = uniqueRefID(ref.Alt, ids)
			ids[id] = true
			byURL[ref.Target] = id
			def := "[" + id + "]: " + ref.Target
			if ref.Title != "" {
				def += " " + ref.Title
			}
			defs = append(defs, def)
		}

		img := "![" + ref.Alt + "][" + id + "]"
		if ref.Syntax == scan.SyntaxLinked {
			img = "[" + img + "](" + ref.Link + ")"
		}
		texts = append(texts, img)
		moved++
	}
	if moved == 0 {
		return content, 0
	}

	var b strings.Builder
	n := 0
	for _, seg := range segs {
		if seg.Ref == nil {
			b.WriteString(seg.Literal)
			continue
		}
		b.WriteString(texts[n])
		n++
	}

	out := strings.TrimRight(b.String(), " \t\r\n")
	var lines []string
	lines = append(lines, out, "", DataRefsMarker)
	for _, line := range strings.Split(block, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	lines = append(lines, defs...)
	return strings.Join(lines, "\n") + "\n", moved
}

// movable reports whether ref is an inline image carrying a data:image URL.
func movable(ref *scan.Reference) bool {
	if !ref.Embedded || ref.Syntax == scan.SyntaxEmbed {
		return false
	}
	return len(ref.Target) >= 11 && strings.EqualFold(ref.Target[:11], "data:image/")
}

// existingRefIDs collects dataimg-* definition labels already present.
func existingRefIDs(content string) map[string]bool {
	ids := make(map[string]bool)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "[dataimg-") {
			continue
		}
		if end := strings.Index(line, "]:"); end > 0 {
			ids[line[1:end]] = true
		}
	}
	return ids
}

// uniqueRefID builds a readable label like dataimg-some-alt-text that is
// not in ids yet.
func uniqueRefID(alt string, ids map[string]bool) string {
	base := slug(alt)
	candidate := "dataimg-" + base
	for i := 2; ids[candidate]; i++ {
		candidate = "dataimg-" + base + "-" + itoa(i)
	}
	return candidate
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "image"
	}
	return out
}

func itoa(i int) string {
	if i < 10 {
		return string(rune('0' + i))
	}
	return itoa(i/10) + string(rune('0'+i%10))
}
