// Package rewrite renders embedded image fragments and reassembles the
// document around them in source order.
package rewrite

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-mdembed/internal/scan"
)

// Fragment renders ref as a standard Markdown image pointing at dataURL.
// Alt text, size annotation and title are preserved. When link is not
// empty the image is wrapped as [image](link); link is the raw content of
// the outer parentheses.
func Fragment(ref scan.Reference, dataURL, link string) string {
	var b strings.Builder
	b.Grow(len(dataURL) + len(ref.Alt) + len(ref.Size) + len(ref.Title) + len(link) + 12)

	if link != "" {
		b.WriteByte('[')
	}
	b.WriteString("![")
	b.WriteString(ref.Alt)
	if ref.Size != "" {
		b.WriteByte('|')
		b.WriteString(ref.Size)
	}
	b.WriteString("](")
	b.WriteString(dataURL)
	if ref.Title != "" {
		b.WriteByte(' ')
		b.WriteString(ref.Title)
	}
	b.WriteByte(')')
	if link != "" {
		b.WriteString("](")
		b.WriteString(link)
		b.WriteByte(')')
	}
	return b.String()
}

// LinkDestination formats url as a link destination, using the <...> form
// when it holds characters a bare destination cannot carry.
func LinkDestination(url string) string {
	if strings.ContainsAny(url, " \t()<>") {
		return "<" + strings.ReplaceAll(strings.ReplaceAll(url, "<", "%3C"), ">", "%3E") + ">"
	}
	return url
}

// Process calls fn for every reference and returns the results in
// reference order. With workers <= 1 references are handled one at a time;
// otherwise at most workers calls run concurrently.
func Process[T any](ctx context.Context, refs []scan.Reference, workers int, fn func(context.Context, scan.Reference) T) []T {
	out := make([]T, len(refs))
	if workers <= 1 {
		for i, ref := range refs {
			out[i] = fn(ctx, ref)
		}
		return out
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i, ref := range refs {
		g.Go(func() error {
			out[i] = fn(ctx, ref)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Assemble rebuilds the document from segs, replacing the i-th reference
// with texts[i]. Literal segments are copied unchanged. A reference without
// a replacement keeps its original text.
func Assemble(segs []scan.Segment, texts []string) string {
	size := 0
	for _, s := range segs {
		size += len(s.Literal)
	}
	for _, t := range texts {
		size += len(t)
	}

	var b strings.Builder
	b.Grow(size)
	n := 0
	for _, s := range segs {
		if s.Ref == nil {
			b.WriteString(s.Literal)
			continue
		}
		if n < len(texts) {
			b.WriteString(texts[n])
		} else {
			b.WriteString(s.Ref.Raw)
		}
		n++
	}
	return b.String()
}

// References extracts the references of segs in order.
func References(segs []scan.Segment) []scan.Reference {
	var refs []scan.Reference
	for _, s := range segs {
		if s.Ref != nil {
			refs = append(refs, *s.Ref)
		}
	}
	return refs
}
