package mdembed

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/alnah/go-mdembed/internal/recompress"
	"github.com/alnah/go-mdembed/internal/resolve"
	"github.com/alnah/go-mdembed/internal/rewrite"
	"github.com/alnah/go-mdembed/internal/scan"
)

// document is the state of one Embed call.
type document struct {
	e        *Embedder
	resolver resolve.Resolver
	fetches  fetchCache
}

// outcome is the replacement text and log entry for one reference.
type outcome struct {
	text  string
	entry LogEntry
}

// payload is the resolved and encoded form of one target.
type payload struct {
	res     resolve.Resource
	enc     recompress.Encoded
	dataURL string
	err     error
}

func (e *Embedder) newDocument(input Input) *document {
	d := &document{e: e, resolver: e.resolver}
	if input.BasePath != "" {
		d.resolver.BasePath = input.BasePath
	}
	return d
}

// handle decides the replacement for one reference. The original text is
// kept whenever the image cannot be embedded.
func (d *document) handle(ctx context.Context, ref scan.Reference) outcome {
	entry := LogEntry{Target: ref.Target, OriginalSize: -1}
	unchanged := func() outcome { return outcome{text: ref.Raw, entry: entry} }

	if ref.Embedded {
		entry.Status = StatusAlreadyEmbedded
		entry.Target = truncate(ref.Target, 40)
		return unchanged()
	}

	p := d.fetches.get(ref.Target, func() payload { return d.fetch(ctx, ref) })
	entry.Source = p.res.Source
	entry.OriginalSize = p.res.Size
	entry.MediaType = p.res.MediaType

	if p.res.Status != resolve.StatusOK {
		entry.Status = statusOf(p.res.Status)
		entry.Reason = p.res.Reason
		return unchanged()
	}
	if p.err != nil {
		entry.Status = StatusDecodeFailed
		entry.Reason = p.err.Error()
		return unchanged()
	}
	if int64(len(p.dataURL)) > d.e.cfg.maxSize {
		entry.Status = StatusTooLarge
		entry.Reason = fmt.Sprintf("encoded data URL of %s exceeds limit of %s",
			sizeString(int64(len(p.dataURL))), sizeString(d.e.cfg.maxSize))
		return unchanged()
	}

	entry.Status = StatusEmbedded
	entry.MediaType = p.enc.MediaType
	entry.Quality = p.enc.Quality
	entry.EmbeddedSize = int64(len(p.enc.Data))
	return outcome{text: rewrite.Fragment(ref, p.dataURL, d.link(ref)), entry: entry}
}

// fetch resolves and encodes the target of ref.
func (d *document) fetch(ctx context.Context, ref scan.Reference) payload {
	res := d.resolver.Resolve(ctx, ref)
	if res.Status != resolve.StatusOK {
		return payload{res: res}
	}
	enc, err := d.e.recompressor.Recompress(res.Data)
	res.Data = nil
	if err != nil {
		return payload{res: res, err: err}
	}
	return payload{res: res, enc: enc, dataURL: enc.DataURL()}
}

// link returns the raw outer link content for the rewritten image, or ""
// when the image stands alone.
func (d *document) link(ref scan.Reference) string {
	if ref.Syntax == scan.SyntaxLinked {
		return ref.Link
	}
	if !d.e.cfg.linkRemote {
		return ""
	}
	if ref.IsRemote() {
		return rewrite.LinkDestination(ref.Target)
	}
	if alt := strings.TrimSpace(ref.Alt); scan.IsRemoteURL(alt) {
		return rewrite.LinkDestination(alt)
	}
	return ""
}

func statusOf(s resolve.Status) Status {
	switch s {
	case resolve.StatusNotFound:
		return StatusNotFound
	case resolve.StatusDownloadFailed:
		return StatusDownloadFailed
	case resolve.StatusTooLarge:
		return StatusTooLarge
	case resolve.StatusUnsupportedType:
		return StatusUnsupportedType
	case resolve.StatusAlreadyEmbedded:
		return StatusAlreadyEmbedded
	default:
		return StatusEmbedded
	}
}

// fetchCache resolves each distinct target once per document, including
// when several workers ask for it at the same time.
type fetchCache struct {
	group singleflight.Group
	mu    sync.Mutex
	done  map[string]payload
}

func (c *fetchCache) get(key string, fn func() payload) payload {
	c.mu.Lock()
	if p, ok := c.done[key]; ok {
		c.mu.Unlock()
		return p
	}
	c.mu.Unlock()

	v, _, _ := c.group.Do(key, func() (any, error) {
		c.mu.Lock()
		p, ok := c.done[key]
		c.mu.Unlock()
		if ok {
			return p, nil
		}

		p = fn()
		c.mu.Lock()
		if c.done == nil {
			c.done = make(map[string]payload)
		}
		c.done[key] = p
		c.mu.Unlock()
		return p, nil
	})
	return v.(payload)
}
