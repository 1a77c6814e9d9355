// Package resolve turns image reference targets into bytes, from the local
// filesystem or over HTTP. Every outcome is reported as a Resource status;
// resolution never returns an error.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/alnah/go-mdembed/internal/scan"
)

// Defaults applied when the corresponding Resolver field is zero.
const (
	DefaultMaxSize   = 10 << 20
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "go-mdembed (+https://github.com/alnah/go-mdembed)"
)

// Status tags the outcome of resolving one target.
type Status int

const (
	StatusOK Status = iota
	StatusNotFound
	StatusDownloadFailed
	StatusTooLarge
	StatusUnsupportedType
	StatusAlreadyEmbedded
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotFound:
		return "notFound"
	case StatusDownloadFailed:
		return "downloadFailed"
	case StatusTooLarge:
		return "tooLarge"
	case StatusUnsupportedType:
		return "unsupportedType"
	case StatusAlreadyEmbedded:
		return "alreadyEmbedded"
	default:
		return "unknown"
	}
}

// Resource is the result of resolving a target.
type Resource struct {
	Status Status

	// Data holds the payload, only for StatusOK.
	Data []byte

	// Source is the resolved file path or URL.
	Source string

	// Size is the payload size in bytes, or -1 when unknown.
	Size int64

	// MediaType is the sniffed media type, when known.
	MediaType string

	// Reason explains a non-OK status.
	Reason string
}

// Resolver fetches reference targets.
type Resolver struct {
	// BasePath anchors relative local paths. Empty means the working directory.
	BasePath string

	MaxSize   int64
	Timeout   time.Duration
	Client    *http.Client
	UserAgent string
}

// Resolve resolves the target of ref.
func (r *Resolver) Resolve(ctx context.Context, ref scan.Reference) Resource {
	if ref.Embedded {
		return Resource{Status: StatusAlreadyEmbedded, Source: "data URL", Size: -1}
	}
	return r.ResolveTarget(ctx, ref.Target)
}

// ResolveTarget resolves a raw target string.
func (r *Resolver) ResolveTarget(ctx context.Context, target string) Resource {
	target = strings.TrimSpace(target)
	if len(target) >= 5 && strings.EqualFold(target[:5], "data:") {
		return Resource{Status: StatusAlreadyEmbedded, Source: "data URL", Size: -1}
	}
	if kind, ok := nonImageKind(target); ok {
		return Resource{
			Status: StatusUnsupportedType,
			Source: target,
			Size:   -1,
			Reason: fmt.Sprintf("%s file, not an image", kind),
		}
	}

	switch scheme := schemeOf(target); scheme {
	case "":
		return r.resolveLocal(target)
	case "http", "https":
		return r.resolveRemote(ctx, target)
	case "file":
		u, err := url.Parse(target)
		if err != nil {
			return Resource{Status: StatusNotFound, Source: target, Size: -1, Reason: err.Error()}
		}
		return r.resolveLocal(filepath.FromSlash(u.Path))
	default:
		return Resource{
			Status: StatusUnsupportedType,
			Source: target,
			Size:   -1,
			Reason: fmt.Sprintf("unsupported scheme %q", scheme),
		}
	}
}

// schemeOf returns the lowercased URL scheme of target, or "" for paths.
// Single letters are drive letters, not schemes.
func schemeOf(target string) string {
	i := strings.IndexByte(target, ':')
	if i < 2 {
		return ""
	}
	for k := 0; k < i; k++ {
		c := target[k]
		isAlpha := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		if !isAlpha && (k == 0 || !(c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.')) {
			return ""
		}
	}
	return strings.ToLower(target[:i])
}

// ---------------------------------------------------------------------------
// Local files
// ---------------------------------------------------------------------------

func (r *Resolver) resolveLocal(target string) Resource {
	var (
		path string
		info fs.FileInfo
		err  error
	)
	for _, candidate := range localCandidates(target) {
		path = candidate
		if !filepath.IsAbs(path) {
			path = filepath.Join(r.BasePath, path)
		}
		info, err = os.Stat(path)
		if err == nil {
			break
		}
	}
	if err != nil {
		reason := "file not found"
		if !errors.Is(err, fs.ErrNotExist) {
			reason = err.Error()
		}
		return Resource{Status: StatusNotFound, Source: path, Size: -1, Reason: reason}
	}
	if info.IsDir() {
		return Resource{Status: StatusNotFound, Source: path, Size: -1, Reason: "path is a directory"}
	}

	size := info.Size()
	if size > r.maxSize() {
		return r.tooLarge(path, size)
	}

	data, err := os.ReadFile(path) // #nosec G304 -- reading user-referenced images is the purpose
	if err != nil {
		return Resource{Status: StatusNotFound, Source: path, Size: size, Reason: err.Error()}
	}
	return r.accept(path, data)
}

// localCandidates lists spellings to try for a local target: as written,
// percent-decoded, and with Markdown backslash escapes removed.
func localCandidates(target string) []string {
	candidates := []string{target}
	if strings.Contains(target, "%") {
		if decoded, err := url.PathUnescape(target); err == nil && decoded != target {
			candidates = append(candidates, decoded)
		}
	}
	if unescaped := unescapeMarkdown(target); unescaped != target {
		candidates = append(candidates, unescaped)
	}
	return candidates
}

// unescapeMarkdown drops backslashes before ASCII punctuation. Backslashes
// before other characters are kept, so Windows paths survive.
func unescapeMarkdown(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && isASCIIPunct(s[i+1]) && s[i+1] != '\\' {
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isASCIIPunct(c byte) bool {
	return strings.IndexByte("!\"#$%&'()*+,-./:;<=>?@[]^_`{|}~", c) >= 0
}

// ---------------------------------------------------------------------------
// Remote URLs
// ---------------------------------------------------------------------------

func (r *Resolver) resolveRemote(ctx context.Context, target string) Resource {
	ctx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return r.downloadFailed(target, err.Error())
	}
	req.Header.Set("User-Agent", r.userAgent())
	req.Header.Set("Accept", "image/*,*/*;q=0.8")

	resp, err := r.client().Do(req)
	if err != nil {
		return r.downloadFailed(target, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return r.downloadFailed(target, "HTTP "+resp.Status)
	}
	if nonImageContentType(resp.Header.Get("Content-Type")) {
		return Resource{
			Status:    StatusUnsupportedType,
			Source:    target,
			Size:      resp.ContentLength,
			MediaType: resp.Header.Get("Content-Type"),
			Reason:    "server reports " + resp.Header.Get("Content-Type"),
		}
	}
	if resp.ContentLength > r.maxSize() {
		return r.tooLarge(target, resp.ContentLength)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, r.maxSize()+1))
	if err != nil {
		return r.downloadFailed(target, "reading body: "+err.Error())
	}
	if int64(len(data)) > r.maxSize() {
		return r.tooLarge(target, -1)
	}
	return r.accept(target, data)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// accept sniffs data and returns an OK resource when it may be an image.
func (r *Resolver) accept(source string, data []byte) Resource {
	mt, ok := sniff(data)
	if !ok {
		return Resource{
			Status:    StatusUnsupportedType,
			Source:    source,
			Size:      int64(len(data)),
			MediaType: mt,
			Reason:    "content is " + mt,
		}
	}
	return Resource{Status: StatusOK, Data: data, Source: source, Size: int64(len(data)), MediaType: mt}
}

func (r *Resolver) tooLarge(source string, size int64) Resource {
	limit := humanize.IBytes(uint64(r.maxSize()))
	reason := "exceeds limit of " + limit
	if size >= 0 {
		reason = fmt.Sprintf("%s exceeds limit of %s", humanize.IBytes(uint64(size)), limit)
	}
	return Resource{Status: StatusTooLarge, Source: source, Size: size, Reason: reason}
}

func (r *Resolver) downloadFailed(source, reason string) Resource {
	return Resource{Status: StatusDownloadFailed, Source: source, Size: -1, Reason: reason}
}

func (r *Resolver) maxSize() int64 {
	if r.MaxSize <= 0 {
		return DefaultMaxSize
	}
	return r.MaxSize
}

func (r *Resolver) timeout() time.Duration {
	if r.Timeout <= 0 {
		return DefaultTimeout
	}
	return r.Timeout
}

func (r *Resolver) userAgent() string {
	if r.UserAgent == "" {
		return DefaultUserAgent
	}
	return r.UserAgent
}

func (r *Resolver) client() *http.Client {
	if r.Client == nil {
		return http.DefaultClient
	}
	return r.Client
}
