package pipeline

import (
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Class names set on preview images according to their source.
const (
	ClassEmbedded = "mdembed-embedded"
	ClassRemote   = "mdembed-remote"
	ClassLocal    = "mdembed-local"
)

// ImageSources counts preview images by where their bytes live.
type ImageSources struct {
	Embedded int // data URLs
	Remote   int // http(s) and protocol-relative URLs
	Local    int // files on disk, rewritten to file:// URLs when possible
}

// ClassifyImages tags every <img> with a class naming its source and
// rewrites relative local sources to absolute file:// URLs under sourceDir,
// so images that were not embedded still show when the preview is opened
// from another directory. An empty sourceDir leaves local paths as they are.
//
// Local paths escaping sourceDir are not rewritten.
func ClassifyImages(htmlContent, sourceDir string) (string, ImageSources, error) {
	var counts ImageSources

	absSourceDir := ""
	if sourceDir != "" {
		abs, err := filepath.Abs(sourceDir)
		if err != nil {
			return "", counts, err
		}
		absSourceDir = abs
	}

	doc, isFragment, err := parseHTML(htmlContent)
	if err != nil {
		return "", counts, err
	}

	walkImages(doc, func(n *html.Node) {
		src := attr(n, "src")
		switch {
		case strings.HasPrefix(strings.ToLower(src), "data:"):
			counts.Embedded++
			addClass(n, ClassEmbedded)
		case isRemoteURL(src):
			counts.Remote++
			addClass(n, ClassRemote)
		case src != "":
			counts.Local++
			addClass(n, ClassLocal)
			if absSourceDir != "" && isRelativePath(src) {
				rewriteSrc(n, src, absSourceDir)
			}
		}
	})

	out, err := renderHTML(doc, isFragment)
	return out, counts, err
}

// parseHTML parses HTML content, handling both full documents and fragments.
// Returns the parsed node, whether it was a fragment, and any error.
func parseHTML(content string) (*html.Node, bool, error) {
	trimmed := strings.ToLower(strings.TrimSpace(content))

	if strings.HasPrefix(trimmed, "<!doctype") || strings.HasPrefix(trimmed, "<html") {
		doc, err := html.Parse(strings.NewReader(content))
		return doc, false, err
	}

	// Fragment: parse with body context to avoid wrapping
	context := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	}
	nodes, err := html.ParseFragment(strings.NewReader(content), context)
	if err != nil {
		return nil, true, err
	}

	container := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return container, true, nil
}

// renderHTML renders the document back to string.
// For fragments, only renders the children (avoids adding <html><body> wrapper).
func renderHTML(doc *html.Node, isFragment bool) (string, error) {
	var buf strings.Builder

	if isFragment {
		for c := doc.FirstChild; c != nil; c = c.NextSibling {
			if err := html.Render(&buf, c); err != nil {
				return "", err
			}
		}
		return buf.String(), nil
	}

	if err := html.Render(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func walkImages(n *html.Node, fn func(*html.Node)) {
	if n.Type == html.ElementNode && n.DataAtom == atom.Img {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkImages(c, fn)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func addClass(n *html.Node, class string) {
	for i, a := range n.Attr {
		if a.Key == "class" {
			n.Attr[i].Val = strings.TrimSpace(a.Val + " " + class)
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: class})
}

// rewriteSrc points a relative src at its absolute file:// URL.
func rewriteSrc(n *html.Node, src, sourceDir string) {
	rel := src
	if unescaped, err := url.PathUnescape(src); err == nil {
		rel = unescaped
	}
	absPath := filepath.Join(sourceDir, filepath.FromSlash(rel))
	if !isPathUnderDir(absPath, sourceDir) {
		return
	}
	for i, a := range n.Attr {
		if a.Key == "src" {
			n.Attr[i].Val = pathToFileURL(absPath)
		}
	}
}

func isRemoteURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "//")
}

// isRelativePath returns true if the path should be rewritten.
func isRelativePath(path string) bool {
	if path == "" || strings.HasPrefix(path, "#") {
		return false
	}
	if strings.Contains(path, "://") || strings.HasPrefix(strings.ToLower(path), "data:") {
		return false
	}
	return !filepath.IsAbs(path) && !strings.HasPrefix(path, "/")
}

// isPathUnderDir checks if absPath is under dir (prevents path traversal).
func isPathUnderDir(absPath, dir string) bool {
	cleanPath := filepath.Clean(absPath)
	cleanDir := filepath.Clean(dir)

	if !strings.HasSuffix(cleanDir, string(filepath.Separator)) {
		cleanDir += string(filepath.Separator)
	}
	return strings.HasPrefix(cleanPath+string(filepath.Separator), cleanDir)
}

// pathToFileURL converts an absolute path to a file:// URL.
// Handles both Unix and Windows paths correctly.
func pathToFileURL(absPath string) string {
	u := url.URL{
		Scheme: "file",
		Path:   filepath.ToSlash(absPath),
	}
	return u.String()
}
