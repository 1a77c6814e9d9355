package mdembed

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// noiseImage returns a deterministic image that compresses poorly, so the
// encoded sizes land in the larger quality tiers.
func noiseImage(w, h int, seed uint64) *image.RGBA {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{uint8(rng.IntN(256)), uint8(rng.IntN(256)), uint8(rng.IntN(256)), 255})
		}
	}
	return img
}

func pngBytes(t *testing.T, w, h int, seed uint64) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, noiseImage(w, h, seed)); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func jpegBytes(t *testing.T, w, h int, seed uint64) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, noiseImage(w, h, seed), &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("jpeg.Encode: %v", err)
	}
	return buf.Bytes()
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func newEmbedder(t *testing.T, opts ...Option) *Embedder {
	t.Helper()
	e, err := NewEmbedder(opts...)
	if err != nil {
		t.Fatalf("NewEmbedder() error = %v", err)
	}
	return e
}

func embed(t *testing.T, e *Embedder, markdown, basePath string) *Result {
	t.Helper()
	res, err := e.Embed(context.Background(), Input{Markdown: markdown, BasePath: basePath})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	return res
}

// dataURLPayload extracts the decoded bytes of the first data URL in s.
func dataURLPayload(t *testing.T, s string) (mediaType string, data []byte) {
	t.Helper()
	start := strings.Index(s, "data:")
	if start < 0 {
		t.Fatalf("no data URL in %q", truncate(s, 80))
	}
	rest := s[start+len("data:"):]
	end := strings.IndexAny(rest, ") \"")
	if end < 0 {
		end = len(rest)
	}
	mediaType, payload, ok := strings.Cut(rest[:end], ";base64,")
	if !ok {
		t.Fatalf("data URL without base64 payload: %q", truncate(rest, 80))
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	return mediaType, data
}
