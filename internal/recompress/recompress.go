// Package recompress turns image bytes into an embeddable payload, either a
// JPEG re-encoding at a size-aware quality or the original bytes untouched.
package recompress

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"slices"
	"strings"

	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MediaTypeJPEG is the target media type of every re-encoded image.
const MediaTypeJPEG = "image/jpeg"

// ErrDecodeFailed indicates bytes that claim to be an image but cannot be
// decoded into a raster.
var ErrDecodeFailed = errors.New("image decode failed")

// keepAsIs lists image types carried unchanged: vector formats and codecs
// without a Go decoder.
var keepAsIs = []string{
	"image/svg+xml",
	"image/avif",
	"image/heic",
	"image/heif",
	"image/x-icon",
	"image/vnd.microsoft.icon",
	"image/jxl",
	"image/vnd.mozilla.apng",
}

// dataURLTypes maps sniffed types to the names browsers expect in data URLs.
var dataURLTypes = map[string]string{
	"image/vnd.mozilla.apng":   "image/png",
	"image/vnd.microsoft.icon": "image/x-icon",
}

// compact lists types whose re-encoding is only kept when it shrinks.
var compact = []string{"image/jpeg", "image/webp"}

// Encoded is the payload for one data URL.
type Encoded struct {
	MediaType   string
	Data        []byte
	Quality     int
	Passthrough bool
}

// DataURL renders the payload as data:<mime>;base64,<payload>.
func (e Encoded) DataURL() string {
	var b strings.Builder
	b.Grow(len("data:;base64,") + len(e.MediaType) + base64.StdEncoding.EncodedLen(len(e.Data)))
	b.WriteString("data:")
	b.WriteString(e.MediaType)
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(e.Data))
	return b.String()
}

// Recompressor holds per-run encoding settings. The zero value uses
// DefaultTable, DefaultScale and a white background.
type Recompressor struct {
	Table      Table
	Scale      int
	Background color.Color

	// Passthrough lists extra media types to embed without re-encoding.
	Passthrough []string
}

// Sniff returns the media type detected from content, without parameters.
func Sniff(data []byte) string {
	mt, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")
	return strings.TrimSpace(mt)
}

// Recompress encodes data for embedding. It returns an error wrapping
// ErrDecodeFailed only when data cannot be decoded.
func (r *Recompressor) Recompress(data []byte) (enc Encoded, err error) {
	defer func() {
		if p := recover(); p != nil {
			enc, err = Encoded{}, fmt.Errorf("%w: decoder panic: %v", ErrDecodeFailed, p)
		}
	}()

	mt := Sniff(data)
	if !strings.HasPrefix(mt, "image/") {
		return Encoded{}, fmt.Errorf("%w: content is %s, not an image", ErrDecodeFailed, mt)
	}

	quality := r.table().Lookup(int64(len(data)), r.scale())
	if quality >= 100 || r.keep(mt) {
		return passthrough(mt, data), nil
	}
	if mt == "image/gif" && isAnimatedGIF(data) {
		return passthrough(mt, data), nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Encoded{}, fmt.Errorf("%w: %s: %v", ErrDecodeFailed, mt, err)
	}

	var buf bytes.Buffer
	quality = clampQuality(quality)
	if err := jpeg.Encode(&buf, r.flatten(img), &jpeg.Options{Quality: quality}); err != nil {
		return Encoded{}, fmt.Errorf("%w: jpeg encode: %v", ErrDecodeFailed, err)
	}

	if buf.Len() > len(data) && slices.Contains(compact, mt) {
		return passthrough(mt, data), nil
	}
	return Encoded{MediaType: MediaTypeJPEG, Data: buf.Bytes(), Quality: quality}, nil
}

func passthrough(mt string, data []byte) Encoded {
	if alias, ok := dataURLTypes[mt]; ok {
		mt = alias
	}
	return Encoded{MediaType: mt, Data: data, Quality: 100, Passthrough: true}
}

func (r *Recompressor) table() Table {
	if len(r.Table) == 0 {
		return DefaultTable
	}
	return r.Table
}

func (r *Recompressor) scale() int {
	if r.Scale == 0 {
		return DefaultScale
	}
	return r.Scale
}

func (r *Recompressor) keep(mt string) bool {
	if slices.Contains(keepAsIs, mt) {
		return true
	}
	for _, t := range r.Passthrough {
		if strings.EqualFold(strings.TrimSpace(t), mt) {
			return true
		}
	}
	return false
}

// flatten composites non-opaque images onto the background color.
func (r *Recompressor) flatten(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}
	bg := r.Background
	if bg == nil {
		bg = color.White
	}
	b := img.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, image.NewUniform(bg), image.Point{}, draw.Src)
	draw.Draw(dst, b, img, b.Min, draw.Over)
	return dst
}

func isAnimatedGIF(data []byte) bool {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return false
	}
	return len(g.Image) > 1
}
