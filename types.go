package mdembed

import (
	"time"
)

// Status is the outcome recorded for one image reference.
type Status string

// Reference outcomes.
const (
	StatusEmbedded        Status = "embedded"
	StatusAlreadyEmbedded Status = "alreadyEmbedded"
	StatusNotFound        Status = "notFound"
	StatusDownloadFailed  Status = "downloadFailed"
	StatusTooLarge        Status = "tooLarge"
	StatusUnsupportedType Status = "unsupportedType"
	StatusDecodeFailed    Status = "decodeFailed"
)

// Skipped reports whether the reference was left unchanged because of a
// failure. Already embedded images are not skipped.
func (s Status) Skipped() bool {
	return s != StatusEmbedded && s != StatusAlreadyEmbedded
}

// Quality scale bounds and size defaults.
const (
	MinQualityScale     = 1
	MaxQualityScale     = 9
	DefaultQualityScale = 5

	DefaultMaxSize = 10 << 20
	DefaultTimeout = 30 * time.Second
)

// Input is one document to process.
type Input struct {
	Markdown string // Markdown content

	// BasePath anchors relative image paths for this document and overrides
	// the embedder's base path. The CLI sets it to the input file directory.
	BasePath string
}

// Result is the rewritten document and what happened to each image.
type Result struct {
	Markdown string
	Log      []LogEntry
	Stats    Stats
}

// Skipped returns the log entries of references left unchanged by a failure.
func (r *Result) Skipped() []LogEntry {
	var out []LogEntry
	for _, e := range r.Log {
		if e.Status.Skipped() {
			out = append(out, e)
		}
	}
	return out
}

// LogEntry records the outcome for one reference, in document order.
type LogEntry struct {
	Target       string `yaml:"target"`
	Line         int    `yaml:"line"`
	Source       string `yaml:"source,omitempty"`
	Status       Status `yaml:"status"`
	Reason       string `yaml:"reason,omitempty"`
	OriginalSize int64  `yaml:"originalSize"`           // -1 when unknown
	EmbeddedSize int64  `yaml:"embeddedSize,omitempty"` // encoded payload bytes
	Quality      int    `yaml:"quality,omitempty"`
	MediaType    string `yaml:"mediaType,omitempty"`
}

// Stats summarizes a run.
type Stats struct {
	Images          int   `yaml:"images"`
	Embedded        int   `yaml:"embedded"`
	AlreadyEmbedded int   `yaml:"alreadyEmbedded"`
	Skipped         int   `yaml:"skipped"`
	OriginalBytes   int64 `yaml:"originalBytes"` // source bytes of embedded images
	EmbeddedBytes   int64 `yaml:"embeddedBytes"` // payload bytes after recompression
	InputBytes      int64 `yaml:"inputBytes"`
	OutputBytes     int64 `yaml:"outputBytes"`
}

// Add accumulates other into s, for batch totals.
func (s *Stats) Add(other Stats) {
	s.Images += other.Images
	s.Embedded += other.Embedded
	s.AlreadyEmbedded += other.AlreadyEmbedded
	s.Skipped += other.Skipped
	s.OriginalBytes += other.OriginalBytes
	s.EmbeddedBytes += other.EmbeddedBytes
	s.InputBytes += other.InputBytes
	s.OutputBytes += other.OutputBytes
}
