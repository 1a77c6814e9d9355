package mdembed

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/alnah/go-mdembed/internal/yamlutil"
)

// Report is the machine-readable record of a run over one or more files.
type Report struct {
	Generated string       `yaml:"generated,omitempty"` // RFC 3339
	Files     []FileReport `yaml:"files"`
	Totals    Stats        `yaml:"totals"`
}

// FileReport is the outcome for one document.
type FileReport struct {
	Path   string     `yaml:"path"`
	Output string     `yaml:"output,omitempty"`
	Error  string     `yaml:"error,omitempty"`
	Stats  Stats      `yaml:"stats"`
	Images []LogEntry `yaml:"images,omitempty"`
}

// Add appends one file's result and updates the totals. A nil result
// records err alone.
func (r *Report) Add(path, output string, res *Result, err error) {
	fr := FileReport{Path: path, Output: output}
	if err != nil {
		fr.Error = err.Error()
	}
	if res != nil {
		fr.Stats = res.Stats
		fr.Images = res.Log
		r.Totals.Add(res.Stats)
	}
	r.Files = append(r.Files, fr)
}

// WriteYAML writes the report as a YAML document.
func (r *Report) WriteYAML(w io.Writer) error {
	return yamlutil.Encode(w, r)
}

// WriteSummary writes the human-readable end-of-run summary: counts, sizes
// before and after, and the references that still point at external
// resources and need to be kept.
func WriteSummary(w io.Writer, stats Stats, skipped []LogEntry) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%d of %d %s embedded", stats.Embedded, stats.Images, plural(stats.Images, "image", "images"))
	var extra []string
	if stats.AlreadyEmbedded > 0 {
		extra = append(extra, fmt.Sprintf("%d already embedded", stats.AlreadyEmbedded))
	}
	if stats.Skipped > 0 {
		extra = append(extra, fmt.Sprintf("%d not embedded", stats.Skipped))
	}
	if len(extra) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(extra, ", "))
	}
	b.WriteString("\n")

	if stats.Embedded > 0 {
		before := stats.InputBytes + stats.OriginalBytes
		fmt.Fprintf(&b, "Sizes: markdown + images %s (%s + %s), output %s",
			humanize.IBytes(uint64(max(before, 0))),
			humanize.IBytes(uint64(max(stats.InputBytes, 0))),
			humanize.IBytes(uint64(max(stats.OriginalBytes, 0))),
			humanize.IBytes(uint64(max(stats.OutputBytes, 0))),
		)
		if before > 0 {
			fmt.Fprintf(&b, " (%.0f%%)", float64(stats.OutputBytes)/float64(before)*100)
		}
		b.WriteString("\n")
	}

	if len(skipped) > 0 {
		b.WriteString("Not embedded, keep these resources:\n")
		for _, entry := range skipped {
			fmt.Fprintf(&b, "  line %d: %s [%s]", entry.Line, truncate(entry.Target, 120), entry.Status)
			if entry.Reason != "" {
				fmt.Fprintf(&b, " %s", entry.Reason)
			}
			b.WriteString("\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
