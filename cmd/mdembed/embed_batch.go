package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	mdembed "github.com/alnah/go-mdembed"
	"github.com/alnah/go-mdembed/internal/fileutil"
	"github.com/alnah/go-mdembed/internal/hints"
)

// fileResult holds the outcome of a single document.
type fileResult struct {
	InputPath  string // empty for stdin
	OutputPath string // empty for stdout
	HTMLPath   string
	Result     *mdembed.Result
	Err        error
	Duration   time.Duration
}

// embedBatch processes jobs concurrently with at most poolSize documents
// in flight. Results keep the order of jobs.
func embedBatch(ctx context.Context, emb Embedder, jobs []fileJob, poolSize int, params *runParams, stdin io.Reader) []fileResult {
	if len(jobs) == 0 {
		return nil
	}

	concurrency := min(poolSize, len(jobs))
	results := make([]fileResult, len(jobs))
	var wg sync.WaitGroup
	queue := make(chan int, len(jobs))

	for range concurrency {
		wg.Go(func() {
			for idx := range queue {
				if ctx.Err() != nil {
					results[idx] = fileResult{InputPath: jobs[idx].InputPath, Err: ctx.Err()}
					continue
				}
				results[idx] = embedFile(ctx, emb, jobs[idx], params, stdin)
			}
		})
	}

	for i := range jobs {
		queue <- i
	}
	close(queue)

	wg.Wait()
	return results
}

// embedFile processes a single document and returns the result.
func embedFile(ctx context.Context, emb Embedder, job fileJob, params *runParams, stdin io.Reader) fileResult {
	start := time.Now()
	result := fileResult{InputPath: job.InputPath, OutputPath: job.OutputPath, HTMLPath: job.HTMLPath}
	done := func(err error) fileResult {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	content, err := readInput(job.InputPath, stdin)
	if err != nil {
		return done(err)
	}

	basePath := params.basePath
	if basePath == "" && job.InputPath != "" {
		basePath = filepath.Dir(job.InputPath)
	}

	res, err := emb.Embed(ctx, mdembed.Input{Markdown: content, BasePath: basePath})
	if err != nil {
		return done(err)
	}
	result.Result = res

	if err := writeOutput(job, res.Markdown, content, params); err != nil {
		return done(err)
	}

	if job.HTMLPath != "" {
		page, err := emb.Preview(ctx, mdembed.PreviewInput{
			Markdown:  res.Markdown,
			Title:     documentTitle(job.InputPath),
			SourceDir: basePath,
			Result:    res,
		})
		if err != nil {
			return done(fmt.Errorf("rendering preview: %w", withHint(err)))
		}
		if err := writeFile(job.HTMLPath, page, false); err != nil {
			return done(err)
		}
	}

	return done(nil)
}

// readInput reads a document from path, or from stdin when path is empty.
func readInput(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path) // #nosec G304 -- user-provided path
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v%s", mdembed.ErrInputUnavailable, err, hints.ForInputNotFound())
	}
	return string(data), nil
}

// writeOutput writes the rewritten document. An in-place rewrite that
// changes nothing leaves the file untouched.
func writeOutput(job fileJob, output, input string, params *runParams) error {
	if job.OutputPath == "" {
		if _, err := io.WriteString(params.stdout, output); err != nil {
			return fmt.Errorf("%w: stdout: %v", mdembed.ErrOutputUnwritable, err)
		}
		return nil
	}
	if job.OutputPath == job.InputPath && output == input {
		return nil
	}
	return writeFile(job.OutputPath, []byte(output), params.backup)
}

// writeFile atomically replaces path, creating parent directories and
// keeping a .bak copy of an existing file when backup is set.
func writeFile(path string, data []byte, backup bool) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
		return fmt.Errorf("%w: creating output directory: %v%s", mdembed.ErrOutputUnwritable, err, hints.ForOutputDirectory())
	}
	if backup && fileutil.FileExists(path) {
		if _, err := fileutil.Backup(path); err != nil {
			return fmt.Errorf("%w: %v", mdembed.ErrOutputUnwritable, err)
		}
	}
	if err := fileutil.WriteFileAtomic(path, data, filePermissions); err != nil {
		return fmt.Errorf("%w: %v", mdembed.ErrOutputUnwritable, err)
	}
	return nil
}

// documentTitle names a preview after its file.
func documentTitle(path string) string {
	if path == "" {
		return ""
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// resultSummary holds the count of succeeded and failed documents.
type resultSummary struct {
	succeeded int
	failed    int
	firstErr  error
}

// countResults tallies succeeded and failed documents.
func countResults(results []fileResult) resultSummary {
	var summary resultSummary
	for _, r := range results {
		if r.Err != nil {
			summary.failed++
			if summary.firstErr == nil {
				summary.firstErr = r.Err
			}
		} else {
			summary.succeeded++
		}
	}
	return summary
}

// printResults writes per-document summaries to stderr and returns an
// error when any document failed.
func printResults(results []fileResult, lf logFlags, yarle bool, env *Environment) error {
	summary := countResults(results)
	multi := len(results) > 1

	var totals mdembed.Stats
	var skipped []mdembed.LogEntry
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", displayName(r.InputPath), r.Err)
			continue
		}
		totals.Add(r.Result.Stats)
		skipped = append(skipped, r.Result.Skipped()...)

		if lf.quiet {
			continue
		}
		if multi {
			fmt.Fprintf(env.Stderr, "%s -> %s: %d of %d embedded", r.InputPath, r.OutputPath, r.Result.Stats.Embedded, r.Result.Stats.Images)
			if lf.verbose || lf.debug {
				fmt.Fprintf(env.Stderr, " (%v)", r.Duration.Round(time.Millisecond))
			}
			fmt.Fprintln(env.Stderr)
			continue
		}
		_ = mdembed.WriteSummary(env.Stderr, r.Result.Stats, r.Result.Skipped())
	}

	if !lf.quiet {
		if multi {
			fmt.Fprintln(env.Stderr)
			_ = mdembed.WriteSummary(env.Stderr, totals, nil)
			fmt.Fprintf(env.Stderr, "%d succeeded, %d failed\n", summary.succeeded, summary.failed)
		}
		printStatusHints(env.Stderr, skipped, yarle)
	}

	if summary.failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed: %w", summary.failed, len(results), summary.firstErr)
	}
	return nil
}

// printStatusHints prints one hint per distinct failure status.
func printStatusHints(w io.Writer, skipped []mdembed.LogEntry, yarle bool) {
	seen := make(map[mdembed.Status]bool)
	for _, entry := range skipped {
		if seen[entry.Status] {
			continue
		}
		seen[entry.Status] = true
		if hint := hints.ForStatus(string(entry.Status), yarle); hint != "" {
			fmt.Fprintf(w, "%s:%s\n", entry.Status, hint)
		}
	}
}

func displayName(path string) string {
	if path == "" {
		return "<stdin>"
	}
	return path
}
