package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// inputFile is a discovered document. Rel is its path relative to the
// directory argument it was found under, or its base name.
type inputFile struct {
	Path string
	Rel  string
}

// fileJob is one document to process. An empty InputPath reads stdin; an
// empty OutputPath writes stdout.
type fileJob struct {
	InputPath  string
	OutputPath string
	HTMLPath   string
}

// discoverFiles expands arguments into documents: plain files are taken
// as given, glob patterns are expanded, and directories are walked for
// .md and .markdown files. Duplicates are dropped.
func discoverFiles(args []string) ([]inputFile, error) {
	var files []inputFile
	seen := make(map[string]bool)
	add := func(path, rel string) {
		key := filepath.Clean(path)
		if seen[key] {
			return
		}
		seen[key] = true
		files = append(files, inputFile{Path: path, Rel: rel})
	}

	for _, arg := range args {
		paths := []string{arg}
		if isGlob(arg) {
			matches, err := filepath.Glob(arg)
			if err != nil {
				return nil, fmt.Errorf("pattern %q: %w", arg, err)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("pattern %q matches no files", arg)
			}
			paths = matches
		}

		for _, path := range paths {
			info, err := os.Stat(path)
			if err != nil {
				return nil, err
			}
			if !info.IsDir() {
				add(path, filepath.Base(path))
				continue
			}
			if err := walkMarkdown(path, add); err != nil {
				return nil, err
			}
		}
	}
	return files, nil
}

// walkMarkdown calls add for every Markdown file under dir.
func walkMarkdown(dir string, add func(path, rel string)) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}
		if d.IsDir() || !isMarkdown(path) {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = filepath.Base(path)
		}
		add(path, rel)
		return nil
	})
}

func isGlob(s string) bool {
	return strings.ContainsAny(s, "*?[")
}

func isMarkdown(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".md" || ext == ".markdown"
}

// planJobs decides where each document and preview is written.
//
//	one input, no -o         stdout
//	one input, -o file       that file (a directory gets the input's name)
//	--in-place               the input itself
//	several inputs, -o dir   dir/<relative path>
func planJobs(files []inputFile, f ioFlags) ([]fileJob, error) {
	if f.inPlace && f.output != "" {
		return nil, fmt.Errorf("%w: --in-place and --output are mutually exclusive", ErrUsage)
	}
	multi := len(files) > 1
	if multi && !f.inPlace && f.output == "" {
		return nil, fmt.Errorf("%w: several inputs need --in-place or --output <dir>", ErrUsage)
	}

	jobs := make([]fileJob, len(files))
	outputs := make(map[string]string)
	for i, file := range files {
		job := fileJob{InputPath: file.Path}

		switch {
		case f.inPlace:
			job.OutputPath = file.Path
		case f.output != "" && (multi || isDir(f.output)):
			job.OutputPath = filepath.Join(f.output, file.Rel)
		default:
			job.OutputPath = f.output
		}

		if f.html != "" {
			job.HTMLPath = f.html
			if multi || isDir(f.html) {
				job.HTMLPath = filepath.Join(f.html, strings.TrimSuffix(file.Rel, filepath.Ext(file.Rel))+".html")
			}
		}

		if job.OutputPath != "" {
			key := filepath.Clean(job.OutputPath)
			if prev, ok := outputs[key]; ok {
				return nil, fmt.Errorf("%w: %s and %s would both be written to %s", ErrUsage, prev, file.Path, job.OutputPath)
			}
			outputs[key] = file.Path
		}
		jobs[i] = job
	}
	return jobs, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
