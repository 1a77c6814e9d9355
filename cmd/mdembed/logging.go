package main

import (
	"io"
	"log/slog"
)

// newLogger returns a text logger on w. Per-image failures log at warn,
// embedded images at info, already embedded ones at debug.
func newLogger(w io.Writer, f logFlags) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case f.debug:
		level = slog.LevelDebug
	case f.verbose:
		level = slog.LevelInfo
	case f.quiet:
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
