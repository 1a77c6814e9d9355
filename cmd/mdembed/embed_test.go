package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"testing"

	mdembed "github.com/alnah/go-mdembed"
	"github.com/alnah/go-mdembed/internal/config"
)

// ---------------------------------------------------------------------------
// TestMergeFlags - CLI flag precedence
// ---------------------------------------------------------------------------

func TestMergeFlags(t *testing.T) {
	t.Parallel()

	t.Run("zero flags keep config values", func(t *testing.T) {
		t.Parallel()

		cfg := &config.Config{Embed: config.EmbedConfig{Quality: 3, Timeout: "10s", KeepTypes: []string{"image/gif"}}}
		if err := mergeFlags(&embedFlags{}, cfg); err != nil {
			t.Fatalf("mergeFlags() error = %v", err)
		}
		if cfg.Embed.Quality != 3 || cfg.Embed.Timeout != "10s" || len(cfg.Embed.KeepTypes) != 1 {
			t.Errorf("config changed: %+v", cfg.Embed)
		}
	})

	t.Run("flags override config", func(t *testing.T) {
		t.Parallel()

		cfg := &config.Config{Embed: config.EmbedConfig{Quality: 3, KeepTypes: []string{"image/gif"}}}
		flags := &embedFlags{
			image: imageFlags{quality: 7, yarle: true, maxSizeMB: 2, basePath: "/img", timeout: "5s", workers: 4, keepTypes: []string{"image/png"}},
			io:    ioFlags{style: "plain"},
		}
		if err := mergeFlags(flags, cfg); err != nil {
			t.Fatalf("mergeFlags() error = %v", err)
		}

		e := cfg.Embed
		if e.Quality != 7 || !e.Yarle || e.MaxSizeMB != 2 || e.BasePath != "/img" || e.Timeout != "5s" || e.Workers != 4 {
			t.Errorf("Embed = %+v", e)
		}
		if !slices.Equal(e.KeepTypes, []string{"image/gif", "image/png"}) {
			t.Errorf("KeepTypes = %v, want config and flag values", e.KeepTypes)
		}
		if cfg.Preview.Style != "plain" {
			t.Errorf("Preview.Style = %q", cfg.Preview.Style)
		}
	})
}

func TestMergeFlags_ExplicitZero(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"quality zero", []string{"-q", "0"}, mdembed.ErrInvalidQualityScale},
		{"max size zero", []string{"--max-size", "0"}, mdembed.ErrInvalidMaxSize},
		{"unset flags", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			flags, _, err := parseEmbedFlags(tt.args, io.Discard)
			if err != nil {
				t.Fatalf("parseEmbedFlags() error = %v", err)
			}
			err = mergeFlags(flags, config.DefaultConfig())
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("mergeFlags() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("mergeFlags() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestBuildOptions - config to library options
// ---------------------------------------------------------------------------

func TestBuildOptions(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.DiscardHandler)

	tests := []struct {
		name    string
		embed   config.EmbedConfig
		wantErr error
	}{
		{"defaults", config.EmbedConfig{}, nil},
		{"full", config.EmbedConfig{Quality: 2, MaxSizeMB: 1, Timeout: "3s", Workers: 2, Background: "#fff", UserAgent: "x"}, nil},
		{"bad timeout", config.EmbedConfig{Timeout: "later"}, ErrUsage},
		{"bad background", config.EmbedConfig{Background: "teal"}, ErrUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts, err := buildOptions(&config.Config{Embed: tt.embed}, logger)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("buildOptions() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("buildOptions() error = %v", err)
			}
			if _, err := mdembed.NewEmbedder(opts...); err != nil {
				t.Errorf("NewEmbedder() error = %v", err)
			}
		})
	}

	t.Run("range errors surface from NewEmbedder", func(t *testing.T) {
		t.Parallel()

		opts, err := buildOptions(&config.Config{Embed: config.EmbedConfig{Quality: 12}}, logger)
		if err != nil {
			t.Fatalf("buildOptions() error = %v", err)
		}
		_, err = mdembed.NewEmbedder(opts...)
		if !errors.Is(err, mdembed.ErrInvalidQualityScale) {
			t.Errorf("NewEmbedder() error = %v, want ErrInvalidQualityScale", err)
		}
		if !strings.Contains(withHint(err).Error(), "hint:") {
			t.Error("quality error has no hint")
		}
	})
}

// ---------------------------------------------------------------------------
// TestWithHint
// ---------------------------------------------------------------------------

func TestWithHint(t *testing.T) {
	t.Parallel()

	notFound := fmt.Errorf("%w: tried a.yaml, /home/u/.config/go-mdembed/a.yaml", config.ErrConfigNotFound)

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"style", mdembed.ErrStyleNotFound, "available: "},
		{"config", notFound, "or create /home/u/.config/go-mdembed/a.yaml"},
		{"other", io.EOF, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := withHint(tt.err)
			if !errors.Is(got, tt.err) {
				t.Errorf("withHint() lost the wrapped error")
			}
			if tt.want == "" {
				if got != tt.err {
					t.Errorf("withHint() = %v, want unchanged", got)
				}
				return
			}
			if !strings.Contains(got.Error(), tt.want) {
				t.Errorf("withHint() = %q, want substring %q", got, tt.want)
			}
		})
	}
}
