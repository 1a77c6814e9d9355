package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alnah/go-mdembed/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string  // MDEMBED_CONFIG: config file name or path
	Quality    int     // MDEMBED_QUALITY: 1-9
	MaxSizeMB  float64 // MDEMBED_MAX_SIZE: megabytes
	Path       string  // MDEMBED_PATH: base path for relative images
	Timeout    string  // MDEMBED_TIMEOUT: download timeout
	Workers    int     // MDEMBED_WORKERS: images in parallel
	Yarle      *bool   // MDEMBED_YARLE: true/false
}

// knownEnvVars lists valid MDEMBED_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"MDEMBED_CONFIG":   true,
	"MDEMBED_QUALITY":  true,
	"MDEMBED_MAX_SIZE": true,
	"MDEMBED_PATH":     true,
	"MDEMBED_TIMEOUT":  true,
	"MDEMBED_WORKERS":  true,
	"MDEMBED_YARLE":    true,
}

// loadEnvConfig reads configuration from environment variables. Values
// that do not parse are reported as errors rather than ignored, so a typo
// in CI does not silently change the output.
func loadEnvConfig() (*envConfig, error) {
	cfg := &envConfig{
		ConfigPath: os.Getenv("MDEMBED_CONFIG"),
		Path:       os.Getenv("MDEMBED_PATH"),
		Timeout:    os.Getenv("MDEMBED_TIMEOUT"),
	}

	if v := os.Getenv("MDEMBED_QUALITY"); v != "" {
		q, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%w: MDEMBED_QUALITY=%q is not an integer", ErrUsage, v)
		}
		cfg.Quality = q
	}
	if v := os.Getenv("MDEMBED_MAX_SIZE"); v != "" {
		mb, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: MDEMBED_MAX_SIZE=%q is not a number", ErrUsage, v)
		}
		cfg.MaxSizeMB = mb
	}
	if v := os.Getenv("MDEMBED_WORKERS"); v != "" {
		w, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%w: MDEMBED_WORKERS=%q is not an integer", ErrUsage, v)
		}
		cfg.Workers = w
	}
	if v := os.Getenv("MDEMBED_YARLE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%w: MDEMBED_YARLE=%q is not a boolean", ErrUsage, v)
		}
		cfg.Yarle = &b
	}

	return cfg, nil
}

// warnUnknownEnvVars logs warnings for unrecognized MDEMBED_* variables.
// Helps catch typos like MDEMBED_QUALTY.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "MDEMBED_") {
			name, _, _ := strings.Cut(env, "=")
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig overrides config file values with the environment.
// CLI flags are applied afterwards by mergeFlags, giving the precedence
// flags > env vars > config file > defaults.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Quality != 0 {
		cfg.Embed.Quality = env.Quality
	}
	if env.MaxSizeMB != 0 {
		cfg.Embed.MaxSizeMB = env.MaxSizeMB
	}
	if env.Path != "" {
		cfg.Embed.BasePath = env.Path
	}
	if env.Timeout != "" {
		cfg.Embed.Timeout = env.Timeout
	}
	if env.Workers != 0 {
		cfg.Embed.Workers = env.Workers
	}
	if env.Yarle != nil {
		cfg.Embed.Yarle = *env.Yarle
	}
}
