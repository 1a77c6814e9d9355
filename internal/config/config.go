package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-mdembed/internal/fileutil"
	"github.com/alnah/go-mdembed/internal/recompress"
	"github.com/alnah/go-mdembed/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidField    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxPathLength      = 4096
	MaxUserAgentLength = 256
	MaxMediaTypeLength = 100 // "image/vnd.microsoft.icon"
	MaxColorLength     = 20  // "#ffffff" or "white"
	MaxDurationLength  = 20  // "1m30s"
	MaxKeepTypes       = 20
	MaxTiers           = 32
)

// AppName names the user config directory: ~/.config/go-mdembed/.
const AppName = "go-mdembed"

// Config holds the settings of the mdembed CLI.
// Zero values mean "use the library default".
type Config struct {
	Embed   EmbedConfig   `yaml:"embed"`
	Quality QualityConfig `yaml:"quality"`
	Preview PreviewConfig `yaml:"preview"`
}

// EmbedConfig mirrors the embedding flags.
type EmbedConfig struct {
	Quality    int      `yaml:"quality"`   // 1-9, 0 = default (5)
	Yarle      bool     `yaml:"yarle"`     // size annotations on standard images
	MaxSizeMB  float64  `yaml:"maxSizeMB"` // 0 = default (10)
	BasePath   string   `yaml:"basePath"`  // empty = directory of the input file
	LinkRemote bool     `yaml:"linkRemote"`
	Timeout    string   `yaml:"timeout"` // Go duration, e.g. "45s"
	Workers    int      `yaml:"workers"` // 0 = default (1)
	KeepTypes  []string `yaml:"keepTypes"`
	Background string   `yaml:"background"` // "#rrggbb", "#rgb", "white" or "black"
	UserAgent  string   `yaml:"userAgent"`
}

// QualityConfig replaces the built-in quality table when Tiers is set.
type QualityConfig struct {
	Tiers []recompress.Tier `yaml:"tiers"`
}

// PreviewConfig configures HTML previews.
type PreviewConfig struct {
	Style     string `yaml:"style"`     // built-in name, CSS file path, or empty
	AssetPath string `yaml:"assetPath"` // custom styles/ and templates/
}

// Validate checks ranges and field lengths. Called by LoadConfig; available
// to callers that build a Config themselves.
func (c *Config) Validate() error {
	e := c.Embed

	if e.Quality != 0 && (e.Quality < recompress.MinScale || e.Quality > recompress.MaxScale) {
		return fmt.Errorf("%w: embed.quality must be between %d and %d, got %d",
			ErrInvalidField, recompress.MinScale, recompress.MaxScale, e.Quality)
	}
	if e.MaxSizeMB < 0 {
		return fmt.Errorf("%w: embed.maxSizeMB must not be negative, got %g", ErrInvalidField, e.MaxSizeMB)
	}
	if e.Workers < 0 {
		return fmt.Errorf("%w: embed.workers must not be negative, got %d", ErrInvalidField, e.Workers)
	}

	if err := validateFieldLength("embed.basePath", e.BasePath, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("embed.userAgent", e.UserAgent, MaxUserAgentLength); err != nil {
		return err
	}

	if err := validateFieldLength("embed.timeout", e.Timeout, MaxDurationLength); err != nil {
		return err
	}
	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}

	if err := validateFieldLength("embed.background", e.Background, MaxColorLength); err != nil {
		return err
	}
	if e.Background != "" {
		if _, err := ParseColor(e.Background); err != nil {
			return fmt.Errorf("%w: embed.background: %v", ErrInvalidField, err)
		}
	}

	if len(e.KeepTypes) > MaxKeepTypes {
		return fmt.Errorf("%w: embed.keepTypes has %d entries, max %d", ErrInvalidField, len(e.KeepTypes), MaxKeepTypes)
	}
	for i, mt := range e.KeepTypes {
		field := fmt.Sprintf("embed.keepTypes[%d]", i)
		if err := validateFieldLength(field, mt, MaxMediaTypeLength); err != nil {
			return err
		}
		if !strings.HasPrefix(strings.ToLower(mt), "image/") {
			return fmt.Errorf("%w: %s must be an image media type, got %q", ErrInvalidField, field, mt)
		}
	}

	if len(c.Quality.Tiers) > MaxTiers {
		return fmt.Errorf("%w: quality.tiers has %d entries, max %d", ErrInvalidField, len(c.Quality.Tiers), MaxTiers)
	}
	if len(c.Quality.Tiers) > 0 {
		if err := recompress.Table(c.Quality.Tiers).Validate(); err != nil {
			return fmt.Errorf("quality.tiers: %w", err)
		}
	}

	if err := validateFieldLength("preview.style", c.Preview.Style, MaxPathLength); err != nil {
		return err
	}
	return validateFieldLength("preview.assetPath", c.Preview.AssetPath, MaxPathLength)
}

// TimeoutDuration parses Embed.Timeout. Returns 0 when unset.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	if c.Embed.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Embed.Timeout)
	if err != nil {
		return 0, fmt.Errorf("%w: embed.timeout: %v", ErrInvalidField, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: embed.timeout must be positive, got %s", ErrInvalidField, d)
	}
	return d, nil
}

// MaxSizeBytes converts Embed.MaxSizeMB to bytes. Returns 0 when unset.
func (c *Config) MaxSizeBytes() int64 {
	return int64(c.Embed.MaxSizeMB * (1 << 20))
}

// ParseColor parses "#rgb", "#rrggbb", "white" or "black".
func ParseColor(s string) (color.Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white":
		return color.White, nil
	case "black":
		return color.Black, nil
	}

	hex, ok := strings.CutPrefix(strings.TrimSpace(s), "#")
	if !ok || (len(hex) != 3 && len(hex) != 6) {
		return nil, fmt.Errorf("unsupported color %q (use #rrggbb, white or black)", s)
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("unsupported color %q: %v", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns a Config that defers every setting to the library.
func DefaultConfig() *Config {
	return &Config{}
}

// LoadConfig loads configuration from a file path or config name.
// A value containing a path separator is a file path; anything else is a
// name searched in the current directory, then ~/.config/go-mdembed/.
// A missing file is an error, never a silent fallback.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		if configPath, err = resolveConfigPath(nameOrPath); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolveConfigPath tries name.yaml and name.yml in the current directory,
// then in the user config directory.
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	dirs := []string{""}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(userConfigDir, AppName))
	}

	tried := make([]string, 0, len(dirs)*len(extensions))
	for _, dir := range dirs {
		for _, ext := range extensions {
			path := filepath.Join(dir, name+ext)
			if fileutil.FileExists(path) {
				return path, nil
			}
			tried = append(tried, path)
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}
