package assets

import (
	"fmt"
	"strings"
)

// Built-in asset names.
const (
	DefaultStyleName    = "default"
	PlainStyleName      = "plain"
	SummaryTemplateName = "summary"
)

// AssetLoader loads preview styles and templates by name.
type AssetLoader interface {
	// LoadStyle loads a CSS style by name (without .css extension).
	// Returns ErrStyleNotFound if the style doesn't exist.
	LoadStyle(name string) (string, error)

	// LoadTemplate loads an HTML template by name (without .html extension).
	// Returns ErrTemplateNotFound if the template doesn't exist.
	LoadTemplate(name string) (string, error)
}

// kind describes where one type of asset lives and how a miss is reported.
type kind struct {
	dir      string
	ext      string
	notFound error
}

var (
	styleKind    = kind{dir: "styles", ext: ".css", notFound: ErrStyleNotFound}
	templateKind = kind{dir: "templates", ext: ".html", notFound: ErrTemplateNotFound}
)

func (k kind) file(name string) string {
	return k.dir + "/" + name + k.ext
}

// ValidateAssetName checks that an asset name is safe for use as a filename.
// Path separators and dots are rejected, which also rules out traversal.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if strings.ContainsAny(name, "/\\.") {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}
