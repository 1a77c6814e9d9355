// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-mdembed/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForDownloadFailed returns hints for remote images that could not be fetched.
// In CI or containers, egress usually goes through a proxy.
func ForDownloadFailed() string {
	hints := []string{"slow servers need a higher --timeout"}

	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""
	noProxy := os.Getenv("HTTPS_PROXY") == "" && os.Getenv("https_proxy") == ""

	if (inCI || IsInContainer()) && noProxy {
		hints = append(hints, "set HTTPS_PROXY if outbound traffic is restricted")
	}
	return formatHints(hints)
}

// ForNotFound returns hints for local images that could not be found.
// yarle reports whether size annotations were enabled for the run.
func ForNotFound(yarle bool) string {
	hints := []string{"use -p/--path to set the directory images are resolved against"}
	if !yarle {
		hints = append(hints, "for Evernote (Yarle) exports try -y")
	}
	return formatHints(hints)
}

// ForTooLarge returns a hint about raising the size limit.
func ForTooLarge() string {
	return format("raise the limit with -m/--max-size (megabytes)")
}

// ForStatus returns the hint matching a per-image status name, or "".
func ForStatus(status string, yarle bool) string {
	switch status {
	case "notFound":
		return ForNotFound(yarle)
	case "downloadFailed":
		return ForDownloadFailed()
	case "tooLarge":
		return ForTooLarge()
	case "decodeFailed":
		return format("keep the original bytes with --keep-type <media type>")
	default:
		return ""
	}
}

// ForInputNotFound returns a hint for unreadable input files.
func ForInputNotFound() string {
	return format("omit the file argument to read Markdown from stdin")
}

// ForQualityScale returns the valid range of the quality knob.
func ForQualityScale() string {
	return format("use -q 1 (best quality) to -q 9 (smallest output)")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config and, when searched, the user config location.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"
	for _, p := range searchedPaths {
		if strings.Contains(p, ".config/go-mdembed") {
			hint += " or create " + p
			break
		}
	}
	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForStyleNotFound returns hints for style not found errors.
func ForStyleNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
