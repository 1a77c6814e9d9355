package main

import (
	"errors"
	"os"

	mdembed "github.com/alnah/go-mdembed"
	"github.com/alnah/go-mdembed/internal/config"
)

// Exit codes for the mdembed CLI.
// Images that cannot be embedded are not failures: a run that leaves some
// references unchanged still exits 0.
const (
	ExitSuccess = 0 // Successful run
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // Input unreadable, output unwritable
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// I/O errors (exit 3)
	if errors.Is(err, mdembed.ErrInputUnavailable) ||
		errors.Is(err, mdembed.ErrOutputUnwritable) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrOutputExists) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidField) ||
		errors.Is(err, mdembed.ErrInvalidQualityScale) ||
		errors.Is(err, mdembed.ErrInvalidMaxSize) ||
		errors.Is(err, mdembed.ErrInvalidWorkers) ||
		errors.Is(err, mdembed.ErrInvalidQualityTable) ||
		errors.Is(err, mdembed.ErrStyleNotFound) ||
		errors.Is(err, mdembed.ErrInvalidAssetPath) {
		return ExitUsage
	}

	return ExitGeneral
}
