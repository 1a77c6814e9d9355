// Package fileutil provides file and path helpers shared by the library
// and the CLI.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// BackupSuffix is appended to a file name by Backup.
const BackupSuffix = ".bak"

// ErrNotRegularFile indicates a path that exists but is not a regular file.
var ErrNotRegularFile = errors.New("not a regular file")

// WriteFileAtomic writes data to a temporary file next to path and renames
// it over path, so readers never see a partial document.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".mdembed-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tmpPath := tmpFile.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// Backup copies path to path+BackupSuffix, replacing an older backup.
// Returns the backup path.
func Backup(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s", ErrNotRegularFile, path)
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path is the user's input file
	if err != nil {
		return "", err
	}
	backup := path + BackupSuffix
	if err := WriteFileAtomic(backup, data, info.Mode().Perm()); err != nil {
		return "", fmt.Errorf("writing backup: %w", err)
	}
	return backup, nil
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// IsFilePath returns true if the string looks like a file path rather than
// a name: it contains a path separator.
//
//   - "plain" -> false (name)
//   - "./custom.css" -> true
//   - "C:\styles\a.css" -> true
func IsFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// IsCSS returns true if the string looks like CSS content rather than a
// name or path.
func IsCSS(s string) bool {
	return strings.Contains(s, "{")
}
