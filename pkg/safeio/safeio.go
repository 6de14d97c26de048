package safeio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideBase is returned when a path escapes its base directory.
var ErrOutsideBase = errors.New("path is outside base directory")

// Resolve joins p onto baseDir the way a module resolver would: absolute
// paths are kept, relative paths (including "./x") are anchored at baseDir.
// The result is cleaned and absolute when baseDir is absolute.
func Resolve(baseDir, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(baseDir, filepath.FromSlash(p))
}

// Contained resolves p against baseDir and rejects results that land outside
// baseDir. baseDir itself is considered contained.
func Contained(baseDir, p string) (string, error) {
	baseDirAbs, err := filepath.Abs(baseDir)
	if err != nil {
		return "", errors.New("failed to resolve base directory")
	}
	target := Resolve(baseDirAbs, p)

	rel, err := filepath.Rel(baseDirAbs, target)
	if err != nil {
		return "", errors.New("failed to compute relative path")
	}
	if strings.HasPrefix(rel, ".."+string(filepath.Separator)) || rel == ".." {
		return "", fmt.Errorf("%s: %w", p, ErrOutsideBase)
	}
	return target, nil
}

// ReadFileContained reads a file only if it is contained within baseDir.
func ReadFileContained(baseDir, filePath string) ([]byte, error) {
	target, err := Contained(baseDir, filePath)
	if err != nil {
		return nil, err
	}
	// #nosec G304 -- target has been verified to be contained within baseDir
	return os.ReadFile(target)
}

// PathExists reports whether p can be stat'ed. Permission and other stat
// failures count as absent, matching an access() check.
func PathExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// RemoveDirContained deletes dir and everything below it. The directory must
// be strictly inside baseDir; removing baseDir itself is refused.
func RemoveDirContained(baseDir, dir string) error {
	target, err := Contained(baseDir, dir)
	if err != nil {
		return err
	}
	baseDirAbs, _ := filepath.Abs(baseDir)
	if target == baseDirAbs {
		return fmt.Errorf("refusing to remove project root %s", baseDirAbs)
	}
	return os.RemoveAll(target)
}
