package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fulmenhq/strapi-plugin/pkg/logger"
	"github.com/fulmenhq/strapi-plugin/pkg/safeio"
)

// Document is a package.json as read from disk, before validation.
type Document struct {
	// Path is the absolute path of the manifest file.
	Path string
	// Dir is the directory holding the manifest; export paths resolve here.
	Dir  string
	Root *Object
}

// FindUp returns the path of the nearest package.json at or above dir.
func FindUp(dir string) (string, error) {
	start, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}

	current := start
	for {
		candidate := filepath.Join(current, FileName)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", &NotFoundError{Dir: start}
		}
		current = parent
	}
}

// Load finds and parses the nearest package.json. Nothing is cached; every
// call reads the file again.
func Load(dir string, log Logger) (*Document, error) {
	path, err := FindUp(dir)
	if err != nil {
		return nil, err
	}

	manifestDir := filepath.Dir(path)
	data, err := safeio.ReadFileContained(manifestDir, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	root, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	log.Debug("Loaded package.json", logger.String("path", path), logger.Int("keys", root.Len()))

	return &Document{Path: path, Dir: manifestDir, Root: root}, nil
}
