package exports

import (
	"context"
	"errors"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/fulmenhq/strapi-plugin/pkg/manifest"
	"github.com/fulmenhq/strapi-plugin/pkg/safeio"
)

// ErrMissingExportFiles matches *MissingFilesError.
var ErrMissingExportFiles = errors.New("missing export files")

// Reference is one file path declared by an export entry.
type Reference struct {
	ExportPath string
	// Field is the dotted key the path came from, e.g. "node.import".
	Field string
	Path  string
}

// MissingFile is a Reference that does not exist on disk.
type MissingFile struct {
	Reference
	Resolved string
}

// MissingFilesError lists every missing file in traversal order.
type MissingFilesError struct {
	Files []MissingFile
}

func (e *MissingFilesError) Error() string {
	lines := make([]string, 0, len(e.Files)+1)
	lines = append(lines, "Missing files for exports:")
	for _, f := range e.Files {
		lines = append(lines, "    "+f.Path+" -> "+f.Resolved)
	}
	return strings.Join(lines, "\n")
}

func (e *MissingFilesError) Is(target error) bool {
	return target == ErrMissingExportFiles
}

// CheckOptions tunes CheckFiles.
type CheckOptions struct {
	// Concurrency bounds the parallel stat calls. Zero means GOMAXPROCS.
	Concurrency int
}

// References lists every non-empty path of every object-valued entry in
// export-map order, then field order: source, types, require, import,
// module, default, browser.{source,import,require},
// node.{source,import,require,module}.
func References(exports *manifest.ExportMap) []Reference {
	var refs []Reference
	for _, entry := range exports.Entries() {
		if entry.IsLiteral() {
			continue
		}
		exp := entry.Export
		add := func(field, path string) {
			if path != "" {
				refs = append(refs, Reference{ExportPath: entry.Path, Field: field, Path: path})
			}
		}

		add("source", exp.Source)
		add("types", exp.Types)
		add("require", exp.Require)
		add("import", exp.Import)
		add("module", exp.Module)
		add("default", exp.Default)
		if b := exp.Browser; b != nil {
			add("browser.source", b.Source)
			add("browser.import", b.Import)
			add("browser.require", b.Require)
		}
		if n := exp.Node; n != nil {
			add("node.source", n.Source)
			add("node.import", n.Import)
			add("node.require", n.Require)
			add("node.module", n.Module)
		}
	}
	return refs
}

// Missing stats every reference against baseDir concurrently and returns the
// missing ones in traversal order regardless of completion order.
func Missing(ctx context.Context, exports *manifest.ExportMap, baseDir string, opts CheckOptions) ([]MissingFile, error) {
	refs := References(exports)
	found := make([]bool, len(refs))
	resolved := make([]string, len(refs))

	limit := opts.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, ref := range refs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			resolved[i] = safeio.Resolve(baseDir, ref.Path)
			found[i] = safeio.PathExists(resolved[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var missing []MissingFile
	for i, ref := range refs {
		if !found[i] {
			missing = append(missing, MissingFile{Reference: ref, Resolved: resolved[i]})
		}
	}
	return missing, nil
}

// CheckFiles fails with *MissingFilesError when any referenced file is
// absent.
func CheckFiles(ctx context.Context, exports *manifest.ExportMap, baseDir string, opts CheckOptions) error {
	missing, err := Missing(ctx, exports, baseDir, opts)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return &MissingFilesError{Files: missing}
	}
	return nil
}
