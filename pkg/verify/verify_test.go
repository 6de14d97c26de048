package verify

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fulmenhq/strapi-plugin/pkg/exports"
	"github.com/fulmenhq/strapi-plugin/pkg/logger"
	"github.com/fulmenhq/strapi-plugin/pkg/manifest"
)

type recordingReporter struct {
	events []string
}

func (r *recordingReporter) Running(task string)   { r.events = append(r.events, "running:"+task) }
func (r *recordingReporter) Succeeded(task string) { r.events = append(r.events, "ok:"+task) }
func (r *recordingReporter) Failed(task string)    { r.events = append(r.events, "fail:"+task) }

func writePlugin(t *testing.T, pkg string, files ...string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(pkg), 0o644))
	for _, f := range files {
		p := filepath.Join(dir, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("// built"), 0o644))
	}
	return dir
}

const validPlugin = `{
	"name": "todo-plugin",
	"exports": {
		"./strapi-admin": {
			"source": "./admin/src/index.js",
			"import": "./dist/admin/index.mjs",
			"require": "./dist/admin/index.js"
		},
		"./strapi-server": {
			"source": "./server/src/index.js",
			"import": "./dist/server/index.mjs",
			"require": "./dist/server/index.js"
		},
		"./package.json": "./package.json"
	}
}`

var validFiles = []string{
	"admin/src/index.js",
	"dist/admin/index.mjs",
	"dist/admin/index.js",
	"server/src/index.js",
	"dist/server/index.mjs",
	"dist/server/index.js",
}

func TestRun_ValidPlugin(t *testing.T) {
	dir := writePlugin(t, validPlugin, validFiles...)
	rep := &recordingReporter{}

	res, err := Run(context.Background(), Options{Dir: dir, Reporter: rep})
	require.NoError(t, err)
	assert.Equal(t, "todo-plugin", res.Manifest.Name)
	assert.Equal(t, dir, res.Document.Dir)
	assert.Equal(t, []string{
		"running:" + TaskManifest,
		"ok:" + TaskManifestDone,
		"running:" + TaskExportFiles,
		"ok:" + TaskExportFilesOK,
	}, rep.events)
}

func TestRun_FromSubdirectory(t *testing.T) {
	dir := writePlugin(t, validPlugin, validFiles...)

	_, err := Run(context.Background(), Options{Dir: filepath.Join(dir, "admin", "src")})
	assert.NoError(t, err)
}

func TestRun_MissingPrimaryExports(t *testing.T) {
	dir := writePlugin(t, `{"name":"p","exports":{"./package.json":"./package.json"}}`)
	rep := &recordingReporter{}

	_, err := Run(context.Background(), Options{Dir: dir, Reporter: rep})
	require.Error(t, err)
	assert.True(t, errors.Is(err, exports.ErrMissingPrimaryExport))
	assert.Equal(t, "You need to have either a strapi-admin or strapi-server export in your package.json", err.Error())
	assert.Equal(t, []string{"running:" + TaskManifest, "fail:" + TaskManifest}, rep.events)
}

func TestRun_BadOrdering(t *testing.T) {
	dir := writePlugin(t, `{
		"name": "p",
		"exports": {
			"./strapi-server": {
				"source": "./server/src/index.js",
				"import": "./dist/server/index.mjs",
				"require": "./dist/server/index.js",
				"types": "./dist/server/index.d.ts"
			}
		}
	}`)

	_, err := Run(context.Background(), Options{Dir: dir})
	require.Error(t, err)
	assert.True(t, errors.Is(err, exports.ErrOrderingViolation))
	assert.Contains(t, err.Error(), "the 'types' property should be the first property")
	assert.Contains(t, err.Error(), `exports["./strapi-server"]`)
}

func TestRun_MissingDistFiles(t *testing.T) {
	files := []string{
		"admin/src/index.js",
		"dist/admin/index.mjs",
		"dist/admin/index.js",
		"server/src/index.js",
		"dist/server/index.mjs",
	}
	dir := writePlugin(t, validPlugin, files...)
	rep := &recordingReporter{}

	var buf bytes.Buffer
	log := logger.New(logger.Config{Level: logger.InfoLevel}, &buf)

	_, err := Run(context.Background(), Options{Dir: dir, Reporter: rep, Logger: log})
	require.Error(t, err)
	assert.True(t, errors.Is(err, exports.ErrMissingExportFiles))
	assert.True(t, strings.HasPrefix(err.Error(), "Missing files for exports:"))
	assert.Contains(t, err.Error(), "./dist/server/index.js -> "+filepath.Join(dir, "dist", "server", "index.js"))

	assert.Equal(t, "fail:"+TaskExportFiles, rep.events[len(rep.events)-1])
	assert.Equal(t, 1, log.Errors())
}

func TestRun_SchemaViolation(t *testing.T) {
	dir := writePlugin(t, `{"exports":{"./strapi-admin":{"source":"./a.js"}}}`)

	_, err := Run(context.Background(), Options{Dir: dir})
	require.Error(t, err)
	assert.True(t, errors.Is(err, manifest.ErrSchemaViolation))
	assert.Equal(t, "'name' in 'package.json' is required as type 'string'", err.Error())
}

func TestRun_StopsAtFirstFailure(t *testing.T) {
	// Bad ordering and missing files together: ordering fails first and the
	// file check never runs.
	dir := writePlugin(t, `{
		"name": "p",
		"exports": {
			"./strapi-admin": {"source": "./a.js", "default": "./d.js", "require": "./r.js"}
		}
	}`)
	rep := &recordingReporter{}

	_, err := Run(context.Background(), Options{Dir: dir, Reporter: rep})
	require.Error(t, err)
	assert.True(t, errors.Is(err, exports.ErrOrderingViolation))
	assert.NotContains(t, rep.events, "running:"+TaskExportFiles)
}
