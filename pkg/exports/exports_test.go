package exports

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

	"github.com/fulmenhq/strapi-plugin/pkg/logger"
	"github.com/fulmenhq/strapi-plugin/pkg/manifest"
)

func mustManifest(t *testing.T, src string) *manifest.Manifest {
	t.Helper()
	raw, err := manifest.Decode([]byte(src))
	require.NoError(t, err)
	m, err := manifest.Validate(raw, logger.Nop())
	require.NoError(t, err)
	return m
}

func withExport(entry string) string {
	return `{"name": "p", "exports": {"./strapi-server": ` + entry + `}}`
}

func newTestLogger() (*logger.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return logger.New(logger.Config{Level: logger.WarnLevel}, &buf), &buf
}

func TestRequirePrimaryExport(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr bool
	}{
		{"admin only", `{"name":"p","exports":{"./strapi-admin":{"source":"./a.ts"}}}`, false},
		{"server only", `{"name":"p","exports":{"./strapi-server":{"source":"./s.ts"}}}`, false},
		{"package.json only", `{"name":"p","exports":{"./package.json":"./package.json"}}`, true},
		{"no exports", `{"name":"p","main":"./i.js","module":"./i.mjs"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RequirePrimaryExport(mustManifest(t, tt.src))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMissingPrimaryExport))
			assert.Equal(t, "You need to have either a strapi-admin or strapi-server export in your package.json", err.Error())
		})
	}
}

func TestValidateOrdering_HardRules(t *testing.T) {
	tests := []struct {
		name  string
		entry string
		rule  Rule
		text  string
	}{
		{
			name:  "types not first",
			entry: `{"source":"./s.ts","import":"./i.mjs","require":"./r.js","types":"./t.d.ts"}`,
			rule:  RuleTypesFirst,
			text:  "the 'types' property should be the first property",
		},
		{
			name:  "default not last",
			entry: `{"source":"./s.ts","default":"./r.js","require":"./r.js"}`,
			rule:  RuleDefaultLast,
			text:  "the 'default' property should be the last property",
		},
		{
			name:  "node module after node import",
			entry: `{"source":"./s.ts","node":{"import":"./n.mjs","module":"./m.mjs"}}`,
			rule:  RuleNodeModuleBeforeImport,
			text:  "the 'node.module' property should come before the 'node.import' property",
		},
		{
			name:  "node after import",
			entry: `{"source":"./s.ts","import":"./i.mjs","node":{"module":"./i.mjs","import":"./n.mjs"}}`,
			rule:  RuleNodeBeforeImport,
			text:  "the 'node' property should come before the 'import' property",
		},
		{
			name:  "node after module",
			entry: `{"source":"./s.ts","module":"./m.mjs","node":{"module":"./m.mjs"}}`,
			rule:  RuleNodeBeforeModule,
			text:  "the 'node' property should come before the 'module' property",
		},
		{
			name:  "node module differs from import",
			entry: `{"source":"./s.ts","node":{"module":"./other.mjs","import":"./n.mjs"},"import":"./i.mjs"}`,
			rule:  RuleNodeModuleMatchesImport,
			text:  "the 'node.module' property should match 'import'",
		},
		{
			name:  "node require redundant",
			entry: `{"source":"./s.ts","node":{"require":"./r.js"},"require":"./r.js"}`,
			rule:  RuleNodeRequireRedundant,
			text:  "the 'node.require' property isn't necessary as it's identical to 'require'",
		},
		{
			name:  "node after require",
			entry: `{"source":"./s.ts","require":"./r.js","node":{"require":"./n.js"}}`,
			rule:  RuleNodeBeforeRequire,
			text:  "the 'node' property should come before the 'require' property",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateOrdering(mustManifest(t, withExport(tt.entry)), logger.Nop())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrOrderingViolation))

			var ov *OrderingViolation
			require.True(t, errors.As(err, &ov))
			assert.Equal(t, tt.rule, ov.Rule)
			assert.Equal(t, "./strapi-server", ov.ExportPath)
			assert.Equal(t, `exports["./strapi-server"]: `+tt.text, err.Error())
		})
	}
}

func TestValidateOrdering_SoftRules(t *testing.T) {
	tests := []struct {
		name  string
		entry string
		warn  string
	}{
		{
			name:  "require before import",
			entry: `{"source":"./s.ts","require":"./r.js","import":"./i.mjs"}`,
			warn:  "the 'import' property should come before the 'require' property",
		},
		{
			name:  "import before module",
			entry: `{"source":"./s.ts","import":"./i.mjs","module":"./m.mjs"}`,
			warn:  "the 'module' property should come before 'import' property",
		},
		{
			name:  "node require before node import",
			entry: `{"source":"./s.ts","node":{"module":"./m.mjs","require":"./n.js","import":"./n.mjs"}}`,
			warn:  "the 'node.import' property should come before the 'node.require' property",
		},
		{
			name:  "node require before node module",
			entry: `{"source":"./s.ts","node":{"require":"./n.js","module":"./m.mjs"}}`,
			warn:  "the 'node.module' property should come before 'node.require' property",
		},
		{
			name:  "node module missing",
			entry: `{"source":"./s.ts","node":{"import":"./n.mjs"},"import":"./i.mjs","require":"./r.js"}`,
			warn:  `Its value should be '"module": "./i.mjs"'`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, buf := newTestLogger()
			m := mustManifest(t, withExport(tt.entry))

			got, err := ValidateOrdering(m, log)
			require.NoError(t, err)
			assert.Same(t, m, got)
			assert.GreaterOrEqual(t, log.Warnings(), 1)
			assert.Contains(t, buf.String(), tt.warn)
		})
	}
}

func TestValidateOrdering_NodeModuleWarningThenRedundantRequire(t *testing.T) {
	log, buf := newTestLogger()
	m := mustManifest(t, withExport(`{"source":"./s.ts","node":{"import":"./n.mjs","require":"./r.js"},"import":"./i.mjs","require":"./r.js"}`))

	_, err := ValidateOrdering(m, log)
	require.Error(t, err)

	var ov *OrderingViolation
	require.True(t, errors.As(err, &ov))
	assert.Equal(t, RuleNodeRequireRedundant, ov.Rule)
	assert.Equal(t, 1, log.Warnings())
	assert.Contains(t, buf.String(), `Its value should be '"module": "./i.mjs"'`)
}

func TestValidateOrdering_Valid(t *testing.T) {
	m := mustManifest(t, `{
		"name": "p",
		"exports": {
			"./strapi-admin": {
				"types": "./dist/admin/src/index.d.ts",
				"source": "./admin/src/index.ts",
				"import": "./dist/admin/index.mjs",
				"require": "./dist/admin/index.js",
				"default": "./dist/admin/index.js"
			},
			"./strapi-server": {
				"types": "./dist/server/src/index.d.ts",
				"source": "./server/src/index.ts",
				"node": {"source": "./server/src/index.ts", "module": "./dist/server/index.mjs", "import": "./dist/server/index.mjs"},
				"import": "./dist/server/index.mjs",
				"require": "./dist/server/index.js",
				"default": "./dist/server/index.js"
			},
			"./package.json": "./package.json"
		}
	}`)
	log, _ := newTestLogger()

	got, err := ValidateOrdering(m, log)
	require.NoError(t, err)
	assert.Same(t, m, got)
	assert.Equal(t, 0, log.Warnings())
}

func TestValidateOrdering_FirstViolationWins(t *testing.T) {
	// types is misplaced and default is not last; types is checked first.
	m := mustManifest(t, withExport(`{"source":"./s.ts","default":"./d.js","types":"./t.d.ts","require":"./r.js"}`))

	_, err := ValidateOrdering(m, logger.Nop())
	var ov *OrderingViolation
	require.True(t, errors.As(err, &ov))
	assert.Equal(t, RuleTypesFirst, ov.Rule)
}

func TestValidateOrdering_Legacy(t *testing.T) {
	_, err := ValidateOrdering(mustManifest(t, `{"name":"p","main":"./i.js","module":"./i.mjs"}`), logger.Nop())
	assert.NoError(t, err)

	_, err = ValidateOrdering(mustManifest(t, `{"name":"p","main":"./i.js"}`), logger.Nop())
	require.Error(t, err)
	assert.Equal(t, "'package.json' must contain a 'main' and 'module' property", err.Error())

	var ov *OrderingViolation
	require.True(t, errors.As(err, &ov))
	assert.Equal(t, RuleLegacyMainModule, ov.Rule)
}

func touch(t *testing.T, base string, rel ...string) {
	t.Helper()
	for _, r := range rel {
		p := filepath.Join(base, filepath.FromSlash(r))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
}

const filesManifest = `{
	"name": "p",
	"exports": {
		"./strapi-admin": {
			"types": "./dist/admin/index.d.ts",
			"source": "./admin/src/index.ts",
			"browser": {"source": "./admin/src/browser.ts", "import": "./dist/admin/browser.mjs"},
			"import": "./dist/admin/index.mjs",
			"require": "./dist/admin/index.js",
			"default": "./dist/admin/index.js"
		},
		"./package.json": "./package.json",
		"./strapi-server": {
			"source": "./server/src/index.ts",
			"node": {"module": "./dist/server/node.mjs", "import": "./dist/server/node.mjs"},
			"import": "./dist/server/index.mjs",
			"require": "./dist/server/index.js"
		}
	}
}`

func TestReferences_Order(t *testing.T) {
	m := mustManifest(t, filesManifest)

	var got []string
	for _, r := range References(m.Exports) {
		got = append(got, r.ExportPath+" "+r.Field)
	}
	assert.Equal(t, []string{
		"./strapi-admin source",
		"./strapi-admin types",
		"./strapi-admin require",
		"./strapi-admin import",
		"./strapi-admin default",
		"./strapi-admin browser.source",
		"./strapi-admin browser.import",
		"./strapi-server source",
		"./strapi-server require",
		"./strapi-server import",
		"./strapi-server node.import",
		"./strapi-server node.module",
	}, got)
}

func TestCheckFiles_AllPresent(t *testing.T) {
	base := t.TempDir()
	m := mustManifest(t, filesManifest)
	for _, r := range References(m.Exports) {
		touch(t, base, r.Path)
	}

	assert.NoError(t, CheckFiles(context.Background(), m.Exports, base, CheckOptions{}))
}

func TestCheckFiles_Missing(t *testing.T) {
	base := t.TempDir()
	m := mustManifest(t, filesManifest)
	touch(t, base,
		"admin/src/index.ts",
		"admin/src/browser.ts",
		"dist/admin/index.mjs",
		"dist/admin/index.js",
		"dist/admin/browser.mjs",
		"server/src/index.ts",
		"dist/server/index.mjs",
	)

	err := CheckFiles(context.Background(), m.Exports, base, CheckOptions{Concurrency: 3})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingExportFiles))

	var mf *MissingFilesError
	require.True(t, errors.As(err, &mf))
	var paths []string
	for _, f := range mf.Files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{
		"./dist/admin/index.d.ts",
		"./dist/server/index.js",
		"./dist/server/node.mjs",
		"./dist/server/node.mjs",
	}, paths)

	lines := strings.Split(err.Error(), "\n")
	assert.Equal(t, "Missing files for exports:", lines[0])
	assert.Equal(t, "    ./dist/admin/index.d.ts -> "+filepath.Join(base, "dist", "admin", "index.d.ts"), lines[1])
}

func TestMissing_Idempotent(t *testing.T) {
	base := t.TempDir()
	m := mustManifest(t, filesManifest)
	touch(t, base, "admin/src/index.ts", "dist/server/index.js")

	first, err := Missing(context.Background(), m.Exports, base, CheckOptions{Concurrency: 4})
	require.NoError(t, err)
	second, err := Missing(context.Background(), m.Exports, base, CheckOptions{Concurrency: 1})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}

func TestMissing_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Missing(ctx, mustManifest(t, filesManifest).Exports, t.TempDir(), CheckOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}
