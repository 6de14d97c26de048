// Package bundle derives the build plan for a plugin from its validated
// manifest: one unit per primary export, always admin before server.
package bundle

import (
	"fmt"
	"path"

	"github.com/fulmenhq/strapi-plugin/pkg/exports"
	"github.com/fulmenhq/strapi-plugin/pkg/manifest"
)

// Runtime is the environment a unit is compiled for.
type Runtime string

const (
	// RuntimeWeb is the browser-like admin runtime.
	RuntimeWeb Runtime = "web"
	// RuntimeNode is the server runtime.
	RuntimeNode Runtime = "node"
)

// Output holds the artifact paths of a unit as declared in package.json.
type Output struct {
	CJS   string
	ESM   string
	Types string
}

// Unit is one build job handed to the bundler.
type Unit struct {
	// Name is "admin" or "server".
	Name       string
	ExportPath string
	Runtime    Runtime
	Source     string
	Output     Output
	// TSConfig is set only when Output.Types is.
	TSConfig string
}

// OutDir is the directory the bundler regenerates for this unit. It is the
// directory of the CJS output, falling back to the ESM output.
func (u Unit) OutDir() string {
	out := u.Output.CJS
	if out == "" {
		out = u.Output.ESM
	}
	if out == "" {
		return ""
	}
	return path.Dir(out)
}

// WatchDir is the source subtree whose changes rebuild this unit.
func (u Unit) WatchDir() string {
	return path.Dir(u.Source)
}

type primary struct {
	exportPath string
	name       string
	runtime    Runtime
	tsconfig   string
}

// sequence fixes build order: admin, then server.
var sequence = []primary{
	{exports.AdminExport, "admin", RuntimeWeb, "./admin/tsconfig.build.json"},
	{exports.ServerExport, "server", RuntimeNode, "./server/tsconfig.build.json"},
}

// Derive builds the plan. It fails with the same error as verify when
// neither primary export is declared.
func Derive(m *manifest.Manifest) ([]Unit, error) {
	if err := exports.RequirePrimaryExport(m); err != nil {
		return nil, err
	}

	var units []Unit
	for _, p := range sequence {
		entry, ok := m.Exports.Get(p.exportPath)
		if !ok {
			continue
		}
		if entry.IsLiteral() {
			return nil, fmt.Errorf("exports[%q] must be an object to be built", p.exportPath)
		}

		exp := entry.Export
		u := Unit{
			Name:       p.name,
			ExportPath: p.exportPath,
			Runtime:    p.runtime,
			Source:     exp.Source,
			Output: Output{
				CJS:   exp.Require,
				ESM:   exp.Import,
				Types: exp.Types,
			},
		}
		if exp.Types != "" {
			u.TSConfig = p.tsconfig
		}
		if u.Output.CJS == "" && u.Output.ESM == "" {
			return nil, fmt.Errorf("exports[%q] declares neither 'require' nor 'import' to build into", p.exportPath)
		}
		units = append(units, u)
	}
	return units, nil
}
