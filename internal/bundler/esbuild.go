// Package bundler compiles bundle units with esbuild and emits type
// declarations with tsc.
package bundler

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/fulmenhq/strapi-plugin/pkg/bundle"
	"github.com/fulmenhq/strapi-plugin/pkg/logger"
	"github.com/fulmenhq/strapi-plugin/pkg/safeio"
)

// Mode selects the NODE_ENV value compiled into bundles.
type Mode string

const (
	ModeProduction  Mode = "production"
	ModeDevelopment Mode = "development"
)

// ErrBuild matches *BuildError.
var ErrBuild = errors.New("bundler failed")

// BuildError carries esbuild or tsc diagnostics for one unit.
type BuildError struct {
	Unit     string
	Stage    string
	Messages []string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("%s build failed (%s):\n%s", e.Unit, e.Stage, strings.Join(e.Messages, "\n"))
}

func (e *BuildError) Is(target error) bool {
	return target == ErrBuild
}

// Options configures an Esbuild bundler for one invocation.
type Options struct {
	// Dir is the plugin root; every unit path resolves against it.
	Dir          string
	Mode         Mode
	Sourcemap    bool
	Minify       bool
	AdminTarget  string
	ServerTarget string
	// Externals are the manifest's dependencies and peerDependencies.
	Externals []string
	// Declarations enables tsc declaration output for units with types.
	Declarations bool
	TSC          string
	Logger       *logger.Logger
}

// Esbuild builds units in-process through the esbuild Go API.
type Esbuild struct {
	opts Options
	log  *logger.Logger
	tsc  Declarations
}

// New returns an Esbuild bundler.
func New(opts Options) *Esbuild {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	if opts.Mode == "" {
		opts.Mode = ModeProduction
	}
	return &Esbuild{
		opts: opts,
		log:  log,
		tsc:  &TSC{Binary: opts.TSC, Dir: opts.Dir, Logger: log},
	}
}

// Build regenerates the unit's output directory: it empties it, writes the
// CJS and ESM bundles, then emits declarations when the unit has types.
func (b *Esbuild) Build(ctx context.Context, unit bundle.Unit) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()

	target, err := b.target(unit)
	if err != nil {
		return &BuildError{Unit: unit.Name, Stage: "config", Messages: []string{err.Error()}}
	}

	if outDir := unit.OutDir(); outDir != "" {
		if err := safeio.RemoveDirContained(b.opts.Dir, outDir); err != nil {
			return fmt.Errorf("clean %s: %w", outDir, err)
		}
	}

	formats := []struct {
		format api.Format
		out    string
	}{
		{api.FormatCommonJS, unit.Output.CJS},
		{api.FormatESModule, unit.Output.ESM},
	}
	for _, f := range formats {
		if f.out == "" {
			continue
		}
		if err := b.compile(unit, target, f.format, f.out); err != nil {
			return err
		}
	}

	if unit.TSConfig != "" && b.opts.Declarations {
		if err := b.tsc.Emit(ctx, unit); err != nil {
			return &BuildError{Unit: unit.Name, Stage: "tsc", Messages: []string{err.Error()}}
		}
	}

	b.log.Debug("Bundle built", logger.String("unit", unit.Name), logger.Duration("elapsed", time.Since(start)))
	return nil
}

func (b *Esbuild) target(unit bundle.Unit) (Target, error) {
	spec := b.opts.ServerTarget
	if unit.Runtime == bundle.RuntimeWeb {
		spec = b.opts.AdminTarget
	}
	if spec == "" {
		if unit.Runtime == bundle.RuntimeWeb {
			spec = "es2020"
		} else {
			spec = "node20"
		}
	}
	return ParseTarget(spec)
}

// BuildOptions returns the esbuild options for one output format. It is
// split out so tests can inspect the configuration without compiling.
func (b *Esbuild) BuildOptions(unit bundle.Unit, target Target, format api.Format, outfile string) api.BuildOptions {
	platform := api.PlatformNode
	if unit.Runtime == bundle.RuntimeWeb {
		platform = api.PlatformBrowser
	}

	sourcemap := api.SourceMapNone
	if b.opts.Sourcemap {
		sourcemap = api.SourceMapLinked
	}

	opts := api.BuildOptions{
		EntryPoints:       []string{safeio.Resolve(b.opts.Dir, unit.Source)},
		Outfile:           safeio.Resolve(b.opts.Dir, outfile),
		AbsWorkingDir:     b.opts.Dir,
		Bundle:            true,
		Write:             true,
		Metafile:          true,
		Format:            format,
		Platform:          platform,
		Target:            target.Language,
		Engines:           target.Engines,
		Plugins:           []api.Plugin{externalsPlugin(b.opts.Externals)},
		Sourcemap:         sourcemap,
		MinifyWhitespace:  b.opts.Minify,
		MinifyIdentifiers: b.opts.Minify,
		MinifySyntax:      b.opts.Minify,
		Define:            map[string]string{"process.env.NODE_ENV": fmt.Sprintf("%q", string(b.opts.Mode))},
		LogLevel:          api.LogLevelSilent,
	}
	if unit.Runtime == bundle.RuntimeWeb {
		opts.JSX = api.JSXAutomatic
		opts.Loader = map[string]api.Loader{".js": api.LoaderJSX, ".svg": api.LoaderDataURL, ".png": api.LoaderDataURL}
	}
	return opts
}

func (b *Esbuild) compile(unit bundle.Unit, target Target, format api.Format, outfile string) error {
	result := api.Build(b.BuildOptions(unit, target, format, outfile))

	for _, w := range api.FormatMessages(result.Warnings, api.FormatMessagesOptions{Kind: api.WarningMessage}) {
		b.log.Warn(strings.TrimSpace(w), logger.String("unit", unit.Name))
	}
	if len(result.Errors) > 0 {
		msgs := api.FormatMessages(result.Errors, api.FormatMessagesOptions{Kind: api.ErrorMessage})
		for i := range msgs {
			msgs[i] = strings.TrimSpace(msgs[i])
		}
		return &BuildError{Unit: unit.Name, Stage: "esbuild", Messages: msgs}
	}

	if meta, err := ParseMetafile(result.Metafile); err == nil {
		s := meta.Summarize()
		b.log.Debug("Wrote bundle",
			logger.String("unit", unit.Name),
			logger.String("file", outfile),
			logger.Int("inputs", s.Inputs),
			logger.Int("bytes", s.OutputSize),
			logger.Int("externals", len(s.Externals)),
		)
	}
	return nil
}

// externalsPlugin keeps bare imports of node builtins, dependencies and
// peerDependencies as imports in the output instead of inlining them.
func externalsPlugin(externals []string) api.Plugin {
	return api.Plugin{
		Name: "strapi-plugin-externals",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: `^[^./]`}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
				if args.Kind == api.ResolveEntryPoint || filepath.IsAbs(args.Path) {
					return api.OnResolveResult{}, nil
				}
				if !bundle.IsExternal(args.Path, externals) {
					return api.OnResolveResult{}, nil
				}
				return api.OnResolveResult{Path: args.Path, External: true}, nil
			})
		},
	}
}
