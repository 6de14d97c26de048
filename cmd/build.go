/*
Copyright © 2026 FulmenHQ
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fulmenhq/strapi-plugin/internal/bundler"
	"github.com/fulmenhq/strapi-plugin/internal/pipeline"
	"github.com/fulmenhq/strapi-plugin/pkg/bundle"
	"github.com/fulmenhq/strapi-plugin/pkg/config"
)

func newBuildCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Bundle your Strapi plugin for publishing",
		Long: `Build derives one bundle per primary export (strapi-admin, strapi-server) from
package.json and writes CommonJS and ES module output to the paths it declares.`,
		Args: cobra.NoArgs,
		RunE: runBuild,
	}
	cmd.Flags().Bool("sourcemap", false, "Produce linked sourcemaps")
	cmd.Flags().Bool("minify", false, "Minify the output")
	cmd.Flags().Bool("dry-run", false, "Print the bundle plan without building")
	return cmd
}

func runBuild(cmd *cobra.Command, _ []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	bc := e.cfg.Build
	if cmd.Flags().Changed("sourcemap") {
		bc.Sourcemap, _ = cmd.Flags().GetBool("sourcemap")
	}
	if cmd.Flags().Changed("minify") {
		bc.Minify, _ = cmd.Flags().GetBool("minify")
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	return pipeline.Build(cmd.Context(), pipeline.BuildOptions{
		Dir:        e.dir,
		Logger:     e.log,
		Reporter:   e.reporter,
		NewBundler: newBundler(e, bc, bundler.ModeProduction),
		Silent:     e.silent,
		DryRun:     dryRun,
		Out:        cmd.OutOrStdout(),
	})
}

// newBundler returns the esbuild factory. Externals and the plugin root are
// only known once the manifest is loaded.
func newBundler(e *env, bc config.BuildConfig, mode bundler.Mode) pipeline.BundlerFactory {
	return func(plan *pipeline.Plan) pipeline.Bundler {
		return bundler.New(bundler.Options{
			Dir:          plan.Dir(),
			Mode:         mode,
			Sourcemap:    bc.Sourcemap,
			Minify:       bc.Minify,
			AdminTarget:  bc.AdminTarget,
			ServerTarget: bc.ServerTarget,
			Externals:    bundle.Externals(plan.Manifest),
			Declarations: bc.Declarations,
			TSC:          bc.TSC,
			Logger:       e.log,
		})
	}
}
