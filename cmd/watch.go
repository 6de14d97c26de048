/*
Copyright © 2026 FulmenHQ
*/
package cmd

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/strapi-plugin/internal/bundler"
	"github.com/fulmenhq/strapi-plugin/internal/pipeline"
	"github.com/fulmenhq/strapi-plugin/internal/watch"
	"github.com/fulmenhq/strapi-plugin/pkg/bundle"
	"github.com/fulmenhq/strapi-plugin/pkg/ignore"
)

func newWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch and compile your Strapi plugin for local development",
		Long: `Watch builds every bundle once, then rebuilds a bundle whenever a file under its
source directory changes. Press Ctrl+C to stop.`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}
}

func runWatch(cmd *cobra.Command, _ []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	bc := e.cfg.Build
	bc.Sourcemap = true
	bc.Minify = false

	return pipeline.Watch(cmd.Context(), pipeline.WatchOptions{
		Dir:        e.dir,
		Logger:     e.log,
		Reporter:   e.reporter,
		NewBundler: newBundler(e, bc, bundler.ModeDevelopment),
		NewWatcher: newWatcher(e),
		Silent:     e.silent,
	})
}

// newWatcher watches the directory holding each unit's source entry. Files
// the plugin's ignore files exclude never trigger a rebuild.
func newWatcher(e *env) pipeline.WatcherFactory {
	return func(unit bundle.Unit, dir string, onChange func(context.Context, []string) error) (pipeline.Watcher, error) {
		m, err := ignore.NewMatcher(dir)
		if err != nil {
			return nil, err
		}
		return watch.New(watch.Config{
			BaseDir:  filepath.Join(dir, filepath.FromSlash(unit.WatchDir())),
			Ignore:   e.cfg.Watch.Ignore,
			Skip:     m.Match,
			Debounce: e.cfg.Watch.Debounce,
			OnChange: onChange,
			Logger:   e.log,
		})
	}
}
