package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/fulmenhq/strapi-plugin/pkg/bundle"
	"github.com/fulmenhq/strapi-plugin/pkg/logger"
)

// ErrNoWatcher is returned when WatchOptions carry no watcher factory.
var ErrNoWatcher = errors.New("pipeline: no watcher configured")

// Watcher blocks until ctx is cancelled, calling its change callback as files
// settle.
type Watcher interface {
	Run(ctx context.Context) error
}

// WatcherFactory builds the watcher for one unit. dir is the plugin root and
// onChange rebuilds the unit.
type WatcherFactory func(unit bundle.Unit, dir string, onChange func(context.Context, []string) error) (Watcher, error)

// WatchOptions configures Watch.
type WatchOptions struct {
	Dir        string
	Logger     *logger.Logger
	Reporter   Reporter
	NewBundler BundlerFactory
	NewWatcher WatcherFactory
	Silent     bool
	OnState    StateFunc
}

// Watch builds every unit once, then rebuilds a unit whenever files under its
// source directory change. Build failures are logged and the watcher keeps
// going. Watch returns nil once ctx is cancelled.
func Watch(ctx context.Context, opts WatchOptions) (err error) {
	c := newCommon(opts.Logger, opts.Reporter, opts.OnState)
	c.onState(StateIdle, "")
	defer func() {
		if err != nil {
			c.onState(StateError, "")
		}
	}()

	restore := setEnv("NODE_ENV", "development")
	defer restore()

	c.warnLegacyConfig(opts.Dir, opts.Silent)
	if !opts.Silent {
		c.log.Info("Starting watch mode...")
	}

	plan, err := c.loadPlan(opts.Dir)
	if err != nil {
		return err
	}
	if opts.NewBundler == nil {
		return ErrNoBundler
	}
	if opts.NewWatcher == nil {
		return ErrNoWatcher
	}
	b := opts.NewBundler(plan)

	g, gctx := errgroup.WithContext(ctx)
	for _, unit := range plan.Units {
		rebuild := func(ctx context.Context, changed []string) error {
			c.log.Debug("Change detected",
				logger.String("unit", unit.Name),
				logger.String("files", strings.Join(changed, ", ")))
			c.onState(StateBuilding, unit.Name)
			if err := buildUnit(ctx, c, b, unit); err != nil {
				c.log.Error(fmt.Sprintf("%s rebuild failed: %v", title(unit.Name), err))
			} else {
				c.onState(StateDone, unit.Name)
			}
			c.onState(StateWatching, unit.Name)
			return nil
		}

		g.Go(func() error {
			// The watcher exists before the first build so edits made while
			// it runs are not lost.
			w, err := opts.NewWatcher(unit, plan.Dir(), rebuild)
			if err != nil {
				return fmt.Errorf("watch %s: %w", unit.Name, err)
			}

			c.onState(StateBuilding, unit.Name)
			if err := buildUnit(gctx, c, b, unit); err != nil {
				if gctx.Err() == nil {
					c.log.Error(fmt.Sprintf("%s build failed: %v", title(unit.Name), err))
				}
			} else {
				c.onState(StateDone, unit.Name)
			}
			c.onState(StateWatching, unit.Name)
			return w.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	c.onState(StateStopped, "")
	if !opts.Silent {
		c.log.Info("Watch mode stopped")
	}
	return nil
}
