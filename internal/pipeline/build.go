package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/fulmenhq/strapi-plugin/pkg/ascii"
	"github.com/fulmenhq/strapi-plugin/pkg/bundle"
	"github.com/fulmenhq/strapi-plugin/pkg/logger"
)

// BuildOptions configures Build.
type BuildOptions struct {
	Dir        string
	Logger     *logger.Logger
	Reporter   Reporter
	NewBundler BundlerFactory
	// Silent skips the legacy config warning and informational lines.
	Silent bool
	// DryRun prints the plan to Out instead of building.
	DryRun  bool
	Out     io.Writer
	OnState StateFunc
}

// Build derives the plan and builds every unit in plan order, admin before
// server. The first unit failure aborts the build. NODE_ENV is "production"
// while it runs.
func Build(ctx context.Context, opts BuildOptions) (err error) {
	c := newCommon(opts.Logger, opts.Reporter, opts.OnState)
	c.onState(StateIdle, "")
	defer func() {
		if err != nil {
			c.onState(StateError, "")
		}
	}()

	restore := setEnv("NODE_ENV", "production")
	defer restore()

	c.warnLegacyConfig(opts.Dir, opts.Silent)
	if !opts.Silent {
		c.log.Info("Building plugin...")
	}

	plan, err := c.loadPlan(opts.Dir)
	if err != nil {
		return err
	}

	if opts.DryRun {
		out := opts.Out
		if out == nil {
			out = io.Discard
		}
		_, err := io.WriteString(out, PlanTable(plan.Units))
		if err == nil {
			c.onState(StateDone, "")
		}
		return err
	}

	if opts.NewBundler == nil {
		return ErrNoBundler
	}
	b := opts.NewBundler(plan)

	for _, unit := range plan.Units {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.onState(StateBuilding, unit.Name)
		if err := buildUnit(ctx, c, b, unit); err != nil {
			return err
		}
	}

	c.onState(StateDone, "")
	if !opts.Silent {
		c.log.Info("Build complete!")
	}
	return nil
}

func buildUnit(ctx context.Context, c common, b Bundler, unit bundle.Unit) error {
	task := fmt.Sprintf("Building %s bundle", unit.Name)
	c.reporter.Running(task)
	if err := b.Build(ctx, unit); err != nil {
		c.reporter.Failed(task)
		return err
	}
	c.reporter.Succeeded(fmt.Sprintf("%s bundle built successfully", title(unit.Name)))
	return nil
}

// PlanTable renders units for --dry-run.
func PlanTable(units []bundle.Unit) string {
	rows := make([][]string, 0, len(units))
	for _, u := range units {
		rows = append(rows, []string{
			title(u.Name),
			string(u.Runtime),
			u.Source,
			orDash(u.Output.CJS),
			orDash(u.Output.ESM),
			orDash(u.Output.Types),
		})
	}
	return ascii.Table([]string{"UNIT", "RUNTIME", "SOURCE", "CJS", "ESM", "TYPES"}, rows)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
