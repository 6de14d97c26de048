package bundler

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/strapi-plugin/pkg/bundle"
	"github.com/fulmenhq/strapi-plugin/pkg/logger"
	"github.com/fulmenhq/strapi-plugin/pkg/safeio"
)

// Declarations emits .d.ts files for a unit.
type Declarations interface {
	Emit(ctx context.Context, unit bundle.Unit) error
}

// TSC runs the TypeScript compiler in declaration-only mode.
type TSC struct {
	// Binary is the compiler to run. A local node_modules/.bin/tsc wins
	// over PATH when Binary is empty or "tsc".
	Binary string
	Dir    string
	Logger *logger.Logger
}

// Command returns the tsc invocation for unit, or nil when the unit's
// tsconfig does not exist.
func (t *TSC) Command(ctx context.Context, unit bundle.Unit) *exec.Cmd {
	tsconfig := safeio.Resolve(t.Dir, unit.TSConfig)
	if !safeio.PathExists(tsconfig) {
		return nil
	}
	// The declaration for the source entry lands exactly at Output.Types
	// only when rootDir is the source's directory.
	args := []string{
		"-p", tsconfig,
		"--emitDeclarationOnly",
		"--declaration",
		"--outDir", safeio.Resolve(t.Dir, path.Dir(unit.Output.Types)),
	}
	if unit.Source != "" {
		args = append(args, "--rootDir", safeio.Resolve(t.Dir, path.Dir(unit.Source)))
	}
	cmd := exec.CommandContext(ctx, t.binary(), args...)
	cmd.Dir = t.Dir
	return cmd
}

// Emit runs tsc. A missing tsconfig skips emission.
func (t *TSC) Emit(ctx context.Context, unit bundle.Unit) error {
	cmd := t.Command(ctx, unit)
	if cmd == nil {
		t.log().Debug("No tsconfig found, skipping declarations",
			logger.String("unit", unit.Name), logger.String("tsconfig", unit.TSConfig))
		return nil
	}

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	t.log().Debug("Emitting declarations", logger.String("unit", unit.Name), logger.String("cmd", strings.Join(cmd.Args, " ")))
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(out.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

func (t *TSC) binary() string {
	if t.Binary != "" && t.Binary != "tsc" {
		return t.Binary
	}
	local := filepath.Join(t.Dir, "node_modules", ".bin", "tsc")
	if safeio.PathExists(local) {
		return local
	}
	return "tsc"
}

func (t *TSC) log() *logger.Logger {
	if t.Logger == nil {
		return logger.Nop()
	}
	return t.Logger
}
