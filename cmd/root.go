/*
Copyright © 2026 FulmenHQ
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/fulmenhq/strapi-plugin/internal/bundler"
	"github.com/fulmenhq/strapi-plugin/internal/pipeline"
	"github.com/fulmenhq/strapi-plugin/internal/progress"
	"github.com/fulmenhq/strapi-plugin/pkg/ascii"
	"github.com/fulmenhq/strapi-plugin/pkg/buildinfo"
	"github.com/fulmenhq/strapi-plugin/pkg/config"
	"github.com/fulmenhq/strapi-plugin/pkg/exitcode"
	"github.com/fulmenhq/strapi-plugin/pkg/exports"
	"github.com/fulmenhq/strapi-plugin/pkg/logger"
	"github.com/fulmenhq/strapi-plugin/pkg/manifest"
)

const unexpectedErrorHint = "There seems to be an unexpected error, try again with --debug for more information"

// newRootCommand creates a fresh root command instance.
// Tests build isolated command trees from it.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "strapi-plugin",
		Short: "Build, watch and verify Strapi plugins",
		Long: `strapi-plugin builds Strapi plugins from the exports declared in package.json
and checks that a plugin is ready to publish.

Examples:
   strapi-plugin verify            # Validate package.json and the exported files
   strapi-plugin build             # Bundle admin and server for publishing
   strapi-plugin build --dry-run   # Print the bundle plan without building
   strapi-plugin watch             # Rebuild on change`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentFlags().Bool("silent", false, "Only log errors and hide progress")
	cmd.PersistentFlags().String("log-level", "info", "Set log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().Bool("json", false, "Output logs in JSON format")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	cmd.PersistentFlags().String("cwd", "", "Plugin directory (defaults to the working directory)")

	cmd.Version = buildinfo.BinaryVersion
	cmd.SetVersionTemplate("strapi-plugin {{.Version}}\n")

	return cmd
}

// registerSubcommands adds all subcommands to the root command.
func registerSubcommands(cmd *cobra.Command) {
	cmd.AddCommand(newVerifyCommand())
	cmd.AddCommand(newBuildCommand())
	cmd.AddCommand(newWatchCommand())
	cmd.AddCommand(newVersionCommand())
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCommand()

func init() {
	registerSubcommands(rootCmd)
}

// Execute runs the command tree and exits with the mapped exit code.
// This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, rootCmd, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, root *cobra.Command, args []string, stdout, stderr io.Writer) int {
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitcode.Success
	}

	var r *reportedError
	if !errors.As(err, &r) && !errors.Is(err, context.Canceled) {
		lines := strings.Split(err.Error(), "\n")
		lines = append(lines, "", unexpectedErrorHint)
		_, _ = fmt.Fprint(stderr, ascii.Box(lines))
	}
	return exitCode(err)
}

// exitCode maps an error to the process exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitcode.Success
	case errors.Is(err, context.Canceled):
		return exitcode.Interrupted
	case errors.Is(err, manifest.ErrManifestNotFound):
		return exitcode.ManifestNotFound
	case errors.Is(err, manifest.ErrSchemaViolation),
		errors.Is(err, exports.ErrOrderingViolation),
		errors.Is(err, exports.ErrMissingPrimaryExport),
		errors.Is(err, exports.ErrMissingExportFiles):
		return exitcode.ValidationError
	case errors.Is(err, config.ErrInvalidConfig):
		return exitcode.ConfigError
	case errors.Is(err, bundler.ErrBuild):
		return exitcode.BuildError
	default:
		return exitcode.GeneralError
	}
}

// reportedError marks an error that a command already logged, so Execute
// only maps it to an exit code.
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// env is what every subcommand needs: the plugin directory, a logger, the
// tool configuration and a progress reporter.
type env struct {
	dir      string
	log      *logger.Logger
	cfg      *config.Config
	reporter pipeline.Reporter
	silent   bool
}

// newEnv reads the global flags and loads configuration for the plugin dir.
func newEnv(cmd *cobra.Command) (*env, error) {
	flags := cmd.Flags()
	silent := flagBool(flags, "silent")

	log := initializeLogger(flags, cmd.ErrOrStderr())

	dir, _ := flags.GetString("cwd")
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("determine working directory: %w", err)
		}
		dir = wd
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	if cfg.File != "" {
		log.Debug("Loaded config", logger.String("file", cfg.File))
	}

	e := &env{dir: dir, log: log, cfg: cfg, silent: silent, reporter: progress.Nop{}}
	if !silent && !flagBool(flags, "json") {
		e.reporter = progress.New(cmd.ErrOrStderr(), progress.Detect())
	}
	return e, nil
}

// close stops any running spinner and reports the warning count.
func (e *env) close() {
	if r, ok := e.reporter.(*progress.Reporter); ok {
		r.Stop()
	}
	if n := e.log.Warnings(); n > 0 && !e.silent {
		e.log.Info(fmt.Sprintf("Finished with %d warning(s)", n))
	}
}

// initializeLogger builds the logger from the global flags. --silent wins over
// --debug, which wins over --log-level.
func initializeLogger(flags *pflag.FlagSet, w io.Writer) *logger.Logger {
	levelStr, _ := flags.GetString("log-level")
	level := logger.ParseLevel(levelStr)
	if flagBool(flags, "debug") {
		level = logger.DebugLevel
	}
	if flagBool(flags, "silent") {
		level = logger.ErrorLevel
	}

	caps := progress.Detect()
	return logger.New(logger.Config{
		Level:    level,
		UseColor: caps.SupportsColor && !flagBool(flags, "no-color"),
		JSON:     flagBool(flags, "json"),
	}, w)
}

func flagBool(flags *pflag.FlagSet, name string) bool {
	if flags.Lookup(name) == nil {
		return false
	}
	v, _ := flags.GetBool(name)
	return v
}
