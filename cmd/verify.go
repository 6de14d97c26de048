/*
Copyright © 2026 FulmenHQ
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fulmenhq/strapi-plugin/pkg/verify"
)

func newVerifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify the output of your plugin before publishing it",
		Long: `Verify checks package.json against the plugin export contract and makes sure
every file referenced by the exports map exists on disk.`,
		Args: cobra.NoArgs,
		RunE: runVerify,
	}
	cmd.Flags().Int("concurrency", 0, "Parallel file checks (0 uses the config value or GOMAXPROCS)")
	return cmd
}

func runVerify(cmd *cobra.Command, _ []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	concurrency := e.cfg.Verify.Concurrency
	if cmd.Flags().Changed("concurrency") {
		concurrency, _ = cmd.Flags().GetInt("concurrency")
	}

	_, err = verify.Run(cmd.Context(), verify.Options{
		Dir:         e.dir,
		Logger:      e.log,
		Reporter:    e.reporter,
		Concurrency: concurrency,
	})
	if err != nil {
		// verify already logged the failing stage.
		return &reportedError{err: err}
	}
	return nil
}
