/*
Copyright © 2026 FulmenHQ
*/
package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/strapi-plugin/pkg/buildinfo"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the strapi-plugin version",
		Args:  cobra.NoArgs,
		RunE:  runVersion,
	}
}

func runVersion(cmd *cobra.Command, _ []string) error {
	info := buildinfo.Read()
	out := cmd.OutOrStdout()

	if flagBool(cmd.Flags(), "json") {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format JSON: %w", err)
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	_, err := fmt.Fprintf(out, "strapi-plugin %s\n", info.Version)
	if err == nil && info.GoVersion != "" {
		_, err = fmt.Fprintf(out, "Go version: %s\n", info.GoVersion)
	}
	if err == nil && info.Revision != "" {
		rev := info.Revision
		if len(rev) > 12 {
			rev = rev[:12]
		}
		if info.Modified {
			rev += " (dirty)"
		}
		_, err = fmt.Fprintf(out, "Revision: %s\n", rev)
	}
	return err
}
