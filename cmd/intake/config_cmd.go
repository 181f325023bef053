package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

func configPath(dataDir string) string {
	return filepath.Join(dataDir, "config.yml")
}

func newConfigCmd(opts *globalOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the intake configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check config.yml (with environment overrides) and report problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, vr, err := opts.loadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, w := range vr.Warnings {
				fmt.Fprintf(out, "warning: %s\n", w)
			}
			for _, e := range vr.Errors {
				fmt.Fprintf(out, "error: %s\n", e)
			}
			if !vr.OK() {
				return errors.New("configuration is invalid")
			}
			fmt.Fprintln(out, "configuration OK")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print where config.yml is read from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			abs, err := filepath.Abs(configPath(opts.resolveDataDir()))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), abs)
			return nil
		},
	})
	return cmd
}
