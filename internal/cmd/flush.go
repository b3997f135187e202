package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFlushCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "flush",
		Short: "Delete the log file and all stacktraces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.store.Flush(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "diagnostics flushed")
			return nil
		},
	}
}
